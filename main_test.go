package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliSentences = `[
 {"start":0,"end":2,"text":"hello","speech":{"word_count":8,"confidence":0.9,"speed_wpm":110,"pause_count":0}},
 {"start":2,"end":4,"text":"hello","speech":{"word_count":8,"confidence":0.9,"speed_wpm":110,"pause_count":0}},
 {"start":4,"end":6,"text":"hello","speech":{"word_count":8,"confidence":0.9,"speed_wpm":110,"pause_count":0}},
 {"start":6,"end":8,"text":"hello","speech":{"word_count":8,"confidence":0.9,"speed_wpm":110,"pause_count":0}},
 {"start":8,"end":10,"text":"my account is 12345678","speech":{"word_count":8,"confidence":0.9,"speed_wpm":110,"pause_count":0}}
]`

const cliMarkers = `{"sentences":[{"sentence_index":4,"markers":[{"type":"potential_pii","category":"account_pattern","matched_text":"12345678"}]}]}`

type cli struct {
	dir    string
	config string
}

func newCLI(t *testing.T) cli {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	c := cli{dir: dir, config: filepath.Join(dir, "config.yaml")}
	conf := "pipeline:\n  log_level: error\n" +
		"paths:\n  outputs: " + filepath.Join(dir, "out") + "\n  store: " + filepath.Join(dir, "audit.db") + "\n" +
		"services:\n  explainer:\n    api_key: hunter2\n"
	require.NoError(t, os.WriteFile(c.config, []byte(conf), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sentences.json"), []byte(cliSentences), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "markers.json"), []byte(cliMarkers), 0o644))
	return c
}

func (c cli) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", c.config}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestAnalyzeThenHistory(t *testing.T) {
	c := newCLI(t)
	metrics := filepath.Join(c.dir, "metrics.prom")

	out, err := c.run(t, "analyze", "--sentences", "sentences.json", "--markers", "markers.json",
		"--call-id", "cli-1", "--persist", "--metrics-textfile", metrics)
	require.NoError(t, err)

	var set map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &set))
	assert.Equal(t, "cli-1", set["call_id"])
	assert.Equal(t, false, set["llm_enabled"])
	evs := set["events"].([]any)
	require.Len(t, evs, 1)
	assert.Equal(t, "pii_sensitive_call", evs[0].(map[string]any)["event_type"])

	prom, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `auditx_rule_candidates_total{event_type="pii_sensitive_call"}`)

	sessions, err := filepath.Glob(filepath.Join(c.dir, "out", "session_*_cli-1", "events.json"))
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	out, err = c.run(t, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "CALL ID")
	assert.Contains(t, out, "cli-1")

	out, err = c.run(t, "history", "show", "cli-1", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "call_id: cli-1")
	assert.Contains(t, out, "source: TextEXT")

	_, err = c.run(t, "history", "show", "nope")
	assert.ErrorContains(t, err, "call not found")
}

func TestAnalyzeYAMLToFile(t *testing.T) {
	c := newCLI(t)
	dest := filepath.Join(c.dir, "events.yaml")

	out, err := c.run(t, "analyze", "--sentences", "sentences.json", "--no-llm", "--format", "yaml", "-o", dest)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "artifact_type: unified_event_analysis")
}

func TestIndicatorsCommand(t *testing.T) {
	c := newCLI(t)
	out, err := c.run(t, "indicators", "--sentences", "sentences.json")
	require.NoError(t, err)

	var stream map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &stream))
	assert.Equal(t, "behavioral_signal_transform", stream["artifact_type"])
	assert.Len(t, stream["sentences"], 5)
}

func TestAnalyzeNeedsTranscript(t *testing.T) {
	c := newCLI(t)
	_, err := c.run(t, "analyze", "--markers", "markers.json")
	assert.Error(t, err)
}

func TestConfigShowMasksSecrets(t *testing.T) {
	c := newCLI(t)
	out, err := c.run(t, "config", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "****")
	assert.Contains(t, out, "consent_variant: local")
}
