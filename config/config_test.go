package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/auditx/auditx-pipeline/rules"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Pipeline.LogLvl)
	assert.Equal(t, 5, cfg.Signals.Warmup)
	assert.Equal(t, 0.9, cfg.Signals.ExtremeThreshold)
	assert.Equal(t, rules.DefaultPolicy(), cfg.Rules)
	assert.Equal(t, 2, cfg.Interpret.ExcerptWindow)
	assert.Equal(t, 30*time.Second, cfg.Interpret.Timeout)
	assert.Equal(t, 750*time.Millisecond, cfg.Interpret.RateInterval)
	assert.False(t, cfg.Services.Explainer.Configured())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  log_level: debug
services:
  explainer:
    url: http://llm:8080
    model: small
    timeout: 5s
rules:
  consent_variant: call
  affordability_window: forward
interpret:
  workers: 8
signals:
  min_words_for_baseline: 3
`)
	t.Setenv("AUDITX_SERVICES_EXPLAINER_API_KEY", "secret")
	t.Setenv("AUDITX_PATHS_STORE", "/tmp/audit.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Pipeline.LogLvl)
	assert.Equal(t, "http://llm:8080", cfg.Services.Explainer.URL)
	assert.Equal(t, 5*time.Second, cfg.Services.Explainer.Timeout)
	assert.Equal(t, "secret", cfg.Services.Explainer.APIKey)
	assert.Equal(t, "/tmp/audit.db", cfg.Paths.Store)
	assert.Equal(t, rules.ConsentCall, cfg.Rules.ConsentVariant)
	assert.Equal(t, rules.WindowForward, cfg.Rules.AffordabilityWindow)
	assert.Equal(t, 3, cfg.Rules.CommitmentLookback)
	assert.Equal(t, 8, cfg.Interpret.Workers)
	assert.Equal(t, 3, cfg.Signals.MinWordsForBaseline)
}

func TestLoadEnvDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config", "prod"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "prod", "config.yaml"),
		[]byte("paths:\n  outputs: /var/auditx\n"), 0o644))
	t.Setenv("CONFIG_ENV", "prod")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/var/auditx", cfg.Paths.Outputs)
}

func TestLoadRejectsUnknownVariant(t *testing.T) {
	_, err := Load(writeConfig(t, "rules:\n  consent_variant: both\n"))
	assert.ErrorContains(t, err, "unknown consent variant")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "config read")
}

func TestYAMLMasksSecrets(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AUDITX_SERVICES_EXPLAINER_API_KEY", "secret")

	cfg, err := Load("")
	require.NoError(t, err)
	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "secret")
	assert.Equal(t, "secret", cfg.Services.Explainer.APIKey, "original untouched")

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(out, &doc))
	assert.Equal(t, "local", doc["rules"].(map[string]any)["consent_variant"])
	assert.Equal(t, "30s", doc["interpret"].(map[string]any)["timeout"])
}
