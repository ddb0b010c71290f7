package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/auditx/auditx-pipeline/config"
	"github.com/auditx/auditx-pipeline/events"
	"github.com/auditx/auditx-pipeline/interpret"
	"github.com/auditx/auditx-pipeline/store"
)

const sentencesDoc = `{"sentences":[
 {"sentence_index":0,"start":0,"end":2,"speaker_id":"agent","text":"thanks for calling today how can I help you now","speech":{"word_count":10,"confidence":0.9,"speed_wpm":120,"pause_count":1}},
 {"sentence_index":1,"start":2,"end":4,"speaker_id":"customer","text":"I want to hear about the new card you offer","speech":{"word_count":10,"confidence":0.9,"speed_wpm":120,"pause_count":1}},
 {"sentence_index":2,"start":4,"end":6,"speaker_id":"agent","text":"sure it comes with a low fee and good rates","speech":{"word_count":10,"confidence":0.9,"speed_wpm":120,"pause_count":1}},
 {"sentence_index":3,"start":6,"end":8,"speaker_id":"customer","text":"what would that cost me every month on average","speech":{"word_count":10,"confidence":0.9,"speed_wpm":120,"pause_count":1}},
 {"sentence_index":4,"start":8,"end":10,"speaker_id":"agent","text":"it is forty dollars a month for the first year","speech":{"word_count":10,"confidence":0.9,"speed_wpm":120,"pause_count":1}},
 {"sentence_index":5,"start":10,"end":14,"speaker_id":"customer","text":"hmm forty dollars is quite a lot for me now","speech":{"word_count":10,"confidence":0.9,"speed_wpm":40,"pause_count":1}},
 {"sentence_index":6,"start":14,"end":16,"speaker_id":"agent","text":"I can set that up if you give me your number","speech":{"word_count":10,"confidence":0.9,"speed_wpm":120,"pause_count":1}},
 {"sentence_index":7,"start":16,"end":18,"speaker_id":"customer","text":"it is five five five one two three four five","speech":{"word_count":10,"confidence":0.9,"speed_wpm":120,"pause_count":1}}
]}`

const markersDoc = `{"sentences":[
 {"sentence_index":5,"markers":[{"type":"financial_entity","category":"currency_amount","matched_text":"forty dollars"}]},
 {"sentence_index":7,"markers":[{"type":"potential_pii","category":"phone_pattern","matched_text":"five five five one two three four five"}]}
]}`

const contextDoc = `{"context":{"call_id":"call-42","amount":{"band":"low","value":40},"product":{"type":"credit_card","sensitivity":"medium"}}}`

type fixtures struct {
	sentences, markers, context string
}

func writeFixtures(t *testing.T) fixtures {
	t.Helper()
	dir := t.TempDir()
	f := fixtures{
		sentences: filepath.Join(dir, "sentences.json"),
		markers:   filepath.Join(dir, "markers.json"),
		context:   filepath.Join(dir, "context.json"),
	}
	require.NoError(t, os.WriteFile(f.sentences, []byte(sentencesDoc), 0o644))
	require.NoError(t, os.WriteFile(f.markers, []byte(markersDoc), 0o644))
	require.NoError(t, os.WriteFile(f.context, []byte(contextDoc), 0o644))
	return f
}

func testConfig(t *testing.T) *cfg.Root {
	t.Helper()
	t.Chdir(t.TempDir())
	c, err := cfg.Load("")
	require.NoError(t, err)
	c.Paths.Outputs = t.TempDir()
	return c
}

type staticExplainer struct{ err error }

func (s staticExplainer) Explain(ctx context.Context, ev events.Event, excerpt string) (events.Analysis, error) {
	if s.err != nil {
		return events.Analysis{}, s.err
	}
	return events.Analysis{Summary: "explained " + string(ev.Type), RiskLevel: events.RiskLow, RecommendedAction: "none", Confidence: 0.9}, nil
}

func types(evs []events.Event) []events.Type {
	out := make([]events.Type, 0, len(evs))
	for _, e := range evs {
		out = append(out, e.Type)
	}
	return out
}

func TestRunEndToEnd(t *testing.T) {
	c := testConfig(t)
	f := writeFixtures(t)
	st, err := store.NewStore(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer st.Close()

	p, err := NewPipeline(c, nil, WithStore(st), WithExplainer(staticExplainer{}))
	require.NoError(t, err)

	res, err := p.Run(context.Background(), Inputs{
		SentencesPath: f.sentences,
		MarkersPath:   f.markers,
		ContextPath:   f.context,
		Persist:       true,
	})
	require.NoError(t, err)

	set := res.Set
	assert.Equal(t, "call-42", set.CallID)
	assert.True(t, set.LLMEnabled)
	assert.Equal(t, "affordability=centered,consent=local", set.RulePolicy)
	assert.Equal(t, []events.Type{events.AffordabilitySignal, events.PIISensitiveCall}, types(set.Events))

	aff := set.Events[0]
	assert.Equal(t, 5, aff.Sentence)
	assert.Equal(t, "customer", aff.SpeakerID)
	assert.Equal(t, "low", aff.FinancialContext.AmountBand)
	assert.Equal(t, "medium", aff.FinancialContext.ProductSensitivity)
	assert.Equal(t, "explained affordability_signal", aff.Analysis.Summary)
	assert.Equal(t, events.SourceLLM, aff.Analysis.Source)

	assert.Equal(t, 2, set.Summary.TotalEvents)
	assert.Equal(t, 2, set.Summary.EventsBySource.LLM)

	for _, path := range []string{res.IndicatorsPath, res.EventsPath} {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, json.Valid(data), path)
	}
	_, err = os.Stat(filepath.Join(filepath.Dir(res.EventsPath), "session.json"))
	assert.NoError(t, err)

	calls, err := st.ListCalls(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "call-42", calls[0].CallID)
}

func TestRunNoLLMUsesFallback(t *testing.T) {
	c := testConfig(t)
	f := writeFixtures(t)

	p, err := NewPipeline(c, nil, WithExplainer(staticExplainer{}))
	require.NoError(t, err)
	res, err := p.Run(context.Background(), Inputs{
		SentencesPath: f.sentences,
		MarkersPath:   f.markers,
		ContextPath:   f.context,
		NoLLM:         true,
	})
	require.NoError(t, err)

	assert.False(t, res.Set.LLMEnabled)
	for _, ev := range res.Set.Events {
		assert.Equal(t, interpret.Fallback(ev.Type), *ev.Analysis)
	}
	assert.Equal(t, 1, res.Set.Summary.HighRiskEvents)
	assert.Empty(t, res.EventsPath)
}

func TestRunExplainerFailureStillProducesSet(t *testing.T) {
	c := testConfig(t)
	f := writeFixtures(t)

	p, err := NewPipeline(c, nil, WithExplainer(staticExplainer{err: errors.New("down")}))
	require.NoError(t, err)
	res, err := p.Run(context.Background(), Inputs{SentencesPath: f.sentences, MarkersPath: f.markers, ContextPath: f.context})
	require.NoError(t, err)
	assert.True(t, res.Set.LLMEnabled)
	assert.Equal(t, 2, res.Set.Summary.EventsBySource.Fallback)
}

func TestRunWithoutMarkersOrContext(t *testing.T) {
	c := testConfig(t)
	f := writeFixtures(t)

	p, err := NewPipeline(c, nil)
	require.NoError(t, err)
	res, err := p.Run(context.Background(), Inputs{SentencesPath: f.sentences, CallID: "given"})
	require.NoError(t, err)
	assert.Equal(t, "given", res.Set.CallID)
	assert.Empty(t, res.Set.Events)
	assert.False(t, res.Set.LLMEnabled)
}

func TestRunPersistKeepsSessionInsideOutputs(t *testing.T) {
	c := testConfig(t)
	f := writeFixtures(t)

	p, err := NewPipeline(c, nil)
	require.NoError(t, err)
	res, err := p.Run(context.Background(), Inputs{
		SentencesPath: f.sentences,
		CallID:        "x/../../../tmp/y",
		Persist:       true,
	})
	require.NoError(t, err)

	assert.Equal(t, "x/../../../tmp/y", res.Set.CallID)
	assert.Equal(t, c.Paths.Outputs, filepath.Dir(filepath.Dir(res.EventsPath)))
	assert.True(t, strings.HasSuffix(res.SessionID, "_x_.._.._.._tmp_y"), res.SessionID)
}

func TestRunGeneratesCallID(t *testing.T) {
	c := testConfig(t)
	f := writeFixtures(t)

	p, err := NewPipeline(c, nil)
	require.NoError(t, err)
	res, err := p.Run(context.Background(), Inputs{SentencesPath: f.sentences})
	require.NoError(t, err)
	assert.Len(t, res.Set.CallID, 36)
}

func TestRunRequiresTranscript(t *testing.T) {
	p, err := NewPipeline(testConfig(t), nil)
	require.NoError(t, err)
	_, err = p.Run(context.Background(), Inputs{})
	assert.ErrorIs(t, err, ErrNoTranscript)

	_, err = p.Run(context.Background(), Inputs{AudioPath: "call.wav"})
	assert.ErrorContains(t, err, "transcription service not configured")
}

func TestIndicators(t *testing.T) {
	f := writeFixtures(t)
	p, err := NewPipeline(testConfig(t), nil)
	require.NoError(t, err)

	stream, err := p.Indicators(context.Background(), Inputs{SentencesPath: f.sentences})
	require.NoError(t, err)
	require.Len(t, stream.Sentences, 8)
	require.Len(t, stream.Sentences[5].Indicators, 1)
	assert.Equal(t, "speed_deviation", string(stream.Sentences[5].Indicators[0].Kind))
	assert.Equal(t, 0.67, stream.Sentences[5].Indicators[0].Grade)
}
