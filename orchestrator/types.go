package orchestrator

import (
	"github.com/auditx/auditx-pipeline/events"
	"github.com/auditx/auditx-pipeline/signals"
	"github.com/auditx/auditx-pipeline/transcript"
)

// Inputs names where one call's data comes from. Exactly one of
// SentencesPath and AudioPath is required; markers and context are optional.
type Inputs struct {
	SentencesPath string
	AudioPath     string
	MarkersPath   string
	ContextPath   string
	CallID        string // overrides the context's call_id
	NoLLM         bool
	Persist       bool
}

// Result is everything produced for one call.
type Result struct {
	Sentences  []transcript.Sentence
	Indicators signals.Stream
	Set        events.Set

	// set when Inputs.Persist
	SessionID      string
	IndicatorsPath string
	EventsPath     string
}
