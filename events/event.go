// Package events defines the explainable compliance events produced for a
// call and the call-level EventSet.
package events

import (
	"time"

	"github.com/auditx/auditx-pipeline/transcript"
)

const (
	ArtifactType = "unified_event_analysis"
	Version      = "1.2.0"
)

// Type is an event type name.
type Type string

const (
	CommitmentWithoutConsent Type = "commitment_without_consent"
	AffordabilitySignal      Type = "affordability_signal"
	PressureReview           Type = "pressure_review"
	PIISensitiveCall         Type = "pii_sensitive_call"
	ConsentUncertainty       Type = "consent_uncertainty"
	ConsentGap               Type = "consent_gap"
)

// Types lists every known event type in rule-evaluation order.
var Types = []Type{
	CommitmentWithoutConsent,
	AffordabilitySignal,
	PressureReview,
	PIISensitiveCall,
	ConsentUncertainty,
	ConsentGap,
}

var descriptions = map[Type]string{
	CommitmentWithoutConsent: "Customer commitment without clear prior consent prompt",
	AffordabilitySignal:      "Behavioral hesitation near explicit monetary amount",
	PressureReview:           "Sales pressure pattern detected near customer hesitation",
	PIISensitiveCall:         "PII disclosed requiring restricted access handling",
	ConsentUncertainty:       "Potential consent/disclosure gap requiring compliance review",
	ConsentGap:               "Customer commitment with no regulatory disclosure anywhere in the call",
}

func (t Type) Description() string { return descriptions[t] }

// ContextSnapshot is the financial context in effect at the event.
type ContextSnapshot struct {
	AmountBand         string `json:"amount_band" yaml:"amount_band"`
	ProductSensitivity string `json:"product_sensitivity" yaml:"product_sensitivity"`
}

// Analysis sources.
const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

// Risk levels.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Analysis is the interpretation attached to an event.
type Analysis struct {
	Summary           string  `json:"summary" yaml:"summary"`
	RiskLevel         string  `json:"risk_level" yaml:"risk_level"`
	RecommendedAction string  `json:"recommended_action" yaml:"recommended_action"`
	Confidence        float64 `json:"confidence" yaml:"confidence"`
	Source            string  `json:"analysis_source" yaml:"analysis_source"`
}

// Event is mutable only while the affordability rule consolidates into it.
type Event struct {
	Type             Type                 `json:"event_type" yaml:"event_type"`
	SpeakerID        string               `json:"speaker_id" yaml:"speaker_id"`
	Sentence         int                  `json:"sentence_index" yaml:"sentence_index"`
	Timestamp        transcript.Timestamp `json:"timestamp" yaml:"timestamp"`
	Evidence         []Evidence           `json:"evidence" yaml:"evidence"`
	FinancialContext ContextSnapshot      `json:"financial_context" yaml:"financial_context"`
	Explanation      string               `json:"explanation" yaml:"explanation"`
	SuggestedAction  string               `json:"suggested_action" yaml:"suggested_action"`
	Analysis         *Analysis            `json:"llm_analysis,omitempty" yaml:"llm_analysis,omitempty"`
}

type key struct {
	typ      Type
	sentence int
}

// Dedup keeps the first event for each (type, sentence) pair, preserving
// input order.
func Dedup(in []Event) []Event {
	seen := make(map[key]bool, len(in))
	out := make([]Event, 0, len(in))
	for _, e := range in {
		k := key{e.Type, e.Sentence}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}

type SourceCounts struct {
	LLM      int `json:"llm" yaml:"llm"`
	Fallback int `json:"fallback" yaml:"fallback"`
}

type Summary struct {
	TotalEvents    int          `json:"total_events" yaml:"total_events"`
	EventsByType   map[Type]int `json:"events_by_type" yaml:"events_by_type"`
	EventsBySource SourceCounts `json:"events_by_source" yaml:"events_by_source"`
	HighRiskEvents int          `json:"high_risk_events" yaml:"high_risk_events"`
}

// Summarize counts events per type, per analysis source and at high risk.
func Summarize(evs []Event) Summary {
	s := Summary{TotalEvents: len(evs), EventsByType: make(map[Type]int, len(Types))}
	for _, t := range Types {
		s.EventsByType[t] = 0
	}
	for _, e := range evs {
		s.EventsByType[e.Type]++
		if e.Analysis == nil {
			continue
		}
		switch e.Analysis.Source {
		case SourceLLM:
			s.EventsBySource.LLM++
		case SourceFallback:
			s.EventsBySource.Fallback++
		}
		if e.Analysis.RiskLevel == RiskHigh {
			s.HighRiskEvents++
		}
	}
	return s
}

// Set is the call-level output.
type Set struct {
	ArtifactType string    `json:"artifact_type" yaml:"artifact_type"`
	Version      string    `json:"version" yaml:"version"`
	GeneratedAt  time.Time `json:"generated_at" yaml:"generated_at"`
	CallID       string    `json:"call_id" yaml:"call_id"`
	LLMEnabled   bool      `json:"llm_enabled" yaml:"llm_enabled"`
	RulePolicy   string    `json:"rule_policy" yaml:"rule_policy"`
	Events       []Event   `json:"events" yaml:"events"`
	Summary      Summary   `json:"summary" yaml:"summary"`
}

func NewSet(callID string, evs []Event, llmEnabled bool, policy string) Set {
	if evs == nil {
		evs = []Event{}
	}
	return Set{
		ArtifactType: ArtifactType,
		Version:      Version,
		GeneratedAt:  time.Now().UTC(),
		CallID:       callID,
		LLMEnabled:   llmEnabled,
		RulePolicy:   policy,
		Events:       evs,
		Summary:      Summarize(evs),
	}
}
