package rules

import (
	"github.com/auditx/auditx-pipeline/events"
	"github.com/auditx/auditx-pipeline/signals"
)

// Kind enumerates the correlation rules.
type Kind int

const (
	CommitmentWithoutConsent Kind = iota
	Affordability
	PressureReview
	PIISensitive
	Consent
)

var kindNames = [...]string{
	CommitmentWithoutConsent: "commitment_without_consent",
	Affordability:            "affordability_signal",
	PressureReview:           "pressure_review",
	PIISensitive:             "pii_sensitive_call",
	Consent:                  "consent",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Rule is one correlation rule bound to its policy.
type Rule struct {
	Kind   Kind
	Policy Policy
}

// Set returns the fixed rule set in evaluation order.
func Set(p Policy) []Rule {
	return []Rule{
		{CommitmentWithoutConsent, p},
		{Affordability, p},
		{PressureReview, p},
		{PIISensitive, p},
		{Consent, p},
	}
}

// Evaluate runs the rule. It only reads from in.
func (r Rule) Evaluate(in *Input) []events.Event {
	switch r.Kind {
	case CommitmentWithoutConsent:
		return commitment(in, r.Policy)
	case Affordability:
		return affordability(in, r.Policy)
	case PressureReview:
		return pressure(in, r.Policy)
	case PIISensitive:
		return pii(in)
	case Consent:
		if r.Policy.ConsentVariant == ConsentCall {
			return consentGap(in)
		}
		return consentUncertainty(in, r.Policy)
	}
	return nil
}

// Evidence group labels.
const (
	labelBehavioralHesitation = "behavioral_hesitation"
	labelHesitation           = "hesitation"
	labelNoRegulatoryPrompt   = "no_regulatory_prompt_in_call"
)

var (
	commitmentHesitation = []signals.Kind{signals.PauseCountIncrease, signals.SpeedDeviation, signals.AgreementPattern}
	hesitation           = []signals.Kind{signals.SpeedDeviation, signals.PauseCountIncrease}
)

func kindStrings(ks []signals.Kind) []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = string(k)
	}
	return out
}
