package interpret

import (
	"fmt"

	"github.com/auditx/auditx-pipeline/events"
)

var fallbacks = map[events.Type]events.Analysis{
	events.CommitmentWithoutConsent: {
		Summary:           "Customer commitment recorded without clear prior consent prompt",
		RiskLevel:         events.RiskHigh,
		RecommendedAction: "Compliance review required - consent gap",
		Confidence:        0.7,
	},
	events.ConsentGap: {
		Summary:           "Potential compliance gap detected - consent/disclosure may be unclear",
		RiskLevel:         events.RiskHigh,
		RecommendedAction: "Compliance team review required",
		Confidence:        0.6,
	},
	events.ConsentUncertainty: {
		Summary:           "Customer response to consent prompt was unclear - consent may not have been captured",
		RiskLevel:         events.RiskHigh,
		RecommendedAction: "Compliance team review required",
		Confidence:        0.6,
	},
	events.AffordabilitySignal: {
		Summary:           "Customer showed hesitation when discussing pricing",
		RiskLevel:         events.RiskMedium,
		RecommendedAction: "Consider offering payment options or alternatives",
		Confidence:        0.6,
	},
	events.PressureReview: {
		Summary:           "Sales pressure pattern detected near customer hesitation",
		RiskLevel:         events.RiskMedium,
		RecommendedAction: "Review call for sales conduct compliance",
		Confidence:        0.6,
	},
	events.PIISensitiveCall: {
		Summary:           "Personally identifiable information was disclosed during call",
		RiskLevel:         events.RiskHigh,
		RecommendedAction: "Apply restricted access controls to this call record",
		Confidence:        0.8,
	},
}

// Fallback returns the static interpretation for t. Unknown types get a
// generic medium-risk record.
func Fallback(t events.Type) events.Analysis {
	a, ok := fallbacks[t]
	if !ok {
		a = events.Analysis{
			Summary:           fmt.Sprintf("Event detected: %s", t),
			RiskLevel:         events.RiskMedium,
			RecommendedAction: "Manual review recommended",
			Confidence:        0.5,
		}
	}
	a.Source = events.SourceFallback
	return a
}
