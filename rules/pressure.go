package rules

import (
	"fmt"
	"slices"

	"github.com/auditx/auditx-pipeline/events"
	"github.com/auditx/auditx-pipeline/markers"
	"github.com/auditx/auditx-pipeline/signals"
)

// pressure matches hesitation at i, then a product push in (i, i+W], then
// agreement or urgency after the latest push. The three stages are strictly
// ordered.
func pressure(in *Input, p Policy) []events.Event {
	var out []events.Event
	for _, i := range in.Indicators.Sentences(hesitation...) {
		hes := in.Indicators.Matching(i, hesitation...)
		push := in.collect(i+1, i+p.PressurePushWindow, func(j int) bool {
			return in.Markers.HasType(j, markers.TypeProductReference, markers.TypeSalesPrompt)
		})
		if len(push) == 0 {
			continue
		}
		last := slices.Max(push)

		agreed := in.collect(last+1, last+p.PressureFollowupWindow, func(j int) bool {
			return in.Indicators.Has(j, signals.AgreementPattern)
		})
		urged := in.collect(last+1, last+p.PressureFollowupWindow, func(j int) bool {
			return in.Markers.HasType(j, markers.TypeUrgencyLanguage)
		})
		if len(agreed) == 0 && len(urged) == 0 {
			continue
		}

		evidence := []events.Evidence{
			events.IndicatorEvidence{Indicator: labelHesitation, Sentence: events.At(i), Matched: kindStrings(hes)},
			events.MarkerEvidence{Marker: markers.TypeProductReference, Sentences: push},
		}
		if len(agreed) > 0 {
			evidence = append(evidence, events.IndicatorEvidence{Indicator: string(signals.AgreementPattern), Sentences: agreed})
		}
		if len(urged) > 0 {
			evidence = append(evidence, events.MarkerEvidence{Marker: markers.TypeUrgencyLanguage, Sentences: urged})
		}
		follow := union(agreed, urged)
		out = append(out, in.emit(events.PressureReview, i, evidence,
			fmt.Sprintf("Hesitation→product push→agreement pattern: %d→%d→%d", i, last, follow[0]),
			"manual_review",
		))
	}
	return out
}
