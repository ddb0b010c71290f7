package rules

import (
	"fmt"

	"github.com/auditx/auditx-pipeline/events"
	"github.com/auditx/auditx-pipeline/markers"
	"github.com/auditx/auditx-pipeline/signals"
)

func isType(t string) func(markers.Marker) bool {
	return func(m markers.Marker) bool { return m.Type == t }
}

// commitment flags a customer commitment with no consent prompt in the
// lookback window and behavioral hesitation on the commitment sentence.
func commitment(in *Input, p Policy) []events.Event {
	var out []events.Event
	for _, i := range in.Markers.Sentences(markers.TypeCustomerCommitment) {
		prompted := in.collect(i-p.CommitmentLookback, i-1, func(j int) bool {
			return in.Markers.HasType(j, markers.TypeRegulatoryPrompt)
		})
		if len(prompted) > 0 {
			continue
		}
		hes := in.Indicators.Matching(i, commitmentHesitation...)
		if len(hes) == 0 {
			continue
		}
		m, _ := in.Markers.MostSpecific(i, isType(markers.TypeCustomerCommitment))
		out = append(out, in.emit(events.CommitmentWithoutConsent, i,
			[]events.Evidence{
				events.MarkerEvidence{Marker: markers.TypeCustomerCommitment, Matched: m.MatchedText, Sentence: events.At(i)},
				events.IndicatorEvidence{Indicator: labelBehavioralHesitation, Sentence: events.At(i), Matched: kindStrings(hes)},
			},
			fmt.Sprintf("Commitment at sentence %d without prior consent prompt, with behavioral hesitation", i),
			"compliance_review",
		))
	}
	return out
}

// pii emits at most one event per call, at the first sentence disclosing a
// phone or account pattern.
func pii(in *Input) []events.Event {
	keep := func(m markers.Marker) bool {
		return m.Type == markers.TypePotentialPII &&
			(m.Category == markers.CategoryPhonePattern || m.Category == markers.CategoryAccountPattern)
	}
	for _, i := range in.Markers.Sentences(markers.TypePotentialPII) {
		m, ok := in.Markers.MostSpecific(i, keep)
		if !ok {
			continue
		}
		// the matched text itself is never copied into the event
		return []events.Event{in.emit(events.PIISensitiveCall, i,
			[]events.Evidence{
				events.MarkerEvidence{Marker: markers.TypePotentialPII, Category: m.Category, Sentence: events.At(i)},
			},
			fmt.Sprintf("PII (%s) disclosed at sentence %d", m.Category, i),
			"restricted_access",
		)}
	}
	return nil
}

// consentUncertainty flags a regulatory prompt that gets no commitment in
// the response window but does get a data-quality issue.
func consentUncertainty(in *Input, p Policy) []events.Event {
	var out []events.Event
	for _, i := range in.Markers.Sentences(markers.TypeRegulatoryPrompt) {
		lo, hi := i+1, i+p.ConsentResponseWindow
		committed := in.collect(lo, hi, func(j int) bool {
			return in.Markers.HasType(j, markers.TypeCustomerCommitment)
		})
		if len(committed) > 0 {
			continue
		}
		unclear := in.collect(lo, hi, func(j int) bool {
			return in.Indicators.Has(j, signals.DataQualityIssue)
		})
		if len(unclear) == 0 {
			continue
		}
		out = append(out, in.emit(events.ConsentUncertainty, i,
			[]events.Evidence{
				events.MarkerEvidence{Marker: markers.TypeRegulatoryPrompt, Sentence: events.At(i)},
				events.IndicatorEvidence{Indicator: string(signals.DataQualityIssue), Sentences: unclear},
			},
			fmt.Sprintf("Consent prompt at %d with unclear response (data quality issue)", i),
			"compliance_review",
		))
	}
	return out
}

// consentGap flags every commitment in a call that never carries a
// regulatory prompt.
func consentGap(in *Input) []events.Event {
	if len(in.Markers.Sentences(markers.TypeRegulatoryPrompt)) > 0 {
		return nil
	}
	var out []events.Event
	for _, i := range in.Markers.Sentences(markers.TypeCustomerCommitment) {
		m, _ := in.Markers.MostSpecific(i, isType(markers.TypeCustomerCommitment))
		out = append(out, in.emit(events.ConsentGap, i,
			[]events.Evidence{
				events.MarkerEvidence{Marker: markers.TypeCustomerCommitment, Matched: m.MatchedText, Sentence: events.At(i)},
				events.MarkerEvidence{Marker: labelNoRegulatoryPrompt},
			},
			fmt.Sprintf("Customer commitment at sentence %d with no regulatory disclosure in call", i),
			"compliance_escalation",
		))
	}
	return out
}
