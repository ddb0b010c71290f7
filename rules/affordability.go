package rules

import (
	"fmt"
	"sort"

	"github.com/auditx/auditx-pipeline/events"
	"github.com/auditx/auditx-pipeline/markers"
)

func affordableBand(b string) bool {
	return b == markers.BandLow || b == markers.BandNormal
}

func isCurrency(m markers.Marker) bool { return m.Category == markers.CategoryCurrencyAmount }

// openEvent is the affordability event still accepting merges.
type openEvent struct {
	at    int // position in the output slice
	band  string
	first int
}

// affordability emits consolidated events for currency mentions in a low or
// normal amount band that come with nearby hesitation. Consecutive triggers
// in the same band merge into the open event; a band change starts a new one
// and the previous event is never reopened.
func affordability(in *Input, p Policy) []events.Event {
	var (
		out  []events.Event
		open *openEvent
	)
	for _, i := range in.Markers.WithCategory(markers.CategoryCurrencyAmount) {
		m, ok := in.Markers.MostSpecific(i, isCurrency)
		if !ok {
			continue
		}
		band := in.Context.At(i).AmountBand()
		if !affordableBand(band) {
			continue
		}
		lo, hi := i-1, i+1
		if p.AffordabilityWindow == WindowForward {
			lo, hi = i, i+2
		}
		hes := in.collect(lo, hi, func(j int) bool { return in.Indicators.Has(j, hesitation...) })
		if len(hes) == 0 {
			continue
		}

		if open != nil && open.band == band {
			ev := &out[open.at]
			mergeAffordability(ev, m.MatchedText, i, hes)
			ev.Timestamp.End = in.timestamp(i).End
			ev.Explanation = fmt.Sprintf("Affordability signals consolidated (sentences %d-%d), amount_band=%s", open.first, i, band)
			continue
		}

		out = append(out, in.emit(events.AffordabilitySignal, i,
			[]events.Evidence{
				events.MarkerEvidence{Marker: markers.CategoryCurrencyAmount, Matched: m.MatchedText, Sentence: events.At(i)},
				events.IndicatorEvidence{Indicator: labelBehavioralHesitation, Sentences: hes},
				events.ContextEvidence{AmountBand: band},
			},
			fmt.Sprintf("Affordability signal at sentence %d, amount_band=%s", i, band),
			"affordability_check",
		))
		open = &openEvent{at: len(out) - 1, band: band, first: i}
	}
	return out
}

// mergeAffordability folds one more trigger into ev's evidence: the currency
// match is appended unless already recorded, hesitation sentences are
// unioned.
func mergeAffordability(ev *events.Event, matched string, i int, hes []int) {
	seen := false
	hesAt := -1
	for k, e := range ev.Evidence {
		switch v := e.(type) {
		case events.MarkerEvidence:
			if v.Marker == markers.CategoryCurrencyAmount && v.Matched == matched {
				seen = true
			}
		case events.IndicatorEvidence:
			if v.Indicator == labelBehavioralHesitation {
				hesAt = k
			}
		}
	}
	if hesAt >= 0 {
		v := ev.Evidence[hesAt].(events.IndicatorEvidence)
		v.Sentences = union(v.Sentences, hes)
		ev.Evidence[hesAt] = v
	}
	if !seen {
		ev.Evidence = append(ev.Evidence,
			events.MarkerEvidence{Marker: markers.CategoryCurrencyAmount, Matched: matched, Sentence: events.At(i)})
	}
}

func union(a, b []int) []int {
	set := make(map[int]bool, len(a)+len(b))
	out := make([]int, 0, len(a)+len(b))
	for _, xs := range [][]int{a, b} {
		for _, x := range xs {
			if !set[x] {
				set[x] = true
				out = append(out, x)
			}
		}
	}
	sort.Ints(out)
	return out
}
