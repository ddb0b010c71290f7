// Package rules correlates indicators, text markers and financial context
// into candidate compliance events.
package rules

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/auditx/auditx-pipeline/events"
	"github.com/auditx/auditx-pipeline/markers"
	"github.com/auditx/auditx-pipeline/signals"
	"github.com/auditx/auditx-pipeline/transcript"
)

// Input is the read-only view every rule evaluates against.
type Input struct {
	Sentences  []transcript.Sentence
	Indicators *signals.Index
	Markers    *markers.Index
	Context    markers.Timeline

	n   int
	pos map[int]int // sentence index -> position in Sentences
}

func NewInput(sents []transcript.Sentence, stream signals.Stream, ms *markers.Index, tl markers.Timeline) *Input {
	if ms == nil {
		ms = markers.NewIndex(nil)
	}
	n := max(len(sents), ms.Span())
	pos := make(map[int]int, len(sents))
	for p, s := range sents {
		pos[s.Index] = p
		n = max(n, s.Index+1)
	}
	for _, s := range stream.Sentences {
		n = max(n, s.Index+1)
	}
	return &Input{
		Sentences:  sents,
		Indicators: signals.NewIndex(stream),
		Markers:    ms,
		Context:    tl,
		n:          n,
		pos:        pos,
	}
}

// Len is the number of sentence slots rules scan.
func (in *Input) Len() int { return in.n }

// window clamps [lo, hi] to the call and returns it; hi < lo means empty.
func (in *Input) window(lo, hi int) (int, int) {
	return max(0, lo), min(in.n-1, hi)
}

func (in *Input) collect(lo, hi int, match func(int) bool) []int {
	lo, hi = in.window(lo, hi)
	var out []int
	for j := lo; j <= hi; j++ {
		if match(j) {
			out = append(out, j)
		}
	}
	return out
}

func (in *Input) speaker(i int) string {
	if p, ok := in.pos[i]; ok {
		return in.Sentences[p].Speaker()
	}
	return "unknown"
}

func (in *Input) timestamp(i int) transcript.Timestamp {
	if p, ok := in.pos[i]; ok {
		return transcript.At(in.Sentences, p)
	}
	return transcript.Timestamp{}
}

func (in *Input) snapshot(i int) events.ContextSnapshot {
	c := in.Context.At(i)
	return events.ContextSnapshot{AmountBand: c.AmountBand(), ProductSensitivity: c.ProductSensitivity()}
}

func (in *Input) emit(t events.Type, i int, evidence []events.Evidence, explanation, action string) events.Event {
	return events.Event{
		Type:             t,
		SpeakerID:        in.speaker(i),
		Sentence:         i,
		Timestamp:        in.timestamp(i),
		Evidence:         evidence,
		FinancialContext: in.snapshot(i),
		Explanation:      explanation,
		SuggestedAction:  action,
	}
}

// Engine evaluates the fixed rule set.
type Engine struct {
	policy Policy
	rules  []Rule
	log    logrus.FieldLogger
}

func NewEngine(p Policy, log logrus.FieldLogger) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Engine{policy: p, rules: Set(p), log: log}, nil
}

func (e *Engine) Policy() Policy { return e.policy }

// Candidates runs every rule concurrently and concatenates their outputs in
// rule order, so the result does not depend on scheduling.
func (e *Engine) Candidates(ctx context.Context, in *Input) ([]events.Event, error) {
	slots := make([][]events.Event, len(e.rules))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range e.rules {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = r.Evaluate(in)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []events.Event
	for i, evs := range slots {
		for _, ev := range evs {
			candidatesTotal.WithLabelValues(string(ev.Type)).Inc()
		}
		if len(evs) > 0 {
			e.log.WithFields(logrus.Fields{"rule": e.rules[i].Kind.String(), "candidates": len(evs)}).Debug("rule matched")
		}
		out = append(out, evs...)
	}
	return out, nil
}

// Detect returns the deduplicated events of a call.
func (e *Engine) Detect(ctx context.Context, in *Input) ([]events.Event, error) {
	cands, err := e.Candidates(ctx, in)
	if err != nil {
		return nil, err
	}
	out := events.Dedup(cands)
	if dropped := len(cands) - len(out); dropped > 0 {
		e.log.WithField("dropped", dropped).Debug("duplicate events removed")
	}
	return out, nil
}
