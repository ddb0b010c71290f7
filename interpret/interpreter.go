// Package interpret attaches an interpretation to every event, from an
// optional explainer or from a static fallback table.
package interpret

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/auditx/auditx-pipeline/events"
	"github.com/auditx/auditx-pipeline/transcript"
)

// Explainer produces an interpretation for one event given a transcript
// excerpt around it.
type Explainer interface {
	Explain(ctx context.Context, ev events.Event, excerpt string) (events.Analysis, error)
}

type Options struct {
	Workers       int           `mapstructure:"workers" yaml:"workers"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	ExcerptWindow int           `mapstructure:"excerpt_window" yaml:"excerpt_window"`
}

func DefaultOptions() Options {
	return Options{Workers: 4, Timeout: 30 * time.Second, ExcerptWindow: 2}
}

type Interpreter struct {
	explainer Explainer
	opts      Options
	log       logrus.FieldLogger
}

// New returns an Interpreter. A nil explainer means every event is
// interpreted by the fallback table.
func New(ex Explainer, opts Options, log logrus.FieldLogger) *Interpreter {
	d := DefaultOptions()
	if opts.Workers <= 0 {
		opts.Workers = d.Workers
	}
	if opts.Timeout <= 0 {
		opts.Timeout = d.Timeout
	}
	if opts.ExcerptWindow < 0 {
		opts.ExcerptWindow = d.ExcerptWindow
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Interpreter{explainer: ex, opts: opts, log: log}
}

func (p *Interpreter) Enabled() bool { return p.explainer != nil }

// Interpret returns copies of evs, in the same order, each carrying an
// Analysis. It never fails: any explainer error, timeout or malformed reply
// is replaced by the fallback for the event type.
func (p *Interpreter) Interpret(ctx context.Context, evs []events.Event, sents []transcript.Sentence) []events.Event {
	out := make([]events.Event, len(evs))
	copy(out, evs)

	if p.explainer == nil {
		for i := range out {
			a := Fallback(out[i].Type)
			out[i].Analysis = &a
			analysesTotal.WithLabelValues(a.Source).Inc()
		}
		return out
	}

	pos := make(map[int]int, len(sents))
	for k, s := range sents {
		pos[s.Index] = k
	}

	var g errgroup.Group
	g.SetLimit(p.opts.Workers)
	for i := range out {
		g.Go(func() error {
			excerpt := ""
			if k, ok := pos[out[i].Sentence]; ok {
				excerpt = transcript.Excerpt(sents, k, p.opts.ExcerptWindow)
			}
			a := p.one(ctx, out[i], excerpt)
			out[i].Analysis = &a
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (p *Interpreter) one(ctx context.Context, ev events.Event, excerpt string) events.Analysis {
	log := p.log.WithFields(logrus.Fields{"event_type": ev.Type, "sentence": ev.Sentence})

	tctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	type reply struct {
		a   events.Analysis
		err error
	}
	// Buffered so an explainer that ignores tctx can finish after we gave up.
	done := make(chan reply, 1)
	start := time.Now()
	go func() {
		a, err := p.explainer.Explain(tctx, ev, excerpt)
		done <- reply{a, err}
	}()

	var (
		a   events.Analysis
		err error
	)
	select {
	case r := <-done:
		a, err = r.a, r.err
		if err == nil && tctx.Err() != nil {
			err = tctx.Err()
		}
	case <-tctx.Done():
		err = tctx.Err()
	}
	explainerSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		log.WithError(err).Warn("explainer failed, using fallback")
		a = Fallback(ev.Type)
	} else {
		a.Source = events.SourceLLM
		log.WithField("risk_level", a.RiskLevel).Debug("event interpreted")
	}
	analysesTotal.WithLabelValues(a.Source).Inc()
	return a
}
