package orchestrator

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/auditx/auditx-pipeline/clients"
	cfg "github.com/auditx/auditx-pipeline/config"
	"github.com/auditx/auditx-pipeline/events"
	"github.com/auditx/auditx-pipeline/interpret"
	"github.com/auditx/auditx-pipeline/logging"
	"github.com/auditx/auditx-pipeline/rules"
	"github.com/auditx/auditx-pipeline/signals"
	"github.com/auditx/auditx-pipeline/store"
)

type Pipeline struct {
	cfg       *cfg.Root
	http      *clients.HTTP
	store     *store.Store
	explainer interpret.Explainer
	builder   *signals.Builder
	engine    *rules.Engine
	log       logrus.FieldLogger
}

type Option func(*Pipeline)

// WithStore archives every analyzed call into s.
func WithStore(s *store.Store) Option { return func(p *Pipeline) { p.store = s } }

// WithExplainer replaces the explainer built from the configuration.
func WithExplainer(ex interpret.Explainer) Option { return func(p *Pipeline) { p.explainer = ex } }

func NewPipeline(c *cfg.Root, log logrus.FieldLogger, opts ...Option) (*Pipeline, error) {
	if log == nil {
		log = logging.Discard()
	}
	engine, err := rules.NewEngine(c.Rules, log)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:     c,
		http:    clients.NewHTTP(c.Services.Transcription.Timeout),
		builder: signals.NewBuilder(c.Signals, log),
		engine:  engine,
		log:     log,
	}
	if ex := c.Services.Explainer; c.Interpret.Enabled && ex.Configured() {
		p.explainer = interpret.NewLLM(clients.NewHTTP(ex.Timeout), ex.URL, ex.APIKey, ex.Model, c.Interpret.RateInterval)
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Indicators runs only the indicator pass.
func (p *Pipeline) Indicators(ctx context.Context, in Inputs) (signals.Stream, error) {
	sents, err := p.sentences(ctx, in)
	if err != nil {
		return signals.Stream{}, err
	}
	return p.builder.Build(sents), nil
}

// Run analyzes one call: indicators, rules, dedup, interpretation, summary.
// Outputs are written before the store is updated, so a store failure is
// returned together with a complete Result.
func (p *Pipeline) Run(ctx context.Context, in Inputs) (*Result, error) {
	sents, err := p.sentences(ctx, in)
	if err != nil {
		return nil, err
	}
	ms, err := p.markers(ctx, in, sents)
	if err != nil {
		return nil, err
	}
	tl, err := p.timeline(in)
	if err != nil {
		return nil, err
	}
	id := callID(in, tl)
	log := p.log.WithField("call_id", id)

	stream := p.builder.Build(sents)
	found, err := p.engine.Detect(ctx, rules.NewInput(sents, stream, ms, tl))
	if err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}

	var ex interpret.Explainer
	if !in.NoLLM {
		ex = p.explainer
	}
	interpreted := interpret.New(ex, p.cfg.Interpret.Options, log).Interpret(ctx, found, sents)

	res := &Result{
		Sentences:  sents,
		Indicators: stream,
		Set:        events.NewSet(id, interpreted, ex != nil, p.engine.Policy().String()),
	}
	log.WithFields(logrus.Fields{
		"sentences": len(sents),
		"events":    res.Set.Summary.TotalEvents,
		"high_risk": res.Set.Summary.HighRiskEvents,
	}).Info("call analyzed")

	if in.Persist {
		if err := persist(p.cfg.Paths.Outputs, in, res); err != nil {
			return res, fmt.Errorf("persist: %w", err)
		}
		log.WithField("session", res.SessionID).Info("outputs written")
	}
	if p.store != nil {
		if err := p.store.SaveSet(ctx, res.Set); err != nil {
			return res, err
		}
	}
	return res, nil
}
