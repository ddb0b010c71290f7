// Package signals turns per-sentence speech measurements into graded
// behavioral-deviation indicators against a rolling, causal baseline.
package signals

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/auditx/auditx-pipeline/transcript"
)

const (
	ArtifactType = "behavioral_signal_transform"
	Version      = "1.2.0"
)

// Params are the detector thresholds. Zero fields fall back to defaults,
// except MinWordsForBaseline where 0 disables the filter.
type Params struct {
	Warmup              int     `json:"warmup" yaml:"warmup" mapstructure:"warmup"`
	Window              int     `json:"window" yaml:"window" mapstructure:"window"`
	GradeThreshold      float64 `json:"grade_threshold" yaml:"grade_threshold" mapstructure:"grade_threshold"`
	ExtremeThreshold    float64 `json:"extreme_threshold" yaml:"extreme_threshold" mapstructure:"extreme_threshold"`
	LowConfidence       float64 `json:"low_confidence_threshold" yaml:"low_confidence_threshold" mapstructure:"low_confidence_threshold"`
	MinWordsForBaseline int     `json:"min_words_for_baseline" yaml:"min_words_for_baseline" mapstructure:"min_words_for_baseline"`
}

func DefaultParams() Params {
	return Params{
		Warmup:           5,
		Window:           5,
		GradeThreshold:   0.5,
		ExtremeThreshold: 0.9,
		LowConfidence:    0.3,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.Warmup <= 0 {
		p.Warmup = d.Warmup
	}
	if p.Window <= 0 {
		p.Window = d.Window
	}
	if p.GradeThreshold <= 0 {
		p.GradeThreshold = d.GradeThreshold
	}
	if p.ExtremeThreshold <= 0 {
		p.ExtremeThreshold = d.ExtremeThreshold
	}
	if p.LowConfidence <= 0 {
		p.LowConfidence = d.LowConfidence
	}
	return p
}

var agreementTokens = map[string]bool{
	"yes": true, "yeah": true, "okay": true, "ok": true, "sure": true,
	"right": true, "alright": true, "fine": true, "yep": true, "yup": true,
}

type Measurements struct {
	WordCount     int     `json:"word_count" yaml:"word_count"`
	Confidence    float64 `json:"avg_acoustic_confidence" yaml:"avg_acoustic_confidence"`
	SpeedWPM      float64 `json:"speech_speed_wpm" yaml:"speech_speed_wpm"`
	PauseCount    int     `json:"pause_count" yaml:"pause_count"`
	PauseDuration float64 `json:"pause_duration" yaml:"pause_duration"`
	FillerCount   int     `json:"filler_count" yaml:"filler_count"`
}

// SentenceSignals is the per-sentence entry of the indicator stream.
type SentenceSignals struct {
	Index        int                  `json:"sentence_index" yaml:"sentence_index"`
	Timestamp    transcript.Timestamp `json:"timestamp" yaml:"timestamp"`
	Measurements Measurements         `json:"measurements" yaml:"measurements"`
	Indicators   []Indicator          `json:"indicators" yaml:"indicators"`
}

type Stream struct {
	ArtifactType   string            `json:"artifact_type" yaml:"artifact_type"`
	Version        string            `json:"version" yaml:"version"`
	GradeFormula   string            `json:"grade_formula" yaml:"grade_formula"`
	GradeThreshold float64           `json:"grade_threshold" yaml:"grade_threshold"`
	BaselineMethod string            `json:"baseline_method" yaml:"baseline_method"`
	Sentences      []SentenceSignals `json:"sentences" yaml:"sentences"`
}

// Builder runs the single forward pass over a call's sentences.
type Builder struct {
	params Params
	log    logrus.FieldLogger
}

func NewBuilder(p Params, log logrus.FieldLogger) *Builder {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Builder{params: p.withDefaults(), log: log}
}

func (b *Builder) Params() Params { return b.params }

// Build computes indicators for every sentence using only sentences at or
// before it. Each call starts from a fresh Tracker.
func (b *Builder) Build(sentences []transcript.Sentence) Stream {
	p := b.params
	tracker := NewTracker(p.Window)
	out := make([]SentenceSignals, 0, len(sentences))

	var prevWords *int
	lowQuality, emitted := 0, 0
	for pos, s := range sentences {
		inds, low := b.detect(pos, s, tracker, prevWords)
		for i := range inds {
			inds[i].Sentence = s.Index
		}
		out = append(out, SentenceSignals{
			Index:     s.Index,
			Timestamp: transcript.Timestamp{Start: s.Start, End: s.End},
			Measurements: Measurements{
				WordCount:     s.Speech.WordCount,
				Confidence:    round(s.Speech.Confidence, 3),
				SpeedWPM:      s.Speech.SpeedWPM,
				PauseCount:    s.Speech.PauseCount,
				PauseDuration: s.Speech.PauseDuration,
				FillerCount:   s.Speech.FillerCount,
			},
			Indicators: inds,
		})
		emitted += len(inds)

		switch {
		case low:
			lowQuality++
		case hasExtreme(inds, p.ExtremeThreshold):
		case p.MinWordsForBaseline > 0 && s.Speech.WordCount < p.MinWordsForBaseline:
		default:
			tracker.Accept(s.Speech)
		}
		wc := s.Speech.WordCount
		prevWords = &wc
	}

	b.log.WithFields(logrus.Fields{
		"sentences":   len(sentences),
		"indicators":  emitted,
		"low_quality": lowQuality,
	}).Debug("indicator stream built")

	return Stream{
		ArtifactType:   ArtifactType,
		Version:        Version,
		GradeFormula:   "|current - baseline| / baseline, capped at 1.0",
		GradeThreshold: p.GradeThreshold,
		BaselineMethod: fmt.Sprintf("rolling_average(window=%d, warmup=%d, exclude_extreme>%g)", p.Window, p.Warmup, p.ExtremeThreshold),
		Sentences:      out,
	}
}

// detect returns the indicators of one sentence and whether it was
// flagged as low data quality.
func (b *Builder) detect(pos int, s transcript.Sentence, t *Tracker, prevWords *int) ([]Indicator, bool) {
	p := b.params
	sp := s.Speech
	inds := make([]Indicator, 0, 2)

	if sp.Confidence > 0 && sp.Confidence < p.LowConfidence {
		inds = append(inds, Indicator{
			Kind:     DataQualityIssue,
			Grade:    round(clamp01(1-sp.Confidence), 2),
			Evidence: fmt.Sprintf("avg_acoustic_confidence=%.3f below threshold=%g", sp.Confidence, p.LowConfidence),
		})
		return inds, true
	}
	if pos < p.Warmup {
		return inds, false
	}

	if base, ok := t.Baseline(MetricSpeed); ok && base > 0 && sp.SpeedWPM > 0 {
		if g := Grade(sp.SpeedWPM, base); g >= p.GradeThreshold {
			inds = append(inds, Indicator{
				Kind:     SpeedDeviation,
				Grade:    round(g, 2),
				Evidence: fmt.Sprintf("speech_speed_wpm=%g %s baseline=%.1f", sp.SpeedWPM, direction(sp.SpeedWPM, base), base),
			})
		}
	}

	if ind, ok := b.increase(t, MetricPauseCount, PauseCountIncrease, "pause_count", sp.PauseCount); ok {
		inds = append(inds, ind)
	}
	if ind, ok := b.increase(t, MetricFillerCount, FillerIncrease, "filler_count", sp.FillerCount); ok {
		inds = append(inds, ind)
	}

	if base, ok := t.Baseline(MetricWordCount); ok && base > 0 && sp.WordCount > 0 {
		wc := float64(sp.WordCount)
		if g := Grade(wc, base); g >= p.GradeThreshold {
			inds = append(inds, Indicator{
				Kind:     WordCountDeviation,
				Grade:    round(g, 2),
				Evidence: fmt.Sprintf("word_count=%d %s baseline=%.1f", sp.WordCount, direction(wc, base), base),
			})
		}
	}

	if ind, ok := b.agreement(s, prevWords); ok {
		inds = append(inds, ind)
	}
	return inds, false
}

// increase grades count metrics that are only informative when they rise.
// A zero baseline uses the fixed 0.5 override.
func (b *Builder) increase(t *Tracker, m Metric, kind Kind, field string, current int) (Indicator, bool) {
	base, ok := t.Baseline(m)
	cur := float64(current)
	if !ok || cur <= base {
		return Indicator{}, false
	}
	g := 0.5
	if base > 0 {
		g = Grade(cur, base)
	}
	if g < b.params.GradeThreshold {
		return Indicator{}, false
	}
	return Indicator{
		Kind:     kind,
		Grade:    round(g, 2),
		Evidence: fmt.Sprintf("%s=%d above baseline=%.1f", field, current, base),
	}, true
}

func (b *Builder) agreement(s transcript.Sentence, prevWords *int) (Indicator, bool) {
	wc := s.Speech.WordCount
	if prevWords == nil || wc > 3 {
		return Indicator{}, false
	}
	fields := strings.Fields(strings.ToLower(s.Text))
	if len(fields) == 0 {
		return Indicator{}, false
	}
	tok := strings.TrimRight(fields[0], ".,!?")
	prev := *prevWords
	if !agreementTokens[tok] || prev < 2*wc {
		return Indicator{}, false
	}
	g := 0.5
	if wc > 0 {
		g = clamp01(float64(prev) / float64(wc*3))
	}
	if g < b.params.GradeThreshold {
		return Indicator{}, false
	}
	return Indicator{
		Kind:     AgreementPattern,
		Grade:    round(g, 2),
		Evidence: fmt.Sprintf("word_count=%d starts_with='%s' prev_word_count=%d", wc, tok, prev),
	}, true
}

func direction(current, base float64) string {
	if current > base {
		return "above"
	}
	return "below"
}

func hasExtreme(inds []Indicator, threshold float64) bool {
	for _, ind := range inds {
		if ind.Grade > threshold {
			return true
		}
	}
	return false
}
