package signals

import "github.com/auditx/auditx-pipeline/transcript"

// Metric identifies one rolling baseline.
type Metric int

const (
	MetricSpeed Metric = iota
	MetricPauseCount
	MetricConfidence
	MetricWordCount
	MetricFillerCount
	numMetrics
)

func (m Metric) String() string {
	switch m {
	case MetricSpeed:
		return "speed"
	case MetricPauseCount:
		return "pause_count"
	case MetricConfidence:
		return "confidence"
	case MetricWordCount:
		return "word_count"
	case MetricFillerCount:
		return "filler_count"
	default:
		return "unknown"
	}
}

// Baseline keeps the last `window` accepted values of a metric.
type Baseline struct {
	window  int
	history []float64
}

func NewBaseline(window int) Baseline {
	return Baseline{window: window, history: make([]float64, 0, window)}
}

// Accept appends v, evicting the oldest value once the window is full.
func (b *Baseline) Accept(v float64) {
	if len(b.history) == b.window {
		copy(b.history, b.history[1:])
		b.history = b.history[:len(b.history)-1]
	}
	b.history = append(b.history, v)
}

// Value is the mean of the history; ok is false while it is empty.
func (b *Baseline) Value() (mean float64, ok bool) {
	if len(b.history) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range b.history {
		sum += v
	}
	return sum / float64(len(b.history)), true
}

func (b *Baseline) Len() int { return len(b.history) }

// Tracker owns one Baseline per metric for the duration of a single call.
// It is never shared between calls.
type Tracker struct {
	baselines [numMetrics]Baseline
}

func NewTracker(window int) *Tracker {
	t := &Tracker{}
	for m := range t.baselines {
		t.baselines[m] = NewBaseline(window)
	}
	return t
}

func (t *Tracker) Baseline(m Metric) (float64, bool) {
	return t.baselines[m].Value()
}

// Accept records one sentence's raw measurements. Speed, confidence and
// word count treat 0 as unknown and skip it; pause and filler counts take
// 0 as a genuine observation.
func (t *Tracker) Accept(sp transcript.Speech) {
	if sp.SpeedWPM > 0 {
		t.baselines[MetricSpeed].Accept(sp.SpeedWPM)
	}
	t.baselines[MetricPauseCount].Accept(float64(sp.PauseCount))
	if sp.Confidence > 0 {
		t.baselines[MetricConfidence].Accept(sp.Confidence)
	}
	if sp.WordCount > 0 {
		t.baselines[MetricWordCount].Accept(float64(sp.WordCount))
	}
	t.baselines[MetricFillerCount].Accept(float64(sp.FillerCount))
}
