package signals

import "math"

// Kind is the closed set of indicator names.
type Kind string

const (
	DataQualityIssue   Kind = "data_quality_issue"
	SpeedDeviation     Kind = "speed_deviation"
	PauseCountIncrease Kind = "pause_count_increase"
	FillerIncrease     Kind = "filler_increase"
	WordCountDeviation Kind = "word_count_deviation"
	AgreementPattern   Kind = "agreement_pattern"
)

// Indicator is a graded deviation flag attached to one sentence.
type Indicator struct {
	Kind     Kind    `json:"indicator" yaml:"indicator"`
	Grade    float64 `json:"grade" yaml:"grade"`
	Evidence string  `json:"evidence" yaml:"evidence"`
	Sentence int     `json:"-" yaml:"-"`
}

// Grade is |current-baseline|/baseline clamped to [0,1]. A non-positive
// baseline yields 0.
func Grade(current, baseline float64) float64 {
	if baseline <= 0 {
		return 0
	}
	return clamp01(math.Abs(current-baseline) / baseline)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
