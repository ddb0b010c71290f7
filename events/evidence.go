package events

import "encoding/json"

// Evidence sources as they appear on the wire.
const (
	SourceTextMarkers = "TextEXT"
	SourceIndicators  = "Interpret"
	SourceContext     = "FinContext"
)

// Evidence is one entry of an event's evidence list. The set of
// implementations is closed: MarkerEvidence, IndicatorEvidence and
// ContextEvidence.
type Evidence interface {
	Source() string
	evidence()
}

// MarkerEvidence cites a text marker.
type MarkerEvidence struct {
	Marker    string `json:"marker" yaml:"marker"`
	Category  string `json:"category,omitempty" yaml:"category,omitempty"`
	Matched   string `json:"matched,omitempty" yaml:"matched,omitempty"`
	Sentence  *int   `json:"sentence,omitempty" yaml:"sentence,omitempty"`
	Sentences []int  `json:"sentences,omitempty" yaml:"sentences,omitempty"`
}

// IndicatorEvidence cites behavioral indicators. Indicator is either a
// concrete indicator kind or a group label such as "behavioral_hesitation",
// in which case Matched lists the kinds that satisfied it.
type IndicatorEvidence struct {
	Indicator string   `json:"indicator" yaml:"indicator"`
	Sentence  *int     `json:"sentence,omitempty" yaml:"sentence,omitempty"`
	Sentences []int    `json:"sentences,omitempty" yaml:"sentences,omitempty"`
	Matched   []string `json:"matched_indicators,omitempty" yaml:"matched_indicators,omitempty"`
}

// ContextEvidence cites the financial context.
type ContextEvidence struct {
	AmountBand         string `json:"amount_band,omitempty" yaml:"amount_band,omitempty"`
	ProductSensitivity string `json:"product_sensitivity,omitempty" yaml:"product_sensitivity,omitempty"`
}

func (MarkerEvidence) Source() string    { return SourceTextMarkers }
func (IndicatorEvidence) Source() string { return SourceIndicators }
func (ContextEvidence) Source() string   { return SourceContext }

func (MarkerEvidence) evidence()    {}
func (IndicatorEvidence) evidence() {}
func (ContextEvidence) evidence()   {}

func (e MarkerEvidence) MarshalJSON() ([]byte, error) {
	type alias MarkerEvidence
	return json.Marshal(struct {
		Source string `json:"source"`
		alias
	}{e.Source(), alias(e)})
}

func (e IndicatorEvidence) MarshalJSON() ([]byte, error) {
	type alias IndicatorEvidence
	return json.Marshal(struct {
		Source string `json:"source"`
		alias
	}{e.Source(), alias(e)})
}

func (e ContextEvidence) MarshalJSON() ([]byte, error) {
	type alias ContextEvidence
	return json.Marshal(struct {
		Source string `json:"source"`
		alias
	}{e.Source(), alias(e)})
}

func (e MarkerEvidence) MarshalYAML() (any, error) {
	type alias MarkerEvidence
	return struct {
		Source string `yaml:"source"`
		alias  `yaml:",inline"`
	}{e.Source(), alias(e)}, nil
}

func (e IndicatorEvidence) MarshalYAML() (any, error) {
	type alias IndicatorEvidence
	return struct {
		Source string `yaml:"source"`
		alias  `yaml:",inline"`
	}{e.Source(), alias(e)}, nil
}

func (e ContextEvidence) MarshalYAML() (any, error) {
	type alias ContextEvidence
	return struct {
		Source string `yaml:"source"`
		alias  `yaml:",inline"`
	}{e.Source(), alias(e)}, nil
}

// At is a convenience for single-sentence evidence.
func At(i int) *int { return &i }
