// Package transcript holds the sentence stream produced by the upstream
// transcription stage and the helpers that read it.
package transcript

// Speech is the per-sentence measurement set. Zero values are the
// "unknown" sentinels for confidence, speed and word count.
type Speech struct {
	WordCount     int     `json:"word_count" yaml:"word_count"`
	Confidence    float64 `json:"confidence" yaml:"confidence"`
	SpeedWPM      float64 `json:"speed_wpm" yaml:"speed_wpm"`
	PauseCount    int     `json:"pause_count" yaml:"pause_count"`
	PauseDuration float64 `json:"pause_duration" yaml:"pause_duration"`
	FillerCount   int     `json:"filler_count" yaml:"filler_count"`
}

type Sentence struct {
	Index     int     `json:"sentence_index"`
	Start     float64 `json:"start"` // sec
	End       float64 `json:"end"`   // sec
	Text      string  `json:"text"`
	SpeakerID string  `json:"speaker_id,omitempty"`
	Speech    Speech  `json:"speech"`
}

// Speaker returns the diarized speaker or "unknown".
func (s Sentence) Speaker() string {
	if s.SpeakerID == "" {
		return "unknown"
	}
	return s.SpeakerID
}

// Timestamp is the {start,end} pair carried by indicators and events.
type Timestamp struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

// At returns the timestamp of sentence idx, or a zero range when idx is
// outside the stream.
func At(sentences []Sentence, idx int) Timestamp {
	if idx < 0 || idx >= len(sentences) {
		return Timestamp{}
	}
	return Timestamp{Start: sentences[idx].Start, End: sentences[idx].End}
}
