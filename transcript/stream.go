package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type rawSentence struct {
	Index     *int    `json:"sentence_index"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Text      string  `json:"text"`
	SpeakerID string  `json:"speaker_id"`
	Speech    Speech  `json:"speech"`
}

type rawStream struct {
	Sentences []rawSentence `json:"sentences"`
}

// Parse decodes a sentence stream given either as {"sentences":[...]} or
// as a bare array. Sentences without an explicit sentence_index take their
// position.
func Parse(data []byte) ([]Sentence, error) {
	var raws []rawSentence
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, fmt.Errorf("sentences decode: %w", err)
		}
	} else {
		var doc rawStream
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("sentences decode: %w", err)
		}
		raws = doc.Sentences
	}

	out := make([]Sentence, 0, len(raws))
	for i, r := range raws {
		idx := i
		if r.Index != nil {
			idx = *r.Index
		}
		out = append(out, Sentence{
			Index:     idx,
			Start:     r.Start,
			End:       r.End,
			Text:      r.Text,
			SpeakerID: r.SpeakerID,
			Speech:    r.Speech,
		})
	}
	return out, nil
}

// Load reads a sentence stream file of any supported encoding.
func Load(path string) ([]Sentence, error) {
	var raw json.RawMessage
	if err := ReadJSON(path, &raw); err != nil {
		return nil, err
	}
	return Parse(raw)
}
