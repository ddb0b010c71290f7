package clients

import (
	"context"

	"github.com/auditx/auditx-pipeline/markers"
	"github.com/auditx/auditx-pipeline/transcript"
)

// --- Marker extraction (/extract) ---
type ExtractSentence struct {
	Index int    `json:"sentence_index"`
	Text  string `json:"text"`
}
type ExtractReq struct {
	Sentences []ExtractSentence `json:"sentences"`
}

// ExtractMarkers sends the sentence texts to the extraction service and
// indexes the returned marker document.
func (h *HTTP) ExtractMarkers(ctx context.Context, url string, sents []transcript.Sentence) (*markers.Index, error) {
	req := ExtractReq{Sentences: make([]ExtractSentence, 0, len(sents))}
	for _, s := range sents {
		req.Sentences = append(req.Sentences, ExtractSentence{Index: s.Index, Text: s.Text})
	}
	body, err := h.postJSON(ctx, "extract", url+"/extract", "", req)
	if err != nil {
		return nil, err
	}
	return markers.Parse(body)
}
