package clients

import (
	"context"
	"encoding/json"
	"fmt"
)

// --- LLM completion (/complete) ---
type CompletionReq struct {
	Model  string `json:"model,omitempty"`
	System string `json:"system,omitempty"`
	Prompt string `json:"prompt"`
}
type CompletionResp struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

// Complete returns the model's raw text for one prompt.
func (h *HTTP) Complete(ctx context.Context, url, apiKey string, req CompletionReq) (*CompletionResp, error) {
	body, err := h.postJSON(ctx, "complete", url+"/complete", apiKey, req)
	if err != nil {
		return nil, err
	}
	var out CompletionResp
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("complete decode: %w", err)
	}
	return &out, nil
}
