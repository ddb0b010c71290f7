package interpret

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/auditx/auditx-pipeline/clients"
	"github.com/auditx/auditx-pipeline/events"
)

// Completer is the LLM completion transport.
type Completer interface {
	Complete(ctx context.Context, url, apiKey string, req clients.CompletionReq) (*clients.CompletionResp, error)
}

const systemPrompt = "You are a compliance analyst reviewing customer service calls. " +
	"You answer with a single JSON object and nothing else."

// LLM explains events through a completion service.
type LLM struct {
	client  Completer
	url     string
	apiKey  string
	model   string
	limiter *rate.Limiter
}

// NewLLM builds an explainer allowing at most one request per interval.
// A zero interval disables rate limiting.
func NewLLM(client Completer, url, apiKey, model string, interval time.Duration) *LLM {
	lim := rate.NewLimiter(rate.Inf, 1)
	if interval > 0 {
		lim = rate.NewLimiter(rate.Every(interval), 1)
	}
	return &LLM{client: client, url: url, apiKey: apiKey, model: model, limiter: lim}
}

func (l *LLM) Name() string { return "llm/" + l.model }

func (l *LLM) Explain(ctx context.Context, ev events.Event, excerpt string) (events.Analysis, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return events.Analysis{}, fmt.Errorf("rate limiter: %w", err)
	}
	prompt, err := Prompt(ev, excerpt)
	if err != nil {
		return events.Analysis{}, err
	}
	resp, err := l.client.Complete(ctx, l.url, l.apiKey, clients.CompletionReq{
		Model:  l.model,
		System: systemPrompt,
		Prompt: prompt,
	})
	if err != nil {
		return events.Analysis{}, err
	}
	return ParseAnalysis(resp.Text)
}

// Prompt renders the analysis request for one event.
func Prompt(ev events.Event, excerpt string) (string, error) {
	evidence, err := json.MarshalIndent(ev.Evidence, "", "  ")
	if err != nil {
		return "", fmt.Errorf("prompt evidence: %w", err)
	}
	fctx, err := json.MarshalIndent(ev.FinancialContext, "", "  ")
	if err != nil {
		return "", fmt.Errorf("prompt context: %w", err)
	}
	if excerpt == "" {
		excerpt = "Not provided"
	}
	explanation := ev.Explanation
	if explanation == "" {
		explanation = "No explanation provided"
	}

	var b strings.Builder
	b.WriteString("Analyze this detected event from a customer service call:\n\n")
	fmt.Fprintf(&b, "EVENT TYPE: %s\n", ev.Type)
	fmt.Fprintf(&b, "TIMESTAMP: start=%.2fs end=%.2fs\n", ev.Timestamp.Start, ev.Timestamp.End)
	fmt.Fprintf(&b, "EVIDENCE: %s\n", evidence)
	fmt.Fprintf(&b, "EXPLANATION: %s\n", explanation)
	fmt.Fprintf(&b, "FINANCIAL CONTEXT: %s\n\n", fctx)
	fmt.Fprintf(&b, "TRANSCRIPT CONTEXT:\n%s\n\n", excerpt)
	b.WriteString(`Please provide your analysis in this exact JSON format:
{
    "summary": "One sentence human-readable explanation of what happened",
    "risk_level": "low|medium|high",
    "recommended_action": "Specific action for the compliance/customer service team",
    "confidence": 0.0-1.0
}

Respond ONLY with the JSON, no additional text.`)
	return b.String(), nil
}

var ErrMalformed = errors.New("malformed analysis")

type rawAnalysis struct {
	Summary           string   `json:"summary"`
	RiskLevel         string   `json:"risk_level"`
	RecommendedAction string   `json:"recommended_action"`
	Confidence        *float64 `json:"confidence"`
}

// ParseAnalysis decodes a model reply, optionally wrapped in a ``` fence.
// Replies missing a field, with an unknown risk level or with confidence
// outside [0,1] are rejected with ErrMalformed.
func ParseAnalysis(text string) (events.Analysis, error) {
	text = stripFence(strings.TrimSpace(text))

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return events.Analysis{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	switch {
	case raw.Summary == "", raw.RecommendedAction == "":
		return events.Analysis{}, fmt.Errorf("%w: missing summary or recommended_action", ErrMalformed)
	case raw.Confidence == nil:
		return events.Analysis{}, fmt.Errorf("%w: missing confidence", ErrMalformed)
	case *raw.Confidence < 0 || *raw.Confidence > 1:
		return events.Analysis{}, fmt.Errorf("%w: confidence %g out of range", ErrMalformed, *raw.Confidence)
	}
	switch raw.RiskLevel {
	case events.RiskLow, events.RiskMedium, events.RiskHigh:
	default:
		return events.Analysis{}, fmt.Errorf("%w: risk_level %q", ErrMalformed, raw.RiskLevel)
	}
	return events.Analysis{
		Summary:           raw.Summary,
		RiskLevel:         raw.RiskLevel,
		RecommendedAction: raw.RecommendedAction,
		Confidence:        *raw.Confidence,
		Source:            events.SourceLLM,
	}, nil
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	// drop the opening line (``` or ```json) and a closing fence if present
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}
