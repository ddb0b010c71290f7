package markers

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/auditx/auditx-pipeline/transcript"
)

// Amount bands and sensitivities produced by the financial-context stage.
const (
	BandLow      = "low"
	BandNormal   = "normal"
	BandModerate = "moderate"
	BandElevated = "elevated"
	BandHigh     = "high"
	Unknown      = "unknown"
)

type Amount struct {
	Band  string   `json:"band" yaml:"band"`
	Value *float64 `json:"value" yaml:"value"`
}

type Product struct {
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Sensitivity string `json:"sensitivity" yaml:"sensitivity"`
}

type Customer struct {
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
	Priority string `json:"priority" yaml:"priority"`
}

// FinancialContext is one snapshot of the call's financial classification.
type FinancialContext struct {
	CallID   string   `json:"call_id,omitempty"`
	AgentID  string   `json:"agent_id,omitempty"`
	Amount   Amount   `json:"amount"`
	Product  Product  `json:"product"`
	Customer Customer `json:"customer"`
}

func (c FinancialContext) AmountBand() string {
	if c.Amount.Band == "" {
		return Unknown
	}
	return c.Amount.Band
}

func (c FinancialContext) ProductSensitivity() string {
	if c.Product.Sensitivity == "" {
		return Unknown
	}
	return c.Product.Sensitivity
}

// Change re-injects part of the context from a sentence onwards.
type Change struct {
	FromSentence int      `json:"from_sentence"`
	Amount       *Amount  `json:"amount,omitempty"`
	Product      *Product `json:"product,omitempty"`
}

// Timeline is the base snapshot plus mid-call changes ordered by sentence.
type Timeline struct {
	Base    FinancialContext
	Changes []Change
}

func NewTimeline(base FinancialContext, changes ...Change) Timeline {
	cs := append([]Change(nil), changes...)
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].FromSentence < cs[j].FromSentence })
	return Timeline{Base: base, Changes: cs}
}

// At returns the context in effect at sentence i.
func (t Timeline) At(i int) FinancialContext {
	c := t.Base
	for _, ch := range t.Changes {
		if ch.FromSentence > i {
			break
		}
		if ch.Amount != nil {
			c.Amount = *ch.Amount
		}
		if ch.Product != nil {
			c.Product = *ch.Product
		}
	}
	return c
}

type contextDocument struct {
	Context *struct {
		FinancialContext
		Changes []Change `json:"changes"`
	} `json:"context"`
}

type bareContext struct {
	FinancialContext
	Changes []Change `json:"changes"`
}

// ParseContext accepts {"context":{...}} or the bare context object.
func ParseContext(data []byte) (Timeline, error) {
	var doc contextDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return Timeline{}, fmt.Errorf("context decode: %w", err)
	}
	if doc.Context != nil {
		return NewTimeline(doc.Context.FinancialContext, doc.Context.Changes...), nil
	}
	var bare bareContext
	if err := json.Unmarshal(data, &bare); err != nil {
		return Timeline{}, fmt.Errorf("context decode: %w", err)
	}
	return NewTimeline(bare.FinancialContext, bare.Changes...), nil
}

func LoadContext(path string) (Timeline, error) {
	var raw json.RawMessage
	if err := transcript.ReadJSON(path, &raw); err != nil {
		return Timeline{}, err
	}
	return ParseContext(raw)
}
