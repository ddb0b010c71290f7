// Package markers indexes the externally extracted text markers of a call
// by sentence.
package markers

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/auditx/auditx-pipeline/transcript"
)

// Marker types and categories emitted by the text-extraction stage.
const (
	TypeFinancialEntity    = "financial_entity"
	TypeProductReference   = "product_reference"
	TypeSalesPrompt        = "sales_prompt"
	TypeUrgencyLanguage    = "urgency_language"
	TypeCustomerCommitment = "customer_commitment"
	TypeRegulatoryPrompt   = "regulatory_prompt"
	TypePotentialPII       = "potential_pii"

	CategoryCurrencyAmount = "currency_amount"
	CategoryPhonePattern   = "phone_pattern"
	CategoryAccountPattern = "account_pattern"
)

type Marker struct {
	Type        string `json:"type"`
	Category    string `json:"category,omitempty"`
	MatchedText string `json:"matched_text,omitempty"`
	Position    *int   `json:"position,omitempty"`
	Evidence    string `json:"evidence,omitempty"`
	Sentence    int    `json:"-"`
}

type sentenceMarkers struct {
	Index   int      `json:"sentence_index"`
	Markers []Marker `json:"markers"`
}

type document struct {
	Sentences []sentenceMarkers `json:"sentences"`
}

// Index holds every marker of a call keyed by sentence index.
type Index struct {
	bySentence map[int][]Marker
	span       int
}

func NewIndex(ms []Marker) *Index {
	x := &Index{bySentence: make(map[int][]Marker)}
	for _, m := range ms {
		if m.Sentence < 0 {
			continue
		}
		x.bySentence[m.Sentence] = append(x.bySentence[m.Sentence], m)
		x.span = max(x.span, m.Sentence+1)
	}
	return x
}

// Parse decodes {"sentences":[{"sentence_index":i,"markers":[...]}]}.
func Parse(data []byte) (*Index, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("markers decode: %w", err)
	}
	var all []Marker
	for _, s := range doc.Sentences {
		for _, m := range s.Markers {
			m.Sentence = s.Index
			all = append(all, m)
		}
	}
	return NewIndex(all), nil
}

func Load(path string) (*Index, error) {
	var raw json.RawMessage
	if err := transcript.ReadJSON(path, &raw); err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Span is one past the highest sentence index carrying a marker.
func (x *Index) Span() int { return x.span }

func (x *Index) At(i int) []Marker { return x.bySentence[i] }

func (x *Index) HasType(i int, types ...string) bool {
	for _, m := range x.bySentence[i] {
		for _, t := range types {
			if m.Type == t {
				return true
			}
		}
	}
	return false
}

func (x *Index) HasCategory(i int, category string) bool {
	for _, m := range x.bySentence[i] {
		if m.Category == category {
			return true
		}
	}
	return false
}

// Sentences returns the sorted indices holding a marker of one of types.
func (x *Index) Sentences(types ...string) []int {
	var out []int
	for i := range x.bySentence {
		if x.HasType(i, types...) {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}

// WithCategory returns the sorted indices holding a marker of category.
func (x *Index) WithCategory(category string) []int {
	var out []int
	for i := range x.bySentence {
		if x.HasCategory(i, category) {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}

// MostSpecific picks, among the markers at sentence i accepted by keep, the
// one with the longest matched text. Ties go to the earliest position, then
// to input order.
func (x *Index) MostSpecific(i int, keep func(Marker) bool) (Marker, bool) {
	var best Marker
	found := false
	for _, m := range x.bySentence[i] {
		if !keep(m) {
			continue
		}
		if !found || moreSpecific(m, best) {
			best, found = m, true
		}
	}
	return best, found
}

func moreSpecific(a, b Marker) bool {
	if len(a.MatchedText) != len(b.MatchedText) {
		return len(a.MatchedText) > len(b.MatchedText)
	}
	if a.Position != nil && b.Position != nil {
		return *a.Position < *b.Position
	}
	return a.Position != nil && b.Position == nil
}
