package markers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pos(i int) *int { return &i }

func TestParse(t *testing.T) {
	idx, err := Parse([]byte(`{"sentences":[
		{"sentence_index":2,"markers":[{"type":"financial_entity","category":"currency_amount","matched_text":"$20","evidence":"currency '$20' at position 4"}]},
		{"sentence_index":9,"markers":[{"type":"customer_commitment","matched_text":"i agree"}]}
	]}`))
	require.NoError(t, err)

	assert.Equal(t, 10, idx.Span())
	assert.True(t, idx.HasType(2, TypeFinancialEntity))
	assert.True(t, idx.HasCategory(2, CategoryCurrencyAmount))
	assert.False(t, idx.HasType(3, TypeFinancialEntity))
	assert.True(t, idx.HasType(9, TypeRegulatoryPrompt, TypeCustomerCommitment))
	assert.Equal(t, 9, idx.At(9)[0].Sentence)
	assert.Equal(t, []int{9}, idx.Sentences(TypeCustomerCommitment))
	assert.Equal(t, []int{2}, idx.WithCategory(CategoryCurrencyAmount))
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte(`{"sentences":{}}`))
	assert.ErrorContains(t, err, "markers decode")
}

func TestMostSpecific(t *testing.T) {
	idx := NewIndex([]Marker{
		{Type: TypePotentialPII, Category: "numeric_sequence", MatchedText: "5551234567", Sentence: 3},
		{Type: TypePotentialPII, Category: CategoryPhonePattern, MatchedText: "555 123", Position: pos(9), Sentence: 3},
		{Type: TypePotentialPII, Category: CategoryAccountPattern, MatchedText: "1234-5678", Position: pos(20), Sentence: 3},
		{Type: TypePotentialPII, Category: CategoryPhonePattern, MatchedText: "555-123-4", Position: pos(2), Sentence: 3},
	})

	pii := func(m Marker) bool {
		return m.Category == CategoryPhonePattern || m.Category == CategoryAccountPattern
	}
	got, ok := idx.MostSpecific(3, pii)
	require.True(t, ok)
	// "1234-5678" and "555-123-4" tie on length; the earlier position wins
	assert.Equal(t, "555-123-4", got.MatchedText)

	_, ok = idx.MostSpecific(4, pii)
	assert.False(t, ok)
}

func TestTimeline_At(t *testing.T) {
	normal := Amount{Band: BandNormal}
	tl := NewTimeline(
		FinancialContext{Amount: Amount{Band: BandLow}, Product: Product{Sensitivity: "standard"}},
		Change{FromSentence: 10, Product: &Product{Type: "loan", Sensitivity: "high"}},
		Change{FromSentence: 5, Amount: &normal},
	)

	assert.Equal(t, BandLow, tl.At(0).AmountBand())
	assert.Equal(t, BandNormal, tl.At(5).AmountBand())
	assert.Equal(t, "standard", tl.At(9).ProductSensitivity())
	assert.Equal(t, "high", tl.At(12).ProductSensitivity())
	assert.Equal(t, BandNormal, tl.At(12).AmountBand())
}

func TestParseContext(t *testing.T) {
	wrapped := []byte(`{"artifact_type":"financial_context","context":{"call_id":"CALL-1","amount":{"band":"low","value":20},"product":{"type":"subscription","sensitivity":"standard"},"customer":{"type":"new","priority":"standard"}}}`)
	tl, err := ParseContext(wrapped)
	require.NoError(t, err)
	assert.Equal(t, "CALL-1", tl.Base.CallID)
	assert.Equal(t, BandLow, tl.At(0).AmountBand())
	require.NotNil(t, tl.Base.Amount.Value)
	assert.Equal(t, 20.0, *tl.Base.Amount.Value)

	bare := []byte(`{"amount":{"band":"elevated"},"changes":[{"from_sentence":3,"amount":{"band":"low"}}]}`)
	tl, err = ParseContext(bare)
	require.NoError(t, err)
	assert.Equal(t, BandElevated, tl.At(2).AmountBand())
	assert.Equal(t, BandLow, tl.At(3).AmountBand())
	assert.Equal(t, Unknown, tl.At(3).ProductSensitivity())
}

func TestParseContext_Empty(t *testing.T) {
	tl, err := ParseContext([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, Unknown, tl.At(0).AmountBand())
}
