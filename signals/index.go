package signals

import "sort"

// Index looks indicators up by sentence index.
type Index struct {
	bySentence map[int][]Indicator
}

func NewIndex(stream Stream) *Index {
	idx := &Index{bySentence: make(map[int][]Indicator, len(stream.Sentences))}
	for _, s := range stream.Sentences {
		idx.bySentence[s.Index] = append(idx.bySentence[s.Index], s.Indicators...)
	}
	return idx
}

func (x *Index) At(i int) []Indicator { return x.bySentence[i] }

// Has reports whether sentence i carries any of the given kinds.
func (x *Index) Has(i int, kinds ...Kind) bool {
	return len(x.Matching(i, kinds...)) > 0
}

// Matching returns the kinds from the list present at sentence i, in the
// order they were emitted.
func (x *Index) Matching(i int, kinds ...Kind) []Kind {
	var out []Kind
	for _, ind := range x.bySentence[i] {
		for _, k := range kinds {
			if ind.Kind == k {
				out = append(out, k)
				break
			}
		}
	}
	return out
}

// Sentences returns the sorted indices carrying any of the given kinds.
func (x *Index) Sentences(kinds ...Kind) []int {
	var out []int
	for i := range x.bySentence {
		if x.Has(i, kinds...) {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}
