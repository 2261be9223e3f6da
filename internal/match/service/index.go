package service

import (
	"pricematch-service/internal/match/model"
)

// blockIndex is a trigram inverted index over normalized candidate names.
// Used only as an opt-in pre-filter for large catalogues: candidates sharing
// no trigram with the query are skipped before scoring. Ranking of surviving
// candidates is untouched.
type blockIndex struct {
	inv map[string][]int // trigram -> candidate positions
}

func buildBlockIndex(cands []model.CatalogueCandidate, norms []string) *blockIndex {
	idx := &blockIndex{inv: make(map[string][]int)}
	for i := range cands {
		if norms[i] == "" {
			continue
		}
		for g := range trigramSet(norms[i]) {
			idx.inv[g] = append(idx.inv[g], i)
		}
	}
	return idx
}

// candidatePositions returns the union of candidate positions sharing at
// least one trigram with the normalized query, as a membership set.
func (idx *blockIndex) candidatePositions(norm string) map[int]struct{} {
	seen := make(map[int]struct{})
	for g := range trigramSet(norm) {
		for _, i := range idx.inv[g] {
			seen[i] = struct{}{}
		}
	}
	return seen
}

// trigramSet pads the string with one space on each side so short names and
// word boundaries still produce grams.
func trigramSet(s string) map[string]struct{} {
	m := make(map[string]struct{})
	if s == "" {
		return m
	}
	p := " " + s + " "
	r := []rune(p)
	if len(r) < 3 {
		m[p] = struct{}{}
		return m
	}
	for i := 0; i <= len(r)-3; i++ {
		m[string(r[i:i+3])] = struct{}{}
	}
	return m
}
