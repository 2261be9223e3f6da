package service

import (
	"strings"
)

// Score is a bounded similarity in [0,1] plus the signal that produced it.
type Score struct {
	Value     float64 `json:"value"`
	MatchedOn string  `json:"matchedOn"` // "name" | "code"
}

// Weights of the two name signals. Token overlap is weighted higher when both
// names have at least two tokens: it survives word reordering and partial
// abbreviation, which character distance punishes hard.
const (
	weightCharDefault   = 0.5
	weightCharMulti     = 0.4
	minTokensForReweigh = 2
)

// ScoreStrings compares a query name against a candidate name, with optional
// SKU/code values for both sides.
//
// An exact code match (case/space normalized, both non-empty) short-circuits
// to {1.0, "code"} regardless of name dissimilarity. Otherwise the value is a
// weighted blend of normalized Damerau-Levenshtein similarity and token-set
// Jaccard overlap over the normalized names. Empty names score 0.
func ScoreStrings(query, candidate, querySku, candidateSku string) Score {
	if skuEqual(querySku, candidateSku) {
		return Score{Value: 1.0, MatchedOn: "code"}
	}

	qn := Normalize(query)
	cn := Normalize(candidate)
	if qn == "" || cn == "" {
		return Score{Value: 0, MatchedOn: "name"}
	}

	char := charSimilarity(qn, cn)
	token := tokenSimilarity(qn, cn)

	wc := weightCharDefault
	if len(strings.Fields(qn)) >= minTokensForReweigh && len(strings.Fields(cn)) >= minTokensForReweigh {
		wc = weightCharMulti
	}
	v := wc*char + (1-wc)*token
	return Score{Value: clamp01(v), MatchedOn: "name"}
}

// skuEqual: both codes present and equal after normalization.
func skuEqual(a, b string) bool {
	an := Normalize(a)
	bn := Normalize(b)
	return an != "" && an == bn
}

// charSimilarity = 1 − distance / max(len) on runes, in [0,1].
func charSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	m := len([]rune(a))
	if lb := len([]rune(b)); lb > m {
		m = lb
	}
	if m == 0 {
		return 1
	}
	return 1 - float64(damerauLevenshtein(a, b))/float64(m)
}

// tokenSimilarity is Jaccard overlap of the unique token sets.
func tokenSimilarity(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
