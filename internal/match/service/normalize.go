package service

import (
	"strings"

	"golang.org/x/text/cases"
)

// === Normalize: the canonicalization pipeline ===
//
// Pure, total and idempotent: Normalize(Normalize(x)) == Normalize(x).
// Rules, in order: trim, collapse whitespace runs, case-fold.
// Folding is locale-insensitive on purpose: source names arrive in any
// language and lowering must not corrupt non-ASCII letters. Punctuation and
// diacritics stay, since they carry meaning; stripping them is a scorer concern,
// not a normalizer concern.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	out := strings.TrimSpace(s)
	out = collapseSpaces(out)
	// a Caser is stateful and not goroutine-safe; build one per call
	out = cases.Fold().String(out)
	return out
}

// collapseSpaces reduces every whitespace run (incl. tabs, NBSP) to one space.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// tokenSet splits a normalized name into its unique whitespace tokens.
func tokenSet(s string) map[string]struct{} {
	m := make(map[string]struct{})
	for _, f := range strings.Fields(s) {
		m[f] = struct{}{}
	}
	return m
}
