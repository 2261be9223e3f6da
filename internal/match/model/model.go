package model

import (
	"github.com/shopspring/decimal"
)

// Confidence is a discrete bucket derived from a continuous similarity score.
// It gates automatic acceptance: only EXACT and HIGH are safe to link without
// a human looking at the suggestion.
type Confidence string

const (
	ConfidenceExact  Confidence = "EXACT"
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
	ConfidenceNone   Confidence = "NONE"
)

// AutoAcceptable reports whether a tier clears the auto-match safety bar.
func (c Confidence) AutoAcceptable() bool {
	return c == ConfidenceExact || c == ConfidenceHigh
}

// Thresholds maps a raw score onto a confidence tier. Lifted into config
// because call sites tune these independently of the code.
type Thresholds struct {
	Exact  float64 `json:"exact"`
	High   float64 `json:"high"`
	Medium float64 `json:"medium"`
	Low    float64 `json:"low"`
}

// DefaultThresholds are the tiers the dashboard runs with.
func DefaultThresholds() Thresholds {
	return Thresholds{Exact: 0.95, High: 0.80, Medium: 0.60, Low: 0.35}
}

// Tier buckets a score. Anything below Low is NONE and gets dropped from
// suggestion lists entirely.
func (t Thresholds) Tier(score float64) Confidence {
	switch {
	case score >= t.Exact:
		return ConfidenceExact
	case score >= t.High:
		return ConfidenceHigh
	case score >= t.Medium:
		return ConfidenceMedium
	case score >= t.Low:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}

// Options configures one matching run.
type Options struct {
	Thresholds     Thresholds `json:"thresholds"`
	TopK           int        `json:"topK"`           // suggestions kept per query item
	UseSku         bool       `json:"useSku"`         // allow exact-code short-circuit
	EnableBlocking bool       `json:"enableBlocking"` // trigram pre-filter for large catalogues
}

// DefaultOptions returns the run configuration used when the caller sends none.
func DefaultOptions() Options {
	return Options{
		Thresholds: DefaultThresholds(),
		TopK:       3,
		UseSku:     true,
	}
}

// CatalogueCandidate is one catalogue product considered as a possible match.
// Immutable for the duration of a matching run; the price currency is supplied
// by the caller per comparison, not stored here.
type CatalogueCandidate struct {
	ID          string          `json:"id"`
	ProductName string          `json:"productName"`
	Code        string          `json:"code,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Unit        string          `json:"unit,omitempty"`
	Category    string          `json:"category,omitempty"`
}

// QueryItem is one structured row extracted from a receipt or invoice.
// RowIndex is 1-based and ties results back to the source document.
type QueryItem struct {
	RowIndex    int             `json:"rowIndex"`
	ProductName string          `json:"productName"`
	Code        string          `json:"code,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	Unit        string          `json:"unit,omitempty"`
}

// MatchSuggestion is one ranked candidate for a query item.
// MatchedOn names the signal that drove the score: "name" or "code".
type MatchSuggestion struct {
	Candidate  CatalogueCandidate `json:"candidate"`
	Score      float64            `json:"score"`
	Confidence Confidence         `json:"confidence"`
	MatchedOn  string             `json:"matchedOn"`
}

// MatchResult holds the ranked suggestions for one query item.
// Invariant: AutoMatched ⇒ BestMatch != nil and BestMatch tier is EXACT or HIGH.
type MatchResult struct {
	QueryItem   QueryItem         `json:"queryItem"`
	Suggestions []MatchSuggestion `json:"suggestions"`
	BestMatch   *MatchSuggestion  `json:"bestMatch,omitempty"`
	AutoMatched bool              `json:"autoMatched"`
	Skipped     bool              `json:"skipped,omitempty"` // blank product name, excluded from matching
}

// RowMapping names the columns of a loosely-typed extracted row. It is a
// closed record: unknown keys in the JSON payload are rejected at the
// boundary. Each key supports alternatives separated by "|"
// (e.g. "Description|Item|Product").
type RowMapping struct {
	NameKey  string `json:"nameKey"`
	CodeKey  string `json:"codeKey,omitempty"`
	QtyKey   string `json:"qtyKey,omitempty"`
	PriceKey string `json:"priceKey,omitempty"`
	TotalKey string `json:"totalKey,omitempty"`
	UnitKey  string `json:"unitKey,omitempty"`
	UseCode  bool   `json:"useCode"`
}
