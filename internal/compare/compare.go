// Package compare turns a linked pairing (document row ↔ catalogue product)
// into a classified price discrepancy, and aggregates discrepancies across a
// document.
//
// All money values are shopspring/decimal. Intermediate arithmetic keeps full
// precision; rounding to two decimals happens only at the output boundary
// (Rounded / Summarize) so errors do not compound across a document.
package compare

import (
	"github.com/shopspring/decimal"

	"pricematch-service/internal/match/model"
)

// Status classifies one compared pairing.
type Status string

const (
	StatusMatch       Status = "MATCH"
	StatusOvercharge  Status = "OVERCHARGE"
	StatusUndercharge Status = "UNDERCHARGE"
	StatusUnmatched   Status = "UNMATCHED"
)

// Default tolerance bands, in percent. The two call paths deliberately use
// different bands: a user-confirmed catalogue link tolerates less drift than a
// fuzzy-suggested pairing. Kept separate pending product clarification.
var (
	DefaultToleranceLinked    = decimal.NewFromFloat(2.0)
	DefaultToleranceSuggested = decimal.NewFromFloat(5.0)
)

// Pairing is one confirmed or auto-matched link plus its raw prices.
// CandidatePrice nil means the row never got linked to a product.
type Pairing struct {
	RowIndex       int              `json:"rowIndex"`
	CandidateID    string           `json:"candidateId,omitempty"`
	QueryPrice     decimal.Decimal  `json:"queryPrice"`
	CandidatePrice *decimal.Decimal `json:"candidatePrice,omitempty"`
	Quantity       decimal.Decimal  `json:"quantity"`
	Confidence     model.Confidence `json:"confidence,omitempty"`
}

// Item is the comparison result for one pairing.
//
// Invariant: CandidateID == nil ⇔ Status == UNMATCHED ⇔ PriceDifference == nil.
// Numeric fields are full precision; call Rounded before handing the item to a
// display or persistence boundary.
type Item struct {
	QueryRowIndex       int              `json:"queryRowIndex"`
	CandidateID         *string          `json:"candidateId"`
	QueryPrice          decimal.Decimal  `json:"queryPrice"`
	QueryPriceConverted *decimal.Decimal `json:"queryPriceConverted"`
	CandidatePrice      *decimal.Decimal `json:"candidatePrice"`
	PriceDifference     *decimal.Decimal `json:"priceDifference"`
	PercentageDiff      *decimal.Decimal `json:"percentageDiff"`
	ExchangeRate        *decimal.Decimal `json:"exchangeRate"`
	Quantity            decimal.Decimal  `json:"quantity"`
	MatchConfidence     model.Confidence `json:"matchConfidence,omitempty"`
	Status              Status           `json:"status"`
}

var hundred = decimal.NewFromInt(100)

// Compare converts the query-side price into the catalogue currency, computes
// the absolute and percentage difference and classifies it against the
// tolerance band (percent, boundary inclusive: |pct| == tolerance is MATCH).
//
// The rate must already be 1 when both sides share a currency; the comparator
// applies it blindly and does not infer equality from currency codes.
// An unmatched pairing (CandidatePrice nil) is the only branch that needs no
// rate: it returns UNMATCHED with every derived field nil.
//
// A zero candidate price yields percentage 0 and therefore MATCH. That is a
// deliberate bias: a divide-by-zero crash or a NaN is worse than a visible,
// reviewable MATCH on a free item.
func Compare(p Pairing, rate decimal.Decimal, tolerancePct decimal.Decimal) Item {
	it := Item{
		QueryRowIndex:   p.RowIndex,
		QueryPrice:      p.QueryPrice,
		Quantity:        p.Quantity,
		MatchConfidence: p.Confidence,
	}

	if p.CandidatePrice == nil {
		it.Status = StatusUnmatched
		return it
	}

	candID := p.CandidateID
	it.CandidateID = &candID
	it.CandidatePrice = p.CandidatePrice
	it.ExchangeRate = &rate

	converted := p.QueryPrice.Mul(rate)
	it.QueryPriceConverted = &converted

	diff := converted.Sub(*p.CandidatePrice)
	it.PriceDifference = &diff

	pct := decimal.Zero
	if p.CandidatePrice.IsPositive() {
		pct = diff.Div(*p.CandidatePrice).Mul(hundred)
	}
	it.PercentageDiff = &pct

	switch {
	case pct.Abs().LessThanOrEqual(tolerancePct):
		it.Status = StatusMatch
	case diff.IsPositive():
		it.Status = StatusOvercharge
	default:
		it.Status = StatusUndercharge
	}
	return it
}

// Rounded returns a copy with every money field rounded to two decimals.
// Percentage keeps two decimals as well; it is display-only at that point.
func (it Item) Rounded() Item {
	out := it
	out.QueryPrice = it.QueryPrice.Round(2)
	out.Quantity = it.Quantity
	out.QueryPriceConverted = roundPtr(it.QueryPriceConverted)
	out.CandidatePrice = roundPtr(it.CandidatePrice)
	out.PriceDifference = roundPtr(it.PriceDifference)
	out.PercentageDiff = roundPtr(it.PercentageDiff)
	return out
}

func roundPtr(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	r := d.Round(2)
	return &r
}
