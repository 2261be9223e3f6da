package compare

import (
	"github.com/shopspring/decimal"
)

// Summary aggregates a document's comparison items.
// Overcharge/undercharge totals are quantity-weighted and non-negative;
// unmatched rows count toward TotalItems but never toward money totals.
type Summary struct {
	TotalItems       int             `json:"totalItems"`
	MatchedItems     int             `json:"matchedItems"`
	Mismatches       int             `json:"mismatches"`
	TotalOvercharge  decimal.Decimal `json:"totalOvercharge"`
	TotalUndercharge decimal.Decimal `json:"totalUndercharge"`
	CurrencyFrom     string          `json:"currencyFrom"`
	CurrencyTo       string          `json:"currencyTo"`
	ExchangeRate     decimal.Decimal `json:"exchangeRate"`
}

// Summarize folds items into a Summary. Totals accumulate at full precision
// and are rounded to two decimals once, at the end.
func Summarize(items []Item, currencyFrom, currencyTo string, rate decimal.Decimal) Summary {
	s := Summary{
		TotalItems:       len(items),
		TotalOvercharge:  decimal.Zero,
		TotalUndercharge: decimal.Zero,
		CurrencyFrom:     currencyFrom,
		CurrencyTo:       currencyTo,
		ExchangeRate:     rate,
	}

	for _, it := range items {
		switch it.Status {
		case StatusMatch:
			s.MatchedItems++
		case StatusOvercharge:
			s.Mismatches++
			if it.PriceDifference != nil && it.PriceDifference.IsPositive() {
				s.TotalOvercharge = s.TotalOvercharge.Add(it.PriceDifference.Mul(it.Quantity))
			}
		case StatusUndercharge:
			s.Mismatches++
			if it.PriceDifference != nil && it.PriceDifference.IsNegative() {
				s.TotalUndercharge = s.TotalUndercharge.Add(it.PriceDifference.Abs().Mul(it.Quantity))
			}
		case StatusUnmatched:
			// counted in TotalItems only
		}
	}

	s.TotalOvercharge = s.TotalOvercharge.Round(2)
	s.TotalUndercharge = s.TotalUndercharge.Round(2)
	return s
}
