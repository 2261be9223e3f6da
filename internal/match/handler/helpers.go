package handler

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"pricematch-service/internal/match/model"
	"pricematch-service/internal/utils"
)

var rxHeaderJunk = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// normHeaderKey canonicalizes a column name: lowercase, NBSP→space, strip
// everything that is not a letter or digit, collapse spaces.
func normHeaderKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", " ", " ", " ").Replace(s)
	s = rxHeaderJunk.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// resolveKey finds the actual column key in a row for the wanted name.
// Supports alternatives via "|" (e.g. "Description|Item|Product"), exact
// match first, then normalized match, then substring containment for
// composite headers ("unit price incl. VAT" contains "unit price").
func resolveKey(rec map[string]string, want string) string {
	want = strings.TrimSpace(want)
	if want == "" {
		return ""
	}
	alts := strings.Split(want, "|")
	for i := range alts {
		alts[i] = strings.TrimSpace(alts[i])
	}

	for _, a := range alts {
		if _, ok := rec[a]; ok {
			return a
		}
	}

	var normAlts []string
	for _, a := range alts {
		normAlts = append(normAlts, normHeaderKey(a))
	}

	bestKey := ""
	bestScore := 0
	for k := range rec {
		nk := normHeaderKey(k)
		for _, n := range normAlts {
			if nk == n {
				return k
			}
		}
		score := 0
		for _, n := range normAlts {
			if n != "" && (strings.Contains(nk, n) || strings.Contains(n, nk)) {
				if len(n) > score {
					score = len(n)
				}
			}
		}
		// deterministic winner on equal score: keep the lexically smaller key
		if score > bestScore || (score == bestScore && score > 0 && k < bestKey) {
			bestScore, bestKey = score, k
		}
	}
	return bestKey
}

// toQueryItems maps raw rows onto query items using the column mapping.
// Rows with a blank name are kept (the matcher marks them skipped) so the
// 1-based row indexing stays aligned with the source document.
func toQueryItems(rows []map[string]string, m model.RowMapping) []model.QueryItem {
	items := make([]model.QueryItem, 0, len(rows))
	for i, rec := range rows {
		item := model.QueryItem{RowIndex: i + 1}

		item.ProductName = strings.TrimSpace(rec[resolveKey(rec, m.NameKey)])
		if m.UseCode && m.CodeKey != "" {
			item.Code = strings.TrimSpace(rec[resolveKey(rec, m.CodeKey)])
		}
		if m.UnitKey != "" {
			item.Unit = strings.TrimSpace(rec[resolveKey(rec, m.UnitKey)])
		}
		item.Quantity = parseOr(rec[resolveKey(rec, m.QtyKey)], decimal.NewFromInt(1))
		item.UnitPrice = parseOr(rec[resolveKey(rec, m.PriceKey)], decimal.Zero)
		item.TotalPrice = parseOr(rec[resolveKey(rec, m.TotalKey)], decimal.Zero)
		if item.TotalPrice.IsZero() {
			item.TotalPrice = item.UnitPrice.Mul(item.Quantity)
		}
		items = append(items, item)
	}
	return items
}

func parseOr(s string, def decimal.Decimal) decimal.Decimal {
	if d, ok := utils.ParseDecimal(s); ok {
		return d
	}
	return def
}
