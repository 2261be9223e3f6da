package utils

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var rxKeepNums = regexp.MustCompile(`[^\d.\-]`)

// ParseDecimal parses human/locale-formatted amounts: "1 234,50" (NBSP or
// NNBSP group separators), "197 ,00", "(12.50)" as a negative, "€ 2.10".
// Returns false when nothing numeric is left after cleanup.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}

	// drop regular and non-breaking group separators, unify decimal comma
	repl := strings.NewReplacer(" ", "", " ", "", " ", "", " ", "", "\t", "", ",", ".")
	s = repl.Replace(s)
	// keep digits, dot and minus only (currency signs, unit suffixes etc.)
	s = rxKeepNums.ReplaceAllString(s, "")
	if s == "" || s == "-" || s == "." {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if neg {
		d = d.Neg()
	}
	return d, true
}
