package pipeline

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Price is a parsed event price. A price without numeric content is unknown
// and orders above every known amount.
type Price struct {
	amount decimal.Decimal
	known  bool
}

// ParsePrice keeps only ASCII digits and dots from raw and reads the rest as
// a decimal. It never fails: anything unreadable yields an unknown price.
func ParsePrice(raw string) Price {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}

	s := b.String()
	if s == "" {
		return Price{}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}
	}

	return Price{amount: d, known: true}
}

func (p Price) Known() bool { return p.known }

// Amount is zero for an unknown price; check Known first.
func (p Price) Amount() decimal.Decimal { return p.amount }

// Within reports whether p does not exceed budget. Unknown prices never fit.
func (p Price) Within(budget decimal.Decimal) bool {
	return p.known && p.amount.LessThanOrEqual(budget)
}

// Cmp orders prices, with unknown after every known amount.
func (p Price) Cmp(o Price) int {
	switch {
	case !p.known && !o.known:
		return 0
	case !p.known:
		return 1
	case !o.known:
		return -1
	default:
		return p.amount.Cmp(o.amount)
	}
}

func (p Price) String() string {
	if !p.known {
		return "unknown"
	}
	return p.amount.String()
}
