// Package core holds the sales report domain: transactions, reporting periods,
// fixed-point money and the per-application aggregation.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a fixed-point amount. It is rendered as a bare JSON number so report
// files carry totals the same way the API carries amounts, without float
// rounding.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// ParseAmount converts the textual amount of the partner API to Money.
//
// Examples:
//
//	ParseAmount("10.50") -> 10.5, nil
//	ParseAmount(" 5 ")   -> 5, nil
//	ParseAmount("abc")   -> ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Money{Decimal: d}, nil
}

func (m Money) Add(o Money) Money {
	return Money{Decimal: m.Decimal.Add(o.Decimal)}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}
