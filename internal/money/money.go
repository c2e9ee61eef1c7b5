// Package money provides a fixed-point amount type for commercial documents.
// Amounts are stored as integer cents; fractional results are rounded
// half-to-even once, at the end of a computation, never per intermediate
// step.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

const scale = 2

var ErrInvalidAmount = errors.New("invalid_amount")

// Money is an amount in cents.
type Money struct {
	cents int64
}

func Zero() Money { return Money{} }

// FromCents builds a Money from an integer number of cents.
func FromCents(cents int64) Money {
	return Money{cents: cents}
}

// Parse reads a decimal string such as "199.90". Values with more than two
// fractional digits are rejected rather than silently rounded, since parsed
// input is user-entered pricing.
func Parse(value string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.Exponent() < -scale {
		return Money{}, ErrInvalidAmount
	}
	return Money{cents: d.Shift(scale).IntPart()}, nil
}

// FromDecimal rounds an arbitrary-precision amount to cents, half-to-even.
// This is the single rounding point for derived amounts.
func FromDecimal(d decimal.Decimal) Money {
	return Money{cents: d.RoundBank(scale).Shift(scale).IntPart()}
}

func (m Money) Cents() int64 { return m.cents }

// Decimal returns the exact decimal value for intermediate arithmetic.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.cents, -scale)
}

func (m Money) Add(o Money) Money { return Money{cents: m.cents + o.cents} }

func (m Money) Sub(o Money) Money { return Money{cents: m.cents - o.cents} }

// MulInt scales by an integer factor. Exact, no rounding involved.
func (m Money) MulInt(n int64) Money { return Money{cents: m.cents * n} }

// PercentageOf computes pct% of the amount, rounded half-to-even at cents.
func (m Money) PercentageOf(pct float64) Money {
	p := decimal.NewFromFloat(pct).Div(decimal.NewFromInt(100))
	return FromDecimal(m.Decimal().Mul(p))
}

// Cmp returns -1, 0 or +1.
func (m Money) Cmp(o Money) int {
	switch {
	case m.cents < o.cents:
		return -1
	case m.cents > o.cents:
		return 1
	default:
		return 0
	}
}

func (m Money) Equal(o Money) bool { return m.cents == o.cents }

func (m Money) IsZero() bool { return m.cents == 0 }

func (m Money) IsNegative() bool { return m.cents < 0 }

// String renders the amount with two fractional digits, e.g. "274.65".
func (m Money) String() string {
	return m.Decimal().StringFixed(scale)
}
