package pricing

import (
	"testing"

	"github.com/smallbiznis/dealdesk/internal/money"
	"github.com/stretchr/testify/assert"
)

func TestLineTotal(t *testing.T) {
	total, err := LineTotal(LineItem{UnitPrice: money.FromCents(10000), Quantity: 2})
	assert.NoError(t, err)
	assert.Equal(t, int64(20000), total.Cents())

	total, err = LineTotal(LineItem{UnitPrice: money.FromCents(5000), Quantity: 1, DiscountPercent: 10})
	assert.NoError(t, err)
	assert.Equal(t, int64(4500), total.Cents())

	// 33.33 * 3 * 0.85 = 84.9915 -> 84.99
	total, err = LineTotal(LineItem{UnitPrice: money.FromCents(3333), Quantity: 3, DiscountPercent: 15})
	assert.NoError(t, err)
	assert.Equal(t, int64(8499), total.Cents())
}

func TestLineTotalValidation(t *testing.T) {
	_, err := LineTotal(LineItem{UnitPrice: money.FromCents(100), Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = LineTotal(LineItem{UnitPrice: money.FromCents(100), Quantity: -2})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = LineTotal(LineItem{UnitPrice: money.FromCents(100), Quantity: 1, DiscountPercent: 101})
	assert.ErrorIs(t, err, ErrInvalidDiscount)

	_, err = LineTotal(LineItem{UnitPrice: money.FromCents(100), Quantity: 1, DiscountPercent: -1})
	assert.ErrorIs(t, err, ErrInvalidDiscount)
}

func TestComputeQuoteTotals(t *testing.T) {
	// unit 100 qty 2 disc 0%, unit 50 qty 1 disc 10%, quote disc 5%, tax 18%
	items := []LineItem{
		{UnitPrice: money.FromCents(10000), Quantity: 2},
		{UnitPrice: money.FromCents(5000), Quantity: 1, DiscountPercent: 10},
	}

	totals, err := ComputeQuoteTotals(items, 5, 18)
	assert.NoError(t, err)
	assert.Equal(t, "245.00", totals.Subtotal.String())
	assert.Equal(t, "12.25", totals.DiscountAmount.String())
	assert.Equal(t, "232.75", totals.AfterDiscount.String())
	assert.Equal(t, "41.90", totals.TaxAmount.String()) // 41.895 rounded half-to-even
	assert.Equal(t, "274.65", totals.Total.String())
}

func TestComputeQuoteTotalsEmpty(t *testing.T) {
	totals, err := ComputeQuoteTotals(nil, 0, 18)
	assert.NoError(t, err)
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.Total.IsZero())
}

func TestComputeQuoteTotalsOrderIndependentSubtotal(t *testing.T) {
	a := []LineItem{
		{UnitPrice: money.FromCents(10000), Quantity: 2},
		{UnitPrice: money.FromCents(5000), Quantity: 1, DiscountPercent: 10},
		{UnitPrice: money.FromCents(3333), Quantity: 3, DiscountPercent: 15},
	}
	b := []LineItem{a[2], a[0], a[1]}

	ta, err := ComputeQuoteTotals(a, 7.5, 11)
	assert.NoError(t, err)
	tb, err := ComputeQuoteTotals(b, 7.5, 11)
	assert.NoError(t, err)
	assert.Equal(t, ta, tb)
}

func TestComputeQuoteTotalsIdempotent(t *testing.T) {
	items := []LineItem{{UnitPrice: money.FromCents(9999), Quantity: 7, DiscountPercent: 2.5}}

	first, err := ComputeQuoteTotals(items, 3, 21)
	assert.NoError(t, err)
	second, err := ComputeQuoteTotals(items, 3, 21)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComputeQuoteTotalsValidation(t *testing.T) {
	items := []LineItem{{UnitPrice: money.FromCents(100), Quantity: 1}}

	_, err := ComputeQuoteTotals(items, 101, 0)
	assert.ErrorIs(t, err, ErrInvalidDiscount)

	_, err = ComputeQuoteTotals(items, 0, -3)
	assert.ErrorIs(t, err, ErrInvalidTax)

	_, err = ComputeQuoteTotals([]LineItem{{UnitPrice: money.FromCents(100), Quantity: 0}}, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestTaxAppliedAfterDiscount(t *testing.T) {
	items := []LineItem{{UnitPrice: money.FromCents(10000), Quantity: 1}}

	totals, err := ComputeQuoteTotals(items, 50, 10)
	assert.NoError(t, err)
	// tax on 50.00, not on 100.00
	assert.Equal(t, "5.00", totals.TaxAmount.String())
	assert.Equal(t, "55.00", totals.Total.String())
}
