// Package pricing computes quote totals. All functions are pure: callers
// persist the results themselves.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/dealdesk/internal/money"
)

var (
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrInvalidDiscount = errors.New("invalid_discount_percent")
	ErrInvalidTax      = errors.New("invalid_tax_percent")
)

// LineItem is the pricing-relevant slice of a quote line.
type LineItem struct {
	UnitPrice       money.Money
	Quantity        int64
	DiscountPercent float64
}

// Totals is the derived amount set persisted on a quote.
type Totals struct {
	Subtotal       money.Money
	DiscountAmount money.Money
	AfterDiscount  money.Money
	TaxAmount      money.Money
	Total          money.Money
}

// LineTotal computes unitPrice * quantity * (1 - discount/100), rounding
// half-to-even once at the end.
func LineTotal(item LineItem) (money.Money, error) {
	if item.Quantity < 1 {
		return money.Zero(), ErrInvalidQuantity
	}
	if item.DiscountPercent < 0 || item.DiscountPercent > 100 {
		return money.Zero(), ErrInvalidDiscount
	}

	factor := decimal.NewFromInt(100).
		Sub(decimal.NewFromFloat(item.DiscountPercent)).
		Div(decimal.NewFromInt(100))

	raw := item.UnitPrice.Decimal().
		Mul(decimal.NewFromInt(item.Quantity)).
		Mul(factor)

	return money.FromDecimal(raw), nil
}

// ComputeQuoteTotals aggregates line totals with the quote-level discount
// and tax percentages. The ordering is externally observable and fixed:
// tax is computed on the post-discount amount, never the raw subtotal.
func ComputeQuoteTotals(items []LineItem, quoteDiscountPercent, taxPercent float64) (Totals, error) {
	if quoteDiscountPercent < 0 || quoteDiscountPercent > 100 {
		return Totals{}, ErrInvalidDiscount
	}
	if taxPercent < 0 || taxPercent > 100 {
		return Totals{}, ErrInvalidTax
	}

	subtotal := money.Zero()
	for _, item := range items {
		lineTotal, err := LineTotal(item)
		if err != nil {
			return Totals{}, err
		}
		subtotal = subtotal.Add(lineTotal)
	}

	discountAmount := subtotal.PercentageOf(quoteDiscountPercent)
	afterDiscount := subtotal.Sub(discountAmount)
	taxAmount := afterDiscount.PercentageOf(taxPercent)

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		AfterDiscount:  afterDiscount,
		TaxAmount:      taxAmount,
		Total:          afterDiscount.Add(taxAmount),
	}, nil
}
