package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	m, err := Parse("199.90")
	assert.NoError(t, err)
	assert.Equal(t, int64(19990), m.Cents())

	m, err = Parse("100")
	assert.NoError(t, err)
	assert.Equal(t, int64(10000), m.Cents())

	m, err = Parse("-12.25")
	assert.NoError(t, err)
	assert.Equal(t, int64(-1225), m.Cents())

	_, err = Parse("1.999")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Parse("abc")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestArithmetic(t *testing.T) {
	a := FromCents(24500)
	b := FromCents(1225)

	assert.Equal(t, int64(25725), a.Add(b).Cents())
	assert.Equal(t, int64(23275), a.Sub(b).Cents())
	assert.Equal(t, int64(49000), a.MulInt(2).Cents())

	assert.Equal(t, 1, a.Cmp(b))
	assert.Equal(t, -1, b.Cmp(a))
	assert.Equal(t, 0, a.Cmp(FromCents(24500)))
}

func TestPercentageOf(t *testing.T) {
	subtotal := FromCents(24500) // 245.00
	assert.Equal(t, int64(1225), subtotal.PercentageOf(5).Cents())

	// 232.75 * 18% = 41.895, half-to-even at cents gives 41.90
	afterDiscount := FromCents(23275)
	assert.Equal(t, int64(4190), afterDiscount.PercentageOf(18).Cents())

	assert.Equal(t, int64(0), subtotal.PercentageOf(0).Cents())
	assert.Equal(t, int64(24500), subtotal.PercentageOf(100).Cents())
}

func TestBankersRounding(t *testing.T) {
	// Exact half cases round to the even cent.
	assert.Equal(t, int64(12), FromDecimal(decimal.RequireFromString("0.125")).Cents())
	assert.Equal(t, int64(14), FromDecimal(decimal.RequireFromString("0.135")).Cents())
	assert.Equal(t, int64(13), FromDecimal(decimal.RequireFromString("0.126")).Cents())
}

func TestString(t *testing.T) {
	assert.Equal(t, "274.65", FromCents(27465).String())
	assert.Equal(t, "0.00", Zero().String())
	assert.Equal(t, "-1.05", FromCents(-105).String())
}
