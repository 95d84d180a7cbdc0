package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPrice(t *testing.T) {
	lines := []Line{
		{UnitPrice: d("19.99"), Quantity: 3},
		{UnitPrice: d("0.10"), Quantity: 7},
	}

	res, err := Price(lines, d("5.00"), d("4.81"), d("1.50"))
	require.NoError(t, err)
	assert.True(t, res.Subtotal.Equal(d("60.67")), "subtotal %s", res.Subtotal)
	assert.True(t, res.Total.Equal(d("68.98")), "total %s", res.Total)
}

func TestPriceExactDecimalSums(t *testing.T) {
	lines := make([]Line, 10)
	for i := range lines {
		lines[i] = Line{UnitPrice: d("0.10"), Quantity: 1}
	}
	res, err := Price(lines, decimal.Zero, decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, res.Total.Equal(d("1.00")), "total %s", res.Total)
}

func TestPriceDiscountEqualToGrossIsFree(t *testing.T) {
	res, err := Price([]Line{{UnitPrice: d("10.00"), Quantity: 1}}, d("2.00"), decimal.Zero, d("12.00"))
	require.NoError(t, err)
	assert.True(t, res.Total.IsZero())
}

func TestPriceDiscountExceedsTotal(t *testing.T) {
	_, err := Price([]Line{{UnitPrice: d("10.00"), Quantity: 1}}, decimal.Zero, decimal.Zero, d("10.01"))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, Details{Field: "discount", Reason: ReasonDiscountExceedsTotal}, typed.Details())
}

func TestUnitPrice(t *testing.T) {
	product := models.Product{Price: d("10.00")}

	assert.True(t, UnitPrice(product, nil).Equal(d("10.00")))
	assert.True(t, UnitPrice(product, &models.ProductVariant{PriceAdjustment: d("2.50")}).Equal(d("12.50")))
	assert.True(t, UnitPrice(product, &models.ProductVariant{PriceAdjustment: d("-15.00")}).IsZero(), "floored at zero")
}
