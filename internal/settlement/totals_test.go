package settlement

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func line(qty, price, rate string) LineItem {
	return LineItem{
		Description: "item",
		Quantity:    dec(qty),
		UnitPrice:   dec(price),
		VATRate:     dec(rate),
	}
}

func TestComputeTotals_SingleRateNoDiscount(t *testing.T) {
	totals, err := ComputeTotals([]LineItem{line("10", "50", "0.18")}, nil)
	require.NoError(t, err)

	assert.True(t, totals.NetTotal.Equal(dec("500.00")), "net: %s", totals.NetTotal)
	assert.True(t, totals.DiscountAmount.IsZero())
	assert.True(t, totals.TaxableAmount.Equal(dec("500.00")))
	assert.True(t, totals.VATTotal.Equal(dec("90.00")), "vat: %s", totals.VATTotal)
	assert.True(t, totals.GrandTotal.Equal(dec("590.00")), "grand: %s", totals.GrandTotal)
}

func TestComputeTotals_MixedRatesPercentDiscount(t *testing.T) {
	items := []LineItem{
		line("1", "100", "0.18"),
		line("1", "100", "0"),
	}
	discount := &Discount{Kind: DiscountPercent, Value: dec("10")}

	totals, err := ComputeTotals(items, discount)
	require.NoError(t, err)

	assert.True(t, totals.NetTotal.Equal(dec("200.00")))
	assert.True(t, totals.DiscountAmount.Equal(dec("20.00")))
	// Each rate bucket absorbs 10.00 of discount; VAT applies to the
	// remaining 90.00 of the 18% bucket only.
	assert.True(t, totals.TaxableAmount.Equal(dec("180.00")))
	assert.True(t, totals.VATTotal.Equal(dec("16.20")), "vat: %s", totals.VATTotal)
	assert.True(t, totals.GrandTotal.Equal(dec("196.20")))
}

func TestComputeTotals_AmountDiscountExceedsSubtotal(t *testing.T) {
	items := []LineItem{line("1", "100", "0.18")}
	discount := &Discount{Kind: DiscountAmount, Value: dec("150")}

	totals, err := ComputeTotals(items, discount)
	require.NoError(t, err)

	assert.True(t, totals.DiscountAmount.Equal(dec("100.00")))
	assert.True(t, totals.TaxableAmount.IsZero())
	assert.True(t, totals.VATTotal.IsZero())
	assert.True(t, totals.GrandTotal.IsZero())
}

func TestComputeTotals_PercentDiscountClampedAtHundred(t *testing.T) {
	totals, err := ComputeTotals([]LineItem{line("1", "80", "0")}, &Discount{Kind: DiscountPercent, Value: dec("250")})
	require.NoError(t, err)

	assert.True(t, totals.DiscountAmount.Equal(dec("80.00")))
	assert.True(t, totals.GrandTotal.IsZero())
}

func TestComputeTotals_NoItems(t *testing.T) {
	totals, err := ComputeTotals(nil, nil)
	require.NoError(t, err)

	assert.True(t, totals.NetTotal.IsZero())
	assert.True(t, totals.DiscountAmount.IsZero())
	assert.True(t, totals.TaxableAmount.IsZero())
	assert.True(t, totals.VATTotal.IsZero())
	assert.True(t, totals.GrandTotal.IsZero())
}

func TestComputeTotals_ZeroRateOnly(t *testing.T) {
	totals, err := ComputeTotals([]LineItem{line("3", "25", "0")}, nil)
	require.NoError(t, err)

	assert.True(t, totals.VATTotal.IsZero())
	assert.True(t, totals.GrandTotal.Equal(totals.TaxableAmount))
}

func TestComputeTotals_PercentDiscountOnZeroSubtotal(t *testing.T) {
	totals, err := ComputeTotals([]LineItem{line("0", "0", "0.18")}, &Discount{Kind: DiscountPercent, Value: dec("10")})
	require.NoError(t, err)

	assert.True(t, totals.DiscountAmount.IsZero())
	assert.True(t, totals.GrandTotal.IsZero())
}

func TestComputeTotals_RejectsInvalidLines(t *testing.T) {
	cases := []struct {
		name string
		item LineItem
	}{
		{"negative quantity", line("-1", "10", "0.18")},
		{"negative unit price", line("1", "-10", "0.18")},
		{"negative vat rate", line("1", "10", "-0.18")},
		{"vat rate above one", line("1", "10", "18")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeTotals([]LineItem{tc.item}, nil)
			assert.ErrorIs(t, err, ErrInvalidLineItem)
		})
	}
}

func TestComputeTotals_RejectsInvalidDiscount(t *testing.T) {
	items := []LineItem{line("1", "10", "0")}

	_, err := ComputeTotals(items, &Discount{Kind: DiscountPercent, Value: dec("-5")})
	assert.ErrorIs(t, err, ErrInvalidDiscount)

	_, err = ComputeTotals(items, &Discount{Kind: "rebate", Value: dec("5")})
	assert.ErrorIs(t, err, ErrInvalidDiscount)
}

func TestComputeTotals_ReconciliationInvariant(t *testing.T) {
	cases := [][]LineItem{
		{line("10", "50", "0.18")},
		{line("1", "99.99", "0.18"), line("3", "0.01", "0.05"), line("7", "12.49", "0")},
		{line("2.5", "19.99", "0.07"), line("1", "0.03", "0.19")},
	}
	discounts := []*Discount{
		nil,
		{Kind: DiscountPercent, Value: dec("3.33")},
		{Kind: DiscountAmount, Value: dec("17.77")},
	}

	for _, items := range cases {
		for _, discount := range discounts {
			totals, err := ComputeTotals(items, discount)
			require.NoError(t, err)

			assert.True(t, totals.TaxableAmount.Add(totals.VATTotal).Equal(totals.GrandTotal),
				"taxable %s + vat %s != grand %s", totals.TaxableAmount, totals.VATTotal, totals.GrandTotal)
			assert.True(t, totals.DiscountAmount.LessThanOrEqual(totals.NetTotal))
			assert.False(t, totals.TaxableAmount.IsNegative())
		}
	}
}

func TestComputeTotals_Idempotent(t *testing.T) {
	items := []LineItem{
		line("1", "99.99", "0.18"),
		line("3", "1.37", "0.05"),
	}
	discount := &Discount{Kind: DiscountPercent, Value: dec("7.5")}

	first, err := ComputeTotals(items, discount)
	require.NoError(t, err)
	second, err := ComputeTotals(items, discount)
	require.NoError(t, err)

	assert.Equal(t, first.NetTotal.String(), second.NetTotal.String())
	assert.Equal(t, first.DiscountAmount.String(), second.DiscountAmount.String())
	assert.Equal(t, first.TaxableAmount.String(), second.TaxableAmount.String())
	assert.Equal(t, first.VATTotal.String(), second.VATTotal.String())
	assert.Equal(t, first.GrandTotal.String(), second.GrandTotal.String())
}
