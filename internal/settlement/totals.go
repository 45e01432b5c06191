package settlement

import (
	"sort"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// ComputeTotals derives net, discount, taxable, VAT and grand totals from a
// set of line items and an optional document discount.
//
// The discount is distributed proportionally across VAT-rate buckets before
// VAT is computed. Applying it to a single blended rate would shift tax
// between rates whenever a document mixes them.
func ComputeTotals(items []LineItem, discount *Discount) (DocumentTotals, error) {
	subtotal := decimal.Zero
	buckets := map[string]decimal.Decimal{}
	rates := map[string]decimal.Decimal{}

	for i, item := range items {
		if item.Quantity.IsNegative() {
			return DocumentTotals{}, invalidLineItem(i, "quantity")
		}
		if item.UnitPrice.IsNegative() {
			return DocumentTotals{}, invalidLineItem(i, "unit_price")
		}
		if item.VATRate.IsNegative() || item.VATRate.GreaterThan(one) {
			return DocumentTotals{}, invalidLineItem(i, "vat_rate")
		}

		lineNet := round2(item.Quantity.Mul(item.UnitPrice))
		subtotal = subtotal.Add(lineNet)

		key := item.VATRate.String()
		buckets[key] = buckets[key].Add(lineNet)
		rates[key] = item.VATRate
	}
	subtotal = round2(subtotal)

	discountAmount, err := resolveDiscount(discount, subtotal)
	if err != nil {
		return DocumentTotals{}, err
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	taxable := decimal.Zero
	vatTotal := decimal.Zero
	for _, key := range keys {
		rateNet := buckets[key]

		share := decimal.Zero
		if subtotal.IsPositive() {
			share = round2(discountAmount.Mul(rateNet).Div(subtotal))
		}

		rateTaxable := rateNet.Sub(share)
		if rateTaxable.IsNegative() {
			rateTaxable = decimal.Zero
		}

		taxable = taxable.Add(rateTaxable)
		vatTotal = vatTotal.Add(round2(rateTaxable.Mul(rates[key])))
	}

	taxable = round2(taxable)
	vatTotal = round2(vatTotal)

	return DocumentTotals{
		NetTotal:       subtotal,
		DiscountAmount: discountAmount,
		TaxableAmount:  taxable,
		VATTotal:       vatTotal,
		GrandTotal:     round2(taxable.Add(vatTotal)),
	}, nil
}

func resolveDiscount(discount *Discount, subtotal decimal.Decimal) (decimal.Decimal, error) {
	if discount == nil {
		return decimal.Zero, nil
	}
	if discount.Value.IsNegative() {
		return decimal.Zero, ErrInvalidDiscount
	}

	switch discount.Kind {
	case DiscountPercent:
		value := discount.Value
		if value.GreaterThan(hundred) {
			value = hundred
		}
		return round2(subtotal.Mul(value).Div(hundred)), nil
	case DiscountAmount:
		value := round2(discount.Value)
		if value.GreaterThan(subtotal) {
			value = subtotal
		}
		return value, nil
	default:
		return decimal.Zero, ErrInvalidDiscount
	}
}
