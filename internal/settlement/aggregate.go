package settlement

import "github.com/shopspring/decimal"

// GrossAmount normalizes the credit note to a gross amount according to its
// declared representation. A net_plus_vat note without a VAT rate is not
// resolvable; older data sets carried such rows and silently assuming a
// default rate would fabricate money, so the caller gets an error instead.
func (n CreditNote) GrossAmount() (decimal.Decimal, error) {
	switch n.AmountKind {
	case AmountGross:
		return n.Amount, nil
	case AmountNetPlusVAT:
		if n.VATRate == nil || n.VATRate.IsNegative() {
			return decimal.Zero, ambiguousCreditNote(n.ID)
		}
		return round2(n.Amount.Mul(one.Add(*n.VATRate))), nil
	default:
		return decimal.Zero, ambiguousCreditNote(n.ID)
	}
}

// ComputeSettlement combines a document's grand total with its credit notes
// and payments into the remaining balance and settlement state.
func ComputeSettlement(grandTotal decimal.Decimal, creditNotes []CreditNote, payments []Payment) (Summary, error) {
	credits := decimal.Zero
	for _, note := range creditNotes {
		if note.Amount.IsNegative() {
			return Summary{}, invalidSettlementInput("credit note", note.ID)
		}
		gross, err := note.GrossAmount()
		if err != nil {
			return Summary{}, err
		}
		credits = credits.Add(gross)
	}
	credits = round2(credits)

	paid := decimal.Zero
	for _, payment := range payments {
		if payment.Amount.IsNegative() {
			return Summary{}, invalidSettlementInput("payment", payment.ID)
		}
		paid = paid.Add(payment.Amount)
	}
	paid = round2(paid)

	remaining := round2(grandTotal.Sub(credits).Sub(paid))

	return Summary{
		TotalCreditsGross:  credits,
		TotalPaymentsGross: paid,
		RemainingBalance:   remaining,
		FullyPaid:          remaining.IsZero(),
		Overpaid:           remaining.IsNegative(),
	}, nil
}
