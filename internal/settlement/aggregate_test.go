package settlement

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grossNote(id, amount string, date time.Time) CreditNote {
	return CreditNote{ID: id, Date: date, AmountKind: AmountGross, Amount: dec(amount)}
}

func netNote(id, amount, rate string, date time.Time) CreditNote {
	r := dec(rate)
	return CreditNote{ID: id, Date: date, AmountKind: AmountNetPlusVAT, Amount: dec(amount), VATRate: &r}
}

func payment(id, amount string, date time.Time) Payment {
	return Payment{ID: id, Date: date, Amount: dec(amount), Method: "bank_transfer"}
}

func TestComputeSettlement_Overpayment(t *testing.T) {
	now := time.Now().UTC()

	summary, err := ComputeSettlement(dec("590.00"), nil, []Payment{payment("p1", "600.00", now)})
	require.NoError(t, err)

	assert.True(t, summary.RemainingBalance.Equal(dec("-10.00")), "remaining: %s", summary.RemainingBalance)
	assert.True(t, summary.Overpaid)
	assert.False(t, summary.FullyPaid)
}

func TestComputeSettlement_FullyPaidWithCreditNote(t *testing.T) {
	now := time.Now().UTC()

	summary, err := ComputeSettlement(dec("500.00"),
		[]CreditNote{grossNote("cn1", "200.00", now)},
		[]Payment{payment("p1", "300.00", now)},
	)
	require.NoError(t, err)

	assert.True(t, summary.TotalCreditsGross.Equal(dec("200.00")))
	assert.True(t, summary.TotalPaymentsGross.Equal(dec("300.00")))
	assert.True(t, summary.RemainingBalance.IsZero())
	assert.True(t, summary.FullyPaid)
	assert.False(t, summary.Overpaid)
}

func TestComputeSettlement_NetPlusVATNormalization(t *testing.T) {
	now := time.Now().UTC()

	// 100 net at 18% -> 118.00 gross
	summary, err := ComputeSettlement(dec("590.00"),
		[]CreditNote{netNote("cn1", "100", "0.18", now)},
		nil,
	)
	require.NoError(t, err)

	assert.True(t, summary.TotalCreditsGross.Equal(dec("118.00")), "credits: %s", summary.TotalCreditsGross)
	assert.True(t, summary.RemainingBalance.Equal(dec("472.00")))
}

func TestComputeSettlement_ReconciliationInvariant(t *testing.T) {
	now := time.Now().UTC()
	grand := dec("1234.56")
	notes := []CreditNote{grossNote("cn1", "99.99", now), netNote("cn2", "10.01", "0.07", now)}
	payments := []Payment{payment("p1", "500.00", now), payment("p2", "0.01", now)}

	summary, err := ComputeSettlement(grand, notes, payments)
	require.NoError(t, err)

	expected := grand.Sub(summary.TotalCreditsGross).Sub(summary.TotalPaymentsGross)
	assert.True(t, summary.RemainingBalance.Equal(expected))
}

func TestComputeSettlement_RejectsNegativeAmounts(t *testing.T) {
	now := time.Now().UTC()

	_, err := ComputeSettlement(dec("100"), nil, []Payment{payment("p1", "-5", now)})
	assert.ErrorIs(t, err, ErrInvalidSettlementInput)

	_, err = ComputeSettlement(dec("100"), []CreditNote{grossNote("cn1", "-5", now)}, nil)
	assert.ErrorIs(t, err, ErrInvalidSettlementInput)
}

func TestCreditNote_AmbiguousRepresentation(t *testing.T) {
	now := time.Now().UTC()

	// net_plus_vat without a rate must fail rather than assume a default.
	note := CreditNote{ID: "cn1", Date: now, AmountKind: AmountNetPlusVAT, Amount: dec("100")}
	_, err := note.GrossAmount()
	assert.ErrorIs(t, err, ErrAmbiguousCreditNote)

	// Unknown kind is just as ambiguous.
	note = CreditNote{ID: "cn2", Date: now, AmountKind: "", Amount: dec("100")}
	_, err = note.GrossAmount()
	assert.ErrorIs(t, err, ErrAmbiguousCreditNote)

	_, err = ComputeSettlement(dec("100"), []CreditNote{note}, nil)
	assert.ErrorIs(t, err, ErrAmbiguousCreditNote)
}

func TestComputeSettlement_EmptyInputs(t *testing.T) {
	summary, err := ComputeSettlement(decimal.Zero, nil, nil)
	require.NoError(t, err)

	assert.True(t, summary.RemainingBalance.IsZero())
	assert.True(t, summary.FullyPaid)
	assert.False(t, summary.Overpaid)
}
