// Package settlement computes document totals, settlement state and the
// chronological event timeline for an invoice. Every function here is pure:
// callers pass a fully loaded snapshot of the document and its credit notes
// and payments, and get values back. Nothing is cached between calls, so the
// package is safe to use from concurrent request handlers.
package settlement

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is a single invoice line. VATRate is a fraction (0.18 = 18%);
// percentage strings must be normalized before reaching this package.
type LineItem struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	VATRate     decimal.Decimal
}

// DiscountKind selects how a discount value is interpreted.
type DiscountKind string

const (
	DiscountAmount  DiscountKind = "amount"
	DiscountPercent DiscountKind = "percent"
)

// Discount is an optional document-level discount. Percent values are
// clamped to [0,100], amount values to [0, subtotal].
type Discount struct {
	Kind  DiscountKind
	Value decimal.Decimal
}

// DocumentTotals is the result of ComputeTotals. All fields are rounded to
// two places and satisfy TaxableAmount + VATTotal == GrandTotal.
type DocumentTotals struct {
	NetTotal       decimal.Decimal `json:"net_total"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxableAmount  decimal.Decimal `json:"taxable_amount"`
	VATTotal       decimal.Decimal `json:"vat_total"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
}

// CreditNoteAmountKind tags which representation a credit note amount uses.
// Stored rows must declare this explicitly; the engine never guesses from
// field presence and never assumes a default VAT rate.
type CreditNoteAmountKind string

const (
	// AmountGross means Amount already includes VAT.
	AmountGross CreditNoteAmountKind = "gross"
	// AmountNetPlusVAT means Amount is net and VATRate must be set;
	// gross = round2(amount * (1 + rate)).
	AmountNetPlusVAT CreditNoteAmountKind = "net_plus_vat"
)

// CreditNote reduces an invoice's outstanding balance.
type CreditNote struct {
	ID         string
	Date       time.Time
	AmountKind CreditNoteAmountKind
	Amount     decimal.Decimal
	VATRate    *decimal.Decimal
	Reason     string
}

// Payment is a recorded payment against an invoice, always gross.
type Payment struct {
	ID     string
	Date   time.Time
	Amount decimal.Decimal
	Method string
}

// Summary is the result of ComputeSettlement. RemainingBalance may be
// negative, which indicates an overpayment in favour of the customer.
type Summary struct {
	TotalCreditsGross  decimal.Decimal `json:"total_credits_gross"`
	TotalPaymentsGross decimal.Decimal `json:"total_payments_gross"`
	RemainingBalance   decimal.Decimal `json:"remaining_balance"`
	FullyPaid          bool            `json:"fully_paid"`
	Overpaid           bool            `json:"overpaid"`
}

// DocumentMeta carries the dates BuildTimeline needs from the invoice itself.
type DocumentMeta struct {
	ID          string
	CreatedAt   *time.Time
	Issued      bool
	IssuedAt    *time.Time
	InvoiceDate time.Time
}

// EventType identifies a timeline entry.
type EventType string

const (
	EventCreated    EventType = "created"
	EventIssued     EventType = "issued"
	EventCreditNote EventType = "credit_note"
	EventPayment    EventType = "payment"
	EventPaid       EventType = "paid"
)

// Event is one entry of the settlement timeline. Amount is set for
// credit_note and payment events and carries the gross amount.
type Event struct {
	ID        string           `json:"id"`
	Type      EventType        `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
}

// round2 applies the package-wide rounding policy: half-up at two decimal
// places, after every intermediate multiplication or division that produces
// a monetary value. Rounding only at the final total would let multi-rate
// discount allocation drift by a penny between call sites.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
