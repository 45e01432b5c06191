package domain

import (
	"context"
	"errors"
	"time"
)

// CreateCreditNoteRequest carries amounts as strings; the service parses
// them. AmountKind selects the representation: "gross" amounts must not
// carry a VAT rate, "net_plus_vat" amounts must.
type CreateCreditNoteRequest struct {
	InvoiceID  string
	NoteDate   *time.Time
	AmountKind string
	Amount     string
	VATRate    *string
	Reason     string
}

type Service interface {
	Create(context.Context, CreateCreditNoteRequest) (CreditNote, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]CreditNote, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidInvoice    = errors.New("invalid_invoice")
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrInvalidAmountKind = errors.New("invalid_amount_kind")
	ErrInvalidVATRate    = errors.New("invalid_vat_rate")
	ErrNotFound          = errors.New("not_found")
	ErrInvoiceNotIssued  = errors.New("invoice_not_issued")
)
