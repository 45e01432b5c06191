package domain

import (
	"context"
	"errors"
	"time"
)

type RecordPaymentRequest struct {
	InvoiceID string
	PaidAt    *time.Time
	Amount    string
	Method    string
	Reference string
}

type Service interface {
	Record(context.Context, RecordPaymentRequest) (Payment, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]Payment, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidInvoice   = errors.New("invalid_invoice")
	ErrInvalidAmount    = errors.New("invalid_amount")
	ErrNotFound         = errors.New("not_found")
	ErrInvoiceNotIssued = errors.New("invoice_not_issued")
)
