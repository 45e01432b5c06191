package domain

import (
	"context"
	"errors"
	"time"

	"github.com/billora/billora/internal/settlement"
	"github.com/billora/billora/pkg/db/pagination"
)

// LineInput carries decimal values as strings; the service parses and
// validates them so handlers never touch money arithmetic.
type LineInput struct {
	Description string
	Quantity    string
	UnitPrice   string
	VATRate     string
}

type DiscountInput struct {
	Kind  string
	Value string
}

type CreateInvoiceRequest struct {
	CustomerID  string
	Currency    string
	InvoiceDate *time.Time
	DueAt       *time.Time
	Discount    *DiscountInput
	Notes       string
	Lines       []LineInput
}

type UpdateDraftRequest struct {
	ID            string
	Currency      *string
	InvoiceDate   *time.Time
	DueAt         *time.Time
	Discount      *DiscountInput
	ClearDiscount bool
	Notes         *string
	Lines         []LineInput
	ReplaceLines  bool
}

type ListInvoiceRequest struct {
	PageToken  string
	PageSize   int32
	Status     string
	CustomerID string
}

type ListInvoiceFilter struct {
	Status     InvoiceStatus
	CustomerID string
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

// InvoiceDetail is a fully materialized view of one invoice: the stored
// rows plus everything the settlement engine derives from them.
type InvoiceDetail struct {
	Invoice    Invoice                   `json:"invoice"`
	Lines      []InvoiceLine             `json:"lines"`
	Totals     settlement.DocumentTotals `json:"totals"`
	Settlement settlement.Summary        `json:"settlement"`
	Timeline   []settlement.Event        `json:"timeline"`
}

type Service interface {
	CreateDraft(context.Context, CreateInvoiceRequest) (Invoice, error)
	UpdateDraft(context.Context, UpdateDraftRequest) (Invoice, error)
	Issue(ctx context.Context, id string) (Invoice, error)
	Void(ctx context.Context, id string) (Invoice, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (InvoiceDetail, error)
	List(context.Context, ListInvoiceRequest) (ListInvoiceResponse, error)
}

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidCustomer = errors.New("invalid_customer")
	ErrInvalidCurrency = errors.New("invalid_currency")
	ErrInvalidLine     = errors.New("invalid_line")
	ErrInvalidDiscount = errors.New("invalid_discount")
	ErrInvalidStatus   = errors.New("invalid_status")
	ErrNotFound        = errors.New("not_found")
	ErrNotDraft        = errors.New("not_draft")
	ErrNotIssued       = errors.New("not_issued")
	ErrAlreadyVoid     = errors.New("already_void")
	ErrNumberConflict  = errors.New("number_conflict")
)
