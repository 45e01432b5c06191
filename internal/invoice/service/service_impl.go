package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/billora/billora/internal/config"
	creditnotedomain "github.com/billora/billora/internal/creditnote/domain"
	customerdomain "github.com/billora/billora/internal/customer/domain"
	"github.com/billora/billora/internal/invoice/domain"
	paymentdomain "github.com/billora/billora/internal/payment/domain"
	"github.com/billora/billora/internal/settlement"
	"github.com/billora/billora/pkg/db"
	"github.com/billora/billora/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	Customers   customerdomain.Repository
	CreditNotes creditnotedomain.Repository
	Payments    paymentdomain.Repository
	Settings    *config.DocumentSettingsHolder
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        domain.Repository
	customers   customerdomain.Repository
	creditNotes creditnotedomain.Repository
	payments    paymentdomain.Repository
	settings    *config.DocumentSettingsHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("invoice.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		customers:   p.Customers,
		creditNotes: p.CreditNotes,
		payments:    p.Payments,
		settings:    p.Settings,
	}
}

func (s *Service) CreateDraft(ctx context.Context, req domain.CreateInvoiceRequest) (domain.Invoice, error) {
	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil || customerID == 0 {
		return domain.Invoice{}, domain.ErrInvalidCustomer
	}
	customer, err := s.customers.FindByID(ctx, s.db, customerID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if customer == nil {
		return domain.Invoice{}, domain.ErrInvalidCustomer
	}

	settings := s.settings.Get()
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = customer.Currency
	}
	if currency == "" {
		currency = settings.DefaultCurrency
	}
	if len(currency) != 3 {
		return domain.Invoice{}, domain.ErrInvalidCurrency
	}

	now := time.Now().UTC()
	invoiceDate := now
	if req.InvoiceDate != nil {
		invoiceDate = req.InvoiceDate.UTC()
	}

	discountKind, discountValue, err := parseDiscount(req.Discount)
	if err != nil {
		return domain.Invoice{}, err
	}

	invoiceID := s.genID.Generate()
	lines, err := s.buildLines(invoiceID, req.Lines)
	if err != nil {
		return domain.Invoice{}, err
	}

	invoice := domain.Invoice{
		ID:            invoiceID,
		CustomerID:    customerID,
		Status:        domain.InvoiceStatusDraft,
		Currency:      currency,
		InvoiceDate:   invoiceDate,
		DueAt:         req.DueAt,
		DiscountKind:  discountKind,
		DiscountValue: discountValue,
		Notes:         strings.TrimSpace(req.Notes),
		Metadata:      datatypes.JSONMap{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// Reject drafts the engine could never total.
	if _, err := settlement.ComputeTotals(toSettlementLines(lines), invoice.Discount()); err != nil {
		return domain.Invoice{}, err
	}

	if err := s.repo.Insert(ctx, s.db, &invoice, lines); err != nil {
		return domain.Invoice{}, err
	}

	return invoice, nil
}

func (s *Service) UpdateDraft(ctx context.Context, req domain.UpdateDraftRequest) (domain.Invoice, error) {
	invoice, err := s.loadInvoice(ctx, req.ID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice.Status != domain.InvoiceStatusDraft {
		return domain.Invoice{}, domain.ErrNotDraft
	}

	if req.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if len(currency) != 3 {
			return domain.Invoice{}, domain.ErrInvalidCurrency
		}
		invoice.Currency = currency
	}
	if req.InvoiceDate != nil {
		invoice.InvoiceDate = req.InvoiceDate.UTC()
	}
	if req.DueAt != nil {
		invoice.DueAt = req.DueAt
	}
	if req.Notes != nil {
		invoice.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.ClearDiscount {
		invoice.DiscountKind = ""
		invoice.DiscountValue = decimal.Zero
	} else if req.Discount != nil {
		kind, value, err := parseDiscount(req.Discount)
		if err != nil {
			return domain.Invoice{}, err
		}
		invoice.DiscountKind = kind
		invoice.DiscountValue = value
	}

	var lines []domain.InvoiceLine
	if req.ReplaceLines {
		lines, err = s.buildLines(invoice.ID, req.Lines)
		if err != nil {
			return domain.Invoice{}, err
		}
	} else {
		lines, err = s.repo.FindLines(ctx, s.db, invoice.ID)
		if err != nil {
			return domain.Invoice{}, err
		}
	}

	if _, err := settlement.ComputeTotals(toSettlementLines(lines), invoice.Discount()); err != nil {
		return domain.Invoice{}, err
	}

	invoice.UpdatedAt = time.Now().UTC()
	if req.ReplaceLines {
		if err := s.repo.ReplaceLines(ctx, s.db, invoice.ID, lines); err != nil {
			return domain.Invoice{}, err
		}
	}
	if err := s.repo.Update(ctx, s.db, invoice); err != nil {
		return domain.Invoice{}, err
	}

	return *invoice, nil
}

func (s *Service) Issue(ctx context.Context, id string) (domain.Invoice, error) {
	invoice, err := s.loadInvoice(ctx, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice.Status != domain.InvoiceStatusDraft {
		return domain.Invoice{}, domain.ErrNotDraft
	}

	lines, err := s.repo.FindLines(ctx, s.db, invoice.ID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if _, err := settlement.ComputeTotals(toSettlementLines(lines), invoice.Discount()); err != nil {
		return domain.Invoice{}, err
	}

	settings := s.settings.Get()
	now := time.Now().UTC()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		issued, err := s.repo.CountIssuedBetween(ctx, tx, yearStart, yearStart.AddDate(1, 0, 0))
		if err != nil {
			return err
		}

		invoice.Number = fmt.Sprintf("%s-%d-%0*d", settings.NumberPrefix, now.Year(), settings.NumberPadding, issued+1)
		invoice.Status = domain.InvoiceStatusIssued
		invoice.IssuedAt = &now
		if invoice.DueAt == nil {
			due := invoice.InvoiceDate.AddDate(0, 0, settings.DueTermDays)
			invoice.DueAt = &due
		}
		invoice.UpdatedAt = now

		return s.repo.Update(ctx, tx, invoice)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Invoice{}, domain.ErrNumberConflict
		}
		return domain.Invoice{}, err
	}

	s.log.Info("invoice issued",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("number", invoice.Number),
	)

	return *invoice, nil
}

func (s *Service) Void(ctx context.Context, id string) (domain.Invoice, error) {
	invoice, err := s.loadInvoice(ctx, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	switch invoice.Status {
	case domain.InvoiceStatusVoid:
		return domain.Invoice{}, domain.ErrAlreadyVoid
	case domain.InvoiceStatusIssued:
	default:
		return domain.Invoice{}, domain.ErrInvalidStatus
	}

	now := time.Now().UTC()
	invoice.Status = domain.InvoiceStatusVoid
	invoice.VoidedAt = &now
	invoice.UpdatedAt = now

	if err := s.repo.Update(ctx, s.db, invoice); err != nil {
		return domain.Invoice{}, err
	}

	return *invoice, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	invoice, err := s.loadInvoice(ctx, id)
	if err != nil {
		return err
	}
	if invoice.Status != domain.InvoiceStatusDraft {
		return domain.ErrNotDraft
	}
	return s.repo.Delete(ctx, s.db, invoice.ID)
}

// GetByID loads the invoice and everything settled against it inside one
// transaction, so the engine always computes over a consistent snapshot.
func (s *Service) GetByID(ctx context.Context, id string) (domain.InvoiceDetail, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return domain.InvoiceDetail{}, domain.ErrInvalidID
	}

	var (
		invoice *domain.Invoice
		lines   []domain.InvoiceLine
		notes   []creditnotedomain.CreditNote
		pays    []paymentdomain.Payment
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err = s.repo.FindByID(ctx, tx, parsed)
		if err != nil {
			return err
		}
		if invoice == nil {
			return domain.ErrNotFound
		}
		if lines, err = s.repo.FindLines(ctx, tx, parsed); err != nil {
			return err
		}
		if notes, err = s.creditNotes.ListByInvoice(ctx, tx, parsed); err != nil {
			return err
		}
		pays, err = s.payments.ListByInvoice(ctx, tx, parsed)
		return err
	})
	if err != nil {
		return domain.InvoiceDetail{}, err
	}

	return s.materialize(*invoice, lines, notes, pays)
}

func (s *Service) materialize(invoice domain.Invoice, lines []domain.InvoiceLine, notes []creditnotedomain.CreditNote, pays []paymentdomain.Payment) (domain.InvoiceDetail, error) {
	totals, err := settlement.ComputeTotals(toSettlementLines(lines), invoice.Discount())
	if err != nil {
		return domain.InvoiceDetail{}, err
	}

	settlementNotes := make([]settlement.CreditNote, 0, len(notes))
	for _, note := range notes {
		settlementNotes = append(settlementNotes, note.ToSettlement())
	}
	settlementPays := make([]settlement.Payment, 0, len(pays))
	for _, pay := range pays {
		settlementPays = append(settlementPays, pay.ToSettlement())
	}

	summary, err := settlement.ComputeSettlement(totals.GrandTotal, settlementNotes, settlementPays)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}

	createdAt := invoice.CreatedAt
	timeline, err := settlement.BuildTimeline(settlement.DocumentMeta{
		ID:          invoice.ID.String(),
		CreatedAt:   &createdAt,
		Issued:      invoice.IssuedAt != nil,
		IssuedAt:    invoice.IssuedAt,
		InvoiceDate: invoice.InvoiceDate,
	}, settlementNotes, settlementPays, summary)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}

	return domain.InvoiceDetail{
		Invoice:    invoice,
		Lines:      lines,
		Totals:     totals,
		Settlement: summary,
		Timeline:   timeline,
	}, nil
}

func (s *Service) List(ctx context.Context, req domain.ListInvoiceRequest) (domain.ListInvoiceResponse, error) {
	filter := domain.ListInvoiceFilter{}
	if status := strings.ToUpper(strings.TrimSpace(req.Status)); status != "" {
		switch domain.InvoiceStatus(status) {
		case domain.InvoiceStatusDraft, domain.InvoiceStatusIssued, domain.InvoiceStatusVoid:
			filter.Status = domain.InvoiceStatus(status)
		default:
			return domain.ListInvoiceResponse{}, domain.ErrInvalidStatus
		}
	}
	if customerID := strings.TrimSpace(req.CustomerID); customerID != "" {
		if _, err := snowflake.ParseString(customerID); err != nil {
			return domain.ListInvoiceResponse{}, domain.ErrInvalidCustomer
		}
		filter.CustomerID = customerID
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListInvoiceResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(invoice *domain.Invoice) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        invoice.ID.String(),
			CreatedAt: invoice.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	invoices := make([]domain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}

	resp := domain.ListInvoiceResponse{Invoices: invoices}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) loadInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return nil, domain.ErrInvalidID
	}
	invoice, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, domain.ErrNotFound
	}
	return invoice, nil
}

func (s *Service) buildLines(invoiceID snowflake.ID, inputs []domain.LineInput) ([]domain.InvoiceLine, error) {
	now := time.Now().UTC()
	lines := make([]domain.InvoiceLine, 0, len(inputs))
	for i, input := range inputs {
		description := strings.TrimSpace(input.Description)
		if description == "" {
			return nil, domain.ErrInvalidLine
		}
		quantity, err := parseNonNegativeDecimal(input.Quantity)
		if err != nil {
			return nil, domain.ErrInvalidLine
		}
		unitPrice, err := parseNonNegativeDecimal(input.UnitPrice)
		if err != nil {
			return nil, domain.ErrInvalidLine
		}
		vatRate, err := parseVATRate(input.VATRate)
		if err != nil {
			return nil, err
		}

		lines = append(lines, domain.InvoiceLine{
			ID:          s.genID.Generate(),
			InvoiceID:   invoiceID,
			Position:    i + 1,
			Description: description,
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			VATRate:     vatRate,
			CreatedAt:   now,
		})
	}
	return lines, nil
}

func parseNonNegativeDecimal(value string) (decimal.Decimal, error) {
	parsed, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil || parsed.IsNegative() {
		return decimal.Decimal{}, domain.ErrInvalidLine
	}
	return parsed, nil
}

// parseVATRate accepts a fraction in [0,1]. Whole-number percentages are the
// UI's representation and must be divided by 100 before they get here.
func parseVATRate(value string) (decimal.Decimal, error) {
	parsed, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil || parsed.IsNegative() || parsed.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Decimal{}, domain.ErrInvalidLine
	}
	return parsed, nil
}

func parseDiscount(input *domain.DiscountInput) (string, decimal.Decimal, error) {
	if input == nil {
		return "", decimal.Zero, nil
	}
	kind := strings.ToLower(strings.TrimSpace(input.Kind))
	switch settlement.DiscountKind(kind) {
	case settlement.DiscountAmount, settlement.DiscountPercent:
	default:
		return "", decimal.Zero, domain.ErrInvalidDiscount
	}
	value, err := decimal.NewFromString(strings.TrimSpace(input.Value))
	if err != nil || value.IsNegative() {
		return "", decimal.Zero, domain.ErrInvalidDiscount
	}
	return kind, value, nil
}

func toSettlementLines(lines []domain.InvoiceLine) []settlement.LineItem {
	items := make([]settlement.LineItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, line.ToSettlement())
	}
	return items
}
