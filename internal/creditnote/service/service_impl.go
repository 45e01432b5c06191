package service

import (
	"context"
	"strings"
	"time"

	"github.com/billora/billora/internal/creditnote/domain"
	invoicedomain "github.com/billora/billora/internal/invoice/domain"
	"github.com/billora/billora/internal/settlement"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Invoices invoicedomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	invoices invoicedomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("creditnote.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		invoices: p.Invoices,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCreditNoteRequest) (domain.CreditNote, error) {
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(req.InvoiceID))
	if err != nil || invoiceID == 0 {
		return domain.CreditNote{}, domain.ErrInvalidInvoice
	}
	invoice, err := s.invoices.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return domain.CreditNote{}, err
	}
	if invoice == nil {
		return domain.CreditNote{}, domain.ErrInvalidInvoice
	}
	if invoice.Status != invoicedomain.InvoiceStatusIssued {
		return domain.CreditNote{}, domain.ErrInvoiceNotIssued
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil || !amount.IsPositive() {
		return domain.CreditNote{}, domain.ErrInvalidAmount
	}

	kind := settlement.CreditNoteAmountKind(strings.ToLower(strings.TrimSpace(req.AmountKind)))
	var vatRate *decimal.Decimal
	switch kind {
	case settlement.AmountGross:
		if req.VATRate != nil {
			return domain.CreditNote{}, domain.ErrInvalidVATRate
		}
	case settlement.AmountNetPlusVAT:
		if req.VATRate == nil {
			return domain.CreditNote{}, domain.ErrInvalidVATRate
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(*req.VATRate))
		if err != nil || rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return domain.CreditNote{}, domain.ErrInvalidVATRate
		}
		vatRate = &rate
	default:
		return domain.CreditNote{}, domain.ErrInvalidAmountKind
	}

	now := time.Now().UTC()
	noteDate := now
	if req.NoteDate != nil {
		noteDate = req.NoteDate.UTC()
	}

	note := domain.CreditNote{
		ID:         s.genID.Generate(),
		InvoiceID:  invoiceID,
		NoteDate:   noteDate,
		AmountKind: string(kind),
		Amount:     amount,
		VATRate:    vatRate,
		Reason:     strings.TrimSpace(req.Reason),
		CreatedAt:  now,
	}

	// A row that the engine cannot normalize must never be stored.
	if _, err := note.ToSettlement().GrossAmount(); err != nil {
		return domain.CreditNote{}, err
	}

	if err := s.repo.Insert(ctx, s.db, &note); err != nil {
		return domain.CreditNote{}, err
	}

	s.log.Info("credit note recorded",
		zap.String("credit_note_id", note.ID.String()),
		zap.String("invoice_id", invoiceID.String()),
		zap.String("amount_kind", note.AmountKind),
	)

	return note, nil
}

func (s *Service) ListByInvoice(ctx context.Context, invoiceID string) ([]domain.CreditNote, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(invoiceID))
	if err != nil || parsed == 0 {
		return nil, domain.ErrInvalidInvoice
	}
	return s.repo.ListByInvoice(ctx, s.db, parsed)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return domain.ErrInvalidID
	}
	note, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return err
	}
	if note == nil {
		return domain.ErrNotFound
	}
	return s.repo.Delete(ctx, s.db, parsed)
}
