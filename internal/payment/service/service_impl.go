package service

import (
	"context"
	"strings"
	"time"

	invoicedomain "github.com/billora/billora/internal/invoice/domain"
	"github.com/billora/billora/internal/payment/domain"
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
		log:      p.Log.Named("payment.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		invoices: p.Invoices,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordPaymentRequest) (domain.Payment, error) {
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(req.InvoiceID))
	if err != nil || invoiceID == 0 {
		return domain.Payment{}, domain.ErrInvalidInvoice
	}
	invoice, err := s.invoices.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return domain.Payment{}, err
	}
	if invoice == nil {
		return domain.Payment{}, domain.ErrInvalidInvoice
	}
	if invoice.Status != invoicedomain.InvoiceStatusIssued {
		return domain.Payment{}, domain.ErrInvoiceNotIssued
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil || !amount.IsPositive() {
		return domain.Payment{}, domain.ErrInvalidAmount
	}

	now := time.Now().UTC()
	paidAt := now
	if req.PaidAt != nil {
		paidAt = req.PaidAt.UTC()
	}

	payment := domain.Payment{
		ID:        s.genID.Generate(),
		InvoiceID: invoiceID,
		PaidAt:    paidAt,
		Amount:    amount,
		Method:    strings.TrimSpace(req.Method),
		Reference: strings.TrimSpace(req.Reference),
		CreatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &payment); err != nil {
		return domain.Payment{}, err
	}

	s.log.Info("payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("invoice_id", invoiceID.String()),
		zap.String("amount", amount.StringFixed(2)),
	)

	return payment, nil
}

func (s *Service) ListByInvoice(ctx context.Context, invoiceID string) ([]domain.Payment, error) {
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
	payment, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return err
	}
	if payment == nil {
		return domain.ErrNotFound
	}
	return s.repo.Delete(ctx, s.db, parsed)
}
