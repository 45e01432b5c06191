package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/billora/billora/internal/config"
	creditnotedomain "github.com/billora/billora/internal/creditnote/domain"
	creditnoterepo "github.com/billora/billora/internal/creditnote/repository"
	customerdomain "github.com/billora/billora/internal/customer/domain"
	customerrepo "github.com/billora/billora/internal/customer/repository"
	"github.com/billora/billora/internal/invoice/domain"
	invoicerepo "github.com/billora/billora/internal/invoice/repository"
	paymentdomain "github.com/billora/billora/internal/payment/domain"
	paymentrepo "github.com/billora/billora/internal/payment/repository"
	"github.com/billora/billora/internal/settlement"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db       *gorm.DB
	node     *snowflake.Node
	svc      *Service
	customer customerdomain.Customer
}

var testDBSeq int64

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:invoicesvc%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&customerdomain.Customer{},
		&domain.Invoice{},
		&domain.InvoiceLine{},
		&creditnotedomain.CreditNote{},
		&paymentdomain.Payment{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Repo:        invoicerepo.Provide(),
		Customers:   customerrepo.Provide(),
		CreditNotes: creditnoterepo.Provide(),
		Payments:    paymentrepo.Provide(),
		Settings:    config.NewStaticDocumentSettingsHolder(config.DefaultDocumentSettings()),
	}).(*Service)

	customer := customerdomain.Customer{
		ID:        node.Generate(),
		Name:      "Acme GmbH",
		Email:     "billing@acme.example",
		Currency:  "EUR",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(&customer).Error)

	return &testEnv{db: db, node: node, svc: svc, customer: customer}
}

func (e *testEnv) createDraft(t *testing.T, lines []domain.LineInput, discount *domain.DiscountInput) domain.Invoice {
	t.Helper()
	invoice, err := e.svc.CreateDraft(context.Background(), domain.CreateInvoiceRequest{
		CustomerID: e.customer.ID.String(),
		Lines:      lines,
		Discount:   discount,
	})
	require.NoError(t, err)
	return invoice
}

func simpleLines() []domain.LineInput {
	return []domain.LineInput{
		{Description: "Consulting", Quantity: "10", UnitPrice: "85", VATRate: "0.18"},
		{Description: "Hosting", Quantity: "1", UnitPrice: "49.99", VATRate: "0.05"},
	}
}

func TestCreateDraft_DefaultsFromCustomerAndSettings(t *testing.T) {
	env := newTestEnv(t)

	invoice := env.createDraft(t, simpleLines(), nil)

	assert.Equal(t, domain.InvoiceStatusDraft, invoice.Status)
	assert.Equal(t, "EUR", invoice.Currency)
	assert.Empty(t, invoice.Number)
	assert.Nil(t, invoice.IssuedAt)
}

func TestCreateDraft_RejectsUnknownCustomer(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.CreateDraft(context.Background(), domain.CreateInvoiceRequest{
		CustomerID: env.node.Generate().String(),
		Lines:      simpleLines(),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCustomer)
}

func TestCreateDraft_RejectsBadLineInput(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		line domain.LineInput
	}{
		{"negative quantity", domain.LineInput{Description: "x", Quantity: "-1", UnitPrice: "10", VATRate: "0.18"}},
		{"unparseable price", domain.LineInput{Description: "x", Quantity: "1", UnitPrice: "ten", VATRate: "0.18"}},
		{"vat rate above one", domain.LineInput{Description: "x", Quantity: "1", UnitPrice: "10", VATRate: "18"}},
		{"empty description", domain.LineInput{Description: "  ", Quantity: "1", UnitPrice: "10", VATRate: "0.18"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.CreateDraft(context.Background(), domain.CreateInvoiceRequest{
				CustomerID: env.customer.ID.String(),
				Lines:      []domain.LineInput{tc.line},
			})
			assert.ErrorIs(t, err, domain.ErrInvalidLine)
		})
	}
}

func TestCreateDraft_RejectsBadDiscount(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.CreateDraft(context.Background(), domain.CreateInvoiceRequest{
		CustomerID: env.customer.ID.String(),
		Lines:      simpleLines(),
		Discount:   &domain.DiscountInput{Kind: "coupon", Value: "10"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidDiscount)
}

func TestIssue_AssignsSequentialNumbers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.createDraft(t, simpleLines(), nil)
	second := env.createDraft(t, simpleLines(), nil)

	issuedFirst, err := env.svc.Issue(ctx, first.ID.String())
	require.NoError(t, err)
	issuedSecond, err := env.svc.Issue(ctx, second.ID.String())
	require.NoError(t, err)

	year := time.Now().UTC().Year()
	assert.Equal(t, fmt.Sprintf("INV-%d-0001", year), issuedFirst.Number)
	assert.Equal(t, fmt.Sprintf("INV-%d-0002", year), issuedSecond.Number)
	assert.Equal(t, domain.InvoiceStatusIssued, issuedFirst.Status)
	require.NotNil(t, issuedFirst.IssuedAt)
	require.NotNil(t, issuedFirst.DueAt)
	assert.Equal(t, 14, int(issuedFirst.DueAt.Sub(issuedFirst.InvoiceDate).Hours()/24))
}

func TestIssue_RejectsNonDraft(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	invoice := env.createDraft(t, simpleLines(), nil)
	_, err := env.svc.Issue(ctx, invoice.ID.String())
	require.NoError(t, err)

	_, err = env.svc.Issue(ctx, invoice.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotDraft)
}

func TestUpdateDraft_ReplacesLinesAndClearsDiscount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	invoice := env.createDraft(t, simpleLines(), &domain.DiscountInput{Kind: "percent", Value: "10"})

	updated, err := env.svc.UpdateDraft(ctx, domain.UpdateDraftRequest{
		ID:            invoice.ID.String(),
		ClearDiscount: true,
		Lines: []domain.LineInput{
			{Description: "Support retainer", Quantity: "2", UnitPrice: "150", VATRate: "0.18"},
		},
		ReplaceLines: true,
	})
	require.NoError(t, err)
	assert.Empty(t, updated.DiscountKind)

	detail, err := env.svc.GetByID(ctx, invoice.ID.String())
	require.NoError(t, err)
	require.Len(t, detail.Lines, 1)
	assert.Equal(t, "Support retainer", detail.Lines[0].Description)
	assert.True(t, detail.Totals.GrandTotal.Equal(decimal.RequireFromString("354.00")))
}

func TestUpdateDraft_RejectsIssuedInvoice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	invoice := env.createDraft(t, simpleLines(), nil)
	_, err := env.svc.Issue(ctx, invoice.ID.String())
	require.NoError(t, err)

	notes := "late edit"
	_, err = env.svc.UpdateDraft(ctx, domain.UpdateDraftRequest{
		ID:    invoice.ID.String(),
		Notes: &notes,
	})
	assert.ErrorIs(t, err, domain.ErrNotDraft)
}

func TestVoid_Transitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	invoice := env.createDraft(t, simpleLines(), nil)

	_, err := env.svc.Void(ctx, invoice.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = env.svc.Issue(ctx, invoice.ID.String())
	require.NoError(t, err)

	voided, err := env.svc.Void(ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusVoid, voided.Status)
	require.NotNil(t, voided.VoidedAt)

	_, err = env.svc.Void(ctx, invoice.ID.String())
	assert.ErrorIs(t, err, domain.ErrAlreadyVoid)
}

func TestDelete_DraftOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	draft := env.createDraft(t, simpleLines(), nil)
	require.NoError(t, env.svc.Delete(ctx, draft.ID.String()))

	_, err := env.svc.GetByID(ctx, draft.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	issued := env.createDraft(t, simpleLines(), nil)
	_, err = env.svc.Issue(ctx, issued.ID.String())
	require.NoError(t, err)
	assert.ErrorIs(t, env.svc.Delete(ctx, issued.ID.String()), domain.ErrNotDraft)
}

func TestGetByID_SettlesCreditsAndPayments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	invoice := env.createDraft(t, []domain.LineInput{
		{Description: "Licence", Quantity: "1", UnitPrice: "1000", VATRate: "0.18"},
	}, nil)
	issued, err := env.svc.Issue(ctx, invoice.ID.String())
	require.NoError(t, err)

	// Grand total is 1180.00. A gross credit of 180 and a payment of 500
	// leave 500 outstanding.
	require.NoError(t, env.db.Create(&creditnotedomain.CreditNote{
		ID:         env.node.Generate(),
		InvoiceID:  issued.ID,
		NoteDate:   time.Now().UTC(),
		AmountKind: string(settlement.AmountGross),
		Amount:     decimal.RequireFromString("180"),
		CreatedAt:  time.Now().UTC(),
	}).Error)
	require.NoError(t, env.db.Create(&paymentdomain.Payment{
		ID:        env.node.Generate(),
		InvoiceID: issued.ID,
		PaidAt:    time.Now().UTC(),
		Amount:    decimal.RequireFromString("500"),
		CreatedAt: time.Now().UTC(),
	}).Error)

	detail, err := env.svc.GetByID(ctx, issued.ID.String())
	require.NoError(t, err)

	assert.True(t, detail.Totals.GrandTotal.Equal(decimal.RequireFromString("1180.00")))
	assert.True(t, detail.Settlement.RemainingBalance.Equal(decimal.RequireFromString("500.00")))
	assert.False(t, detail.Settlement.FullyPaid)
	assert.False(t, detail.Settlement.Overpaid)

	// created, issued, credit note, payment; no paid event while a balance
	// remains.
	types := make([]settlement.EventType, 0, len(detail.Timeline))
	for _, event := range detail.Timeline {
		types = append(types, event.Type)
	}
	assert.Contains(t, types, settlement.EventCreated)
	assert.Contains(t, types, settlement.EventIssued)
	assert.Contains(t, types, settlement.EventCreditNote)
	assert.Contains(t, types, settlement.EventPayment)
	assert.NotContains(t, types, settlement.EventPaid)
}

func TestGetByID_FullyPaidProducesPaidEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	invoice := env.createDraft(t, []domain.LineInput{
		{Description: "Licence", Quantity: "1", UnitPrice: "100", VATRate: "0"},
	}, nil)
	issued, err := env.svc.Issue(ctx, invoice.ID.String())
	require.NoError(t, err)

	require.NoError(t, env.db.Create(&paymentdomain.Payment{
		ID:        env.node.Generate(),
		InvoiceID: issued.ID,
		PaidAt:    time.Now().UTC(),
		Amount:    decimal.RequireFromString("100"),
		CreatedAt: time.Now().UTC(),
	}).Error)

	detail, err := env.svc.GetByID(ctx, issued.ID.String())
	require.NoError(t, err)
	assert.True(t, detail.Settlement.FullyPaid)

	last := detail.Timeline[len(detail.Timeline)-1]
	assert.Equal(t, settlement.EventPaid, last.Type)
}

func TestList_FiltersByStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	draft := env.createDraft(t, simpleLines(), nil)
	other := env.createDraft(t, simpleLines(), nil)
	_, err := env.svc.Issue(ctx, other.ID.String())
	require.NoError(t, err)

	resp, err := env.svc.List(ctx, domain.ListInvoiceRequest{Status: "draft"})
	require.NoError(t, err)
	require.Len(t, resp.Invoices, 1)
	assert.Equal(t, draft.ID, resp.Invoices[0].ID)

	_, err = env.svc.List(ctx, domain.ListInvoiceRequest{Status: "bogus"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}
