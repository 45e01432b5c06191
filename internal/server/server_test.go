package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	activitydomain "github.com/billora/billora/internal/activity/domain"
	activityrepo "github.com/billora/billora/internal/activity/repository"
	activityservice "github.com/billora/billora/internal/activity/service"
	"github.com/billora/billora/internal/config"
	creditnotedomain "github.com/billora/billora/internal/creditnote/domain"
	creditnoterepo "github.com/billora/billora/internal/creditnote/repository"
	creditnoteservice "github.com/billora/billora/internal/creditnote/service"
	customerdomain "github.com/billora/billora/internal/customer/domain"
	customerrepo "github.com/billora/billora/internal/customer/repository"
	customerservice "github.com/billora/billora/internal/customer/service"
	invoicedomain "github.com/billora/billora/internal/invoice/domain"
	invoicerepo "github.com/billora/billora/internal/invoice/repository"
	invoiceservice "github.com/billora/billora/internal/invoice/service"
	invoicetemplatedomain "github.com/billora/billora/internal/invoicetemplate/domain"
	invoicetemplaterepo "github.com/billora/billora/internal/invoicetemplate/repository"
	invoicetemplateservice "github.com/billora/billora/internal/invoicetemplate/service"
	paymentdomain "github.com/billora/billora/internal/payment/domain"
	paymentrepo "github.com/billora/billora/internal/payment/repository"
	paymentservice "github.com/billora/billora/internal/payment/service"
	"github.com/billora/billora/internal/providers/email"
	"github.com/billora/billora/internal/providers/pdf"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testDBSeq int64

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	dsn := fmt.Sprintf("file:server%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&customerdomain.Customer{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceLine{},
		&creditnotedomain.CreditNote{},
		&paymentdomain.Payment{},
		&activitydomain.Entry{},
		&invoicetemplatedomain.InvoiceTemplate{},
	))

	node, err := snowflake.NewNode(7)
	require.NoError(t, err)

	log := zap.NewNop()
	settings := config.NewStaticDocumentSettingsHolder(config.DefaultDocumentSettings())

	invoiceRepo := invoicerepo.Provide()
	customerRepo := customerrepo.Provide()
	creditRepo := creditnoterepo.Provide()
	paymentRepo := paymentrepo.Provide()

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	return NewServer(ServerParams{
		Gin:      engine,
		Cfg:      config.Config{},
		DB:       db,
		GenID:    node,
		Settings: settings,
		CustomerSvc: customerservice.New(customerservice.Params{
			DB: db, Log: log, GenID: node, Repo: customerRepo,
		}),
		InvoiceSvc: invoiceservice.New(invoiceservice.Params{
			DB: db, Log: log, GenID: node, Repo: invoiceRepo,
			Customers: customerRepo, CreditNotes: creditRepo, Payments: paymentRepo,
			Settings: settings,
		}),
		CreditSvc: creditnoteservice.New(creditnoteservice.Params{
			DB: db, Log: log, GenID: node, Repo: creditRepo, Invoices: invoiceRepo,
		}),
		PaymentSvc: paymentservice.New(paymentservice.Params{
			DB: db, Log: log, GenID: node, Repo: paymentRepo, Invoices: invoiceRepo,
		}),
		ActivitySvc: activityservice.New(activityservice.Params{
			DB: db, Log: log, GenID: node, Repo: activityrepo.Provide(),
		}),
		TemplateSvc: invoicetemplateservice.New(invoicetemplateservice.Params{
			DB: db, Log: log, GenID: node, Repo: invoicetemplaterepo.Provide(),
		}),
		PDFProvider: &pdf.NoOpProvider{},
		EmailSender: &email.NoOpProvider{},
	})
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload
}

func createCustomerHTTP(t *testing.T, s *Server) string {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/v1/customers", gin.H{
		"name":     "Acme GmbH",
		"email":    "billing@acme.example",
		"currency": "EUR",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeBody(t, w)["data"].(map[string]any)
	return fmt.Sprintf("%v", data["id"])
}

func createDraftHTTP(t *testing.T, s *Server, customerID string) string {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/v1/invoices", gin.H{
		"customer_id": customerID,
		"lines": []gin.H{
			{"description": "Licence", "quantity": "1", "unit_price": "1000", "vat_rate": "0.18"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeBody(t, w)["data"].(map[string]any)
	return fmt.Sprintf("%v", data["id"])
}

func TestCreateCustomer_ValidationPayload(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/v1/customers", gin.H{
		"name":  "Acme",
		"email": "not-an-email",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	payload := decodeBody(t, w)
	errBody := payload["error"].(map[string]any)
	assert.Equal(t, "validation_error", errBody["type"])
	errs := errBody["errors"].([]any)
	require.Len(t, errs, 1)
	first := errs[0].(map[string]any)
	assert.Equal(t, "invalid_email", first["code"])
	assert.Equal(t, "email", first["field"])
}

func TestInvoiceLifecycleHTTP(t *testing.T) {
	s := newTestServer(t)
	customerID := createCustomerHTTP(t, s)
	invoiceID := createDraftHTTP(t, s, customerID)

	// Issue once, then a second attempt conflicts.
	w := doJSON(t, s, http.MethodPost, "/v1/invoices/"+invoiceID+"/issue", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	issued := decodeBody(t, w)["data"].(map[string]any)
	assert.NotEmpty(t, issued["number"])
	assert.Equal(t, "ISSUED", issued["status"])

	w = doJSON(t, s, http.MethodPost, "/v1/invoices/"+invoiceID+"/issue", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Issued invoices cannot be edited.
	w = doJSON(t, s, http.MethodPatch, "/v1/invoices/"+invoiceID, gin.H{"notes": "late edit"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Settle part of the balance.
	w = doJSON(t, s, http.MethodPost, "/v1/invoices/"+invoiceID+"/payments", gin.H{"amount": "500"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, s, http.MethodGet, "/v1/invoices/"+invoiceID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decodeBody(t, w)["data"].(map[string]any)
	totals := detail["totals"].(map[string]any)
	assert.Equal(t, "1180", fmt.Sprintf("%v", totals["grand_total"]))
	settlementBody := detail["settlement"].(map[string]any)
	assert.Equal(t, "680", fmt.Sprintf("%v", settlementBody["remaining_balance"]))

	w = doJSON(t, s, http.MethodGet, "/v1/invoices/"+invoiceID+"/timeline", nil)
	require.Equal(t, http.StatusOK, w.Code)
	timeline := decodeBody(t, w)["data"].(map[string]any)["timeline"].([]any)
	assert.GreaterOrEqual(t, len(timeline), 3)

	// Mutations show up in the activity feed.
	w = doJSON(t, s, http.MethodGet, "/v1/activity?entity_type=invoice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	feed := decodeBody(t, w)["data"].(map[string]any)["entries"].([]any)
	assert.NotEmpty(t, feed)
}

func TestCreditNoteHTTP_RejectsAmbiguousRepresentation(t *testing.T) {
	s := newTestServer(t)
	customerID := createCustomerHTTP(t, s)
	invoiceID := createDraftHTTP(t, s, customerID)

	// Credit notes against a draft conflict.
	w := doJSON(t, s, http.MethodPost, "/v1/invoices/"+invoiceID+"/credit-notes", gin.H{
		"amount_kind": "gross",
		"amount":      "50",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, s, http.MethodPost, "/v1/invoices/"+invoiceID+"/issue", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// A gross amount with a VAT rate does not identify one representation.
	w = doJSON(t, s, http.MethodPost, "/v1/invoices/"+invoiceID+"/credit-notes", gin.H{
		"amount_kind": "gross",
		"amount":      "50",
		"vat_rate":    "0.18",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	errBody := decodeBody(t, w)["error"].(map[string]any)
	assert.Equal(t, "validation_error", errBody["type"])

	w = doJSON(t, s, http.MethodPost, "/v1/invoices/"+invoiceID+"/credit-notes", gin.H{
		"amount_kind": "net_plus_vat",
		"amount":      "50",
		"vat_rate":    "0.18",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, s, http.MethodGet, "/v1/invoices/"+invoiceID+"/credit-notes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	notes := decodeBody(t, w)["data"].(map[string]any)["credit_notes"].([]any)
	assert.Len(t, notes, 1)
}

func TestGetInvoice_NotFound(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/v1/invoices/123456789", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	errBody := decodeBody(t, w)["error"].(map[string]any)
	assert.Equal(t, "not_found", errBody["type"])
}

func TestRenderPDF_RequiresIssuedInvoice(t *testing.T) {
	s := newTestServer(t)
	customerID := createCustomerHTTP(t, s)
	invoiceID := createDraftHTTP(t, s, customerID)

	w := doJSON(t, s, http.MethodGet, "/v1/invoices/"+invoiceID+"/pdf", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, s, http.MethodPost, "/v1/invoices/"+invoiceID+"/issue", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/v1/invoices/"+invoiceID+"/pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".pdf")
}

func TestSendInvoiceHTTP(t *testing.T) {
	s := newTestServer(t)
	customerID := createCustomerHTTP(t, s)
	invoiceID := createDraftHTTP(t, s, customerID)

	w := doJSON(t, s, http.MethodPost, "/v1/invoices/"+invoiceID+"/issue", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodPost, "/v1/invoices/"+invoiceID+"/send", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, true, data["sent"])
}

func TestTemplateRoutesHTTP(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/v1/templates", gin.H{
		"name":       "Modern",
		"is_default": true,
		"header":     gin.H{"line1": "Billora Ltd"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tmpl := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "modern", tmpl["code"])

	// Same name means same code.
	w = doJSON(t, s, http.MethodPost, "/v1/templates", gin.H{"name": "Modern"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, s, http.MethodGet, "/v1/templates/modern", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The default template cannot be deleted.
	w = doJSON(t, s, http.MethodDelete, "/v1/templates/modern", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDocumentSettingsHTTP(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/v1/settings/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "INV", data["number_prefix"])
}
