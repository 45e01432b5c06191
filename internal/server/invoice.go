package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	customerdomain "github.com/billora/billora/internal/customer/domain"
	invoicedomain "github.com/billora/billora/internal/invoice/domain"
	"github.com/billora/billora/internal/providers/email"
	"github.com/billora/billora/internal/providers/pdf"
	"github.com/billora/billora/pkg/db/pagination"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type invoiceLineRequest struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	VATRate     string `json:"vat_rate"`
}

type invoiceDiscountRequest struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

type createInvoiceRequest struct {
	CustomerID  string                  `json:"customer_id"`
	Currency    string                  `json:"currency"`
	InvoiceDate string                  `json:"invoice_date"`
	DueAt       string                  `json:"due_at"`
	Discount    *invoiceDiscountRequest `json:"discount"`
	Notes       string                  `json:"notes"`
	Lines       []invoiceLineRequest    `json:"lines"`
}

type updateInvoiceRequest struct {
	Currency      *string                 `json:"currency"`
	InvoiceDate   *string                 `json:"invoice_date"`
	DueAt         *string                 `json:"due_at"`
	Discount      *invoiceDiscountRequest `json:"discount"`
	ClearDiscount bool                    `json:"clear_discount"`
	Notes         *string                 `json:"notes"`
	Lines         *[]invoiceLineRequest   `json:"lines"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoiceDate, err := parseOptionalTime(req.InvoiceDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("invoice_date", "invalid_invoice_date", "invalid invoice_date"))
		return
	}
	dueAt, err := parseOptionalTime(req.DueAt, true)
	if err != nil {
		AbortWithError(c, newValidationError("due_at", "invalid_due_at", "invalid due_at"))
		return
	}

	resp, err := s.invoiceSvc.CreateDraft(c.Request.Context(), invoicedomain.CreateInvoiceRequest{
		CustomerID:  strings.TrimSpace(req.CustomerID),
		Currency:    strings.TrimSpace(req.Currency),
		InvoiceDate: invoiceDate,
		DueAt:       dueAt,
		Discount:    toDiscountInput(req.Discount),
		Notes:       req.Notes,
		Lines:       toLineInputs(req.Lines),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordActivity(c, "invoice", resp.ID.String(), "invoice.created", map[string]any{
		"customer_id": resp.CustomerID.String(),
		"currency":    resp.Currency,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	var req updateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := invoicedomain.UpdateDraftRequest{
		ID:            strings.TrimSpace(c.Param("id")),
		Currency:      req.Currency,
		Discount:      toDiscountInput(req.Discount),
		ClearDiscount: req.ClearDiscount,
		Notes:         req.Notes,
	}
	if req.InvoiceDate != nil {
		parsed, err := parseOptionalTime(*req.InvoiceDate, false)
		if err != nil || parsed == nil {
			AbortWithError(c, newValidationError("invoice_date", "invalid_invoice_date", "invalid invoice_date"))
			return
		}
		update.InvoiceDate = parsed
	}
	if req.DueAt != nil {
		parsed, err := parseOptionalTime(*req.DueAt, true)
		if err != nil || parsed == nil {
			AbortWithError(c, newValidationError("due_at", "invalid_due_at", "invalid due_at"))
			return
		}
		update.DueAt = parsed
	}
	if req.Lines != nil {
		update.Lines = toLineInputs(*req.Lines)
		update.ReplaceLines = true
	}

	resp, err := s.invoiceSvc.UpdateDraft(c.Request.Context(), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordActivity(c, "invoice", resp.ID.String(), "invoice.updated", nil)

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status     string `form:"status"`
		CustomerID string `form:"customer_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListInvoiceRequest{
		PageToken:  query.PageToken,
		PageSize:   int32(query.PageSize),
		Status:     strings.TrimSpace(query.Status),
		CustomerID: strings.TrimSpace(query.CustomerID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoiceTimeline(c *gin.Context) {
	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"timeline": resp.Timeline}})
}

func (s *Server) IssueInvoice(c *gin.Context) {
	resp, err := s.invoiceSvc.Issue(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordActivity(c, "invoice", resp.ID.String(), "invoice.issued", map[string]any{
		"number": resp.Number,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) VoidInvoice(c *gin.Context) {
	resp, err := s.invoiceSvc.Void(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordActivity(c, "invoice", resp.ID.String(), "invoice.voided", map[string]any{
		"number": resp.Number,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.invoiceSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordActivity(c, "invoice", id, "invoice.deleted", nil)

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) RenderInvoicePDF(c *gin.Context) {
	reader, detail, err := s.renderInvoice(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filename := detail.Invoice.Number
	if filename == "" {
		filename = detail.Invoice.ID.String()
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".pdf"))
	c.Data(http.StatusOK, "application/pdf", data)
}

func (s *Server) SendInvoice(c *gin.Context) {
	reader, detail, err := s.renderInvoice(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	customer, err := s.customerSvc.GetByID(c.Request.Context(), customerdomain.GetCustomerRequest{
		ID: detail.Invoice.CustomerID.String(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if customer.Email == "" {
		AbortWithError(c, newValidationError("email", "missing_customer_email", "customer has no email address"))
		return
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filename := detail.Invoice.Number
	if filename == "" {
		filename = detail.Invoice.ID.String()
	}

	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>Please find attached invoice %s. The outstanding balance is %s %s.</p>",
		customer.Name,
		detail.Invoice.Number,
		detail.Settlement.RemainingBalance.StringFixed(2),
		detail.Invoice.Currency,
	)

	err = s.emailSender.Send(c.Request.Context(), email.Message{
		To:       []string{customer.Email},
		Subject:  "Invoice " + detail.Invoice.Number,
		HTMLBody: body,
		Attachments: []email.Attachment{
			{
				Filename:    filename + ".pdf",
				ContentType: "application/pdf",
				Data:        data,
			},
		},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordActivity(c, "invoice", detail.Invoice.ID.String(), "invoice.sent", map[string]any{
		"number": detail.Invoice.Number,
		"email":  customer.Email,
	})

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"sent": true}})
}

func (s *Server) renderInvoice(c *gin.Context) (io.Reader, invoicedomain.InvoiceDetail, error) {
	detail, err := s.invoiceSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		return nil, invoicedomain.InvoiceDetail{}, err
	}
	if detail.Invoice.Status == invoicedomain.InvoiceStatusDraft {
		return nil, invoicedomain.InvoiceDetail{}, invoicedomain.ErrNotIssued
	}

	customer, err := s.customerSvc.GetByID(c.Request.Context(), customerdomain.GetCustomerRequest{
		ID: detail.Invoice.CustomerID.String(),
	})
	if err != nil {
		return nil, invoicedomain.InvoiceDetail{}, err
	}

	doc := s.buildInvoiceDocument(detail, customer)

	tmpl, err := s.templateSvc.GetDefault(c.Request.Context())
	if err != nil {
		return nil, invoicedomain.InvoiceDetail{}, err
	}
	if tmpl != nil {
		doc.HeaderLines = templateLines(tmpl.Header)
		doc.FooterLines = templateLines(tmpl.Footer)
	}

	reader, err := s.pdfProvider.RenderInvoice(c.Request.Context(), doc)
	if err != nil {
		return nil, invoicedomain.InvoiceDetail{}, err
	}
	return reader, detail, nil
}

func (s *Server) buildInvoiceDocument(detail invoicedomain.InvoiceDetail, customer customerdomain.Customer) pdf.InvoiceDocument {
	invoice := detail.Invoice

	doc := pdf.InvoiceDocument{
		Number:        invoice.Number,
		Status:        string(invoice.Status),
		IssueDate:     invoice.InvoiceDate.Format(dateOnlyLayout),
		Currency:      invoice.Currency,
		BillToName:    customer.Name,
		BillToEmail:   customer.Email,
		BillToVAT:     customer.VATNumber,
		NetTotal:      detail.Totals.NetTotal.StringFixed(2),
		TaxableAmount: detail.Totals.TaxableAmount.StringFixed(2),
		VATTotal:      detail.Totals.VATTotal.StringFixed(2),
		GrandTotal:    detail.Totals.GrandTotal.StringFixed(2),
		Balance:       detail.Settlement.RemainingBalance.StringFixed(2),
	}
	if invoice.IssuedAt != nil {
		doc.IssueDate = invoice.IssuedAt.Format(dateOnlyLayout)
	}
	if invoice.DueAt != nil {
		doc.DueDate = invoice.DueAt.Format(dateOnlyLayout)
	}
	if detail.Totals.DiscountAmount.IsPositive() {
		doc.DiscountAmount = detail.Totals.DiscountAmount.StringFixed(2)
	}
	if detail.Settlement.TotalCreditsGross.IsPositive() {
		doc.TotalCredits = detail.Settlement.TotalCreditsGross.StringFixed(2)
	}
	if detail.Settlement.TotalPaymentsGross.IsPositive() {
		doc.TotalPayments = detail.Settlement.TotalPaymentsGross.StringFixed(2)
	}

	address := joinNonEmpty(", ", customer.Street, customer.City, customer.PostCode, customer.Country)
	doc.BillToAddress = address

	hundred := decimal.NewFromInt(100)
	for _, line := range detail.Lines {
		amount := line.Quantity.Mul(line.UnitPrice).Round(2)
		doc.Lines = append(doc.Lines, pdf.InvoiceLine{
			Description: line.Description,
			Quantity:    line.Quantity.String(),
			UnitPrice:   line.UnitPrice.StringFixed(2),
			VATRate:     line.VATRate.Mul(hundred).String() + "%",
			Amount:      amount.StringFixed(2),
		})
	}

	return doc
}

func templateLines(values map[string]any) []string {
	if len(values) == 0 {
		return nil
	}
	lines := make([]string, 0, len(values))
	for _, key := range []string{"line1", "line2", "line3", "line4"} {
		if value, ok := values[key].(string); ok && value != "" {
			lines = append(lines, value)
		}
	}
	return lines
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, sep)
}

func toDiscountInput(req *invoiceDiscountRequest) *invoicedomain.DiscountInput {
	if req == nil {
		return nil
	}
	return &invoicedomain.DiscountInput{
		Kind:  req.Kind,
		Value: req.Value,
	}
}

func toLineInputs(lines []invoiceLineRequest) []invoicedomain.LineInput {
	inputs := make([]invoicedomain.LineInput, 0, len(lines))
	for _, line := range lines {
		inputs = append(inputs, invoicedomain.LineInput{
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			VATRate:     line.VATRate,
		})
	}
	return inputs
}

func isInvoiceValidationError(err error) bool {
	switch err {
	case invoicedomain.ErrInvalidID,
		invoicedomain.ErrInvalidCustomer,
		invoicedomain.ErrInvalidCurrency,
		invoicedomain.ErrInvalidLine,
		invoicedomain.ErrInvalidDiscount,
		invoicedomain.ErrInvalidStatus:
		return true
	default:
		return false
	}
}
