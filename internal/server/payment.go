package server

import (
	"net/http"
	"strings"

	paymentdomain "github.com/billora/billora/internal/payment/domain"
	"github.com/gin-gonic/gin"
)

type recordPaymentRequest struct {
	PaidAt    string `json:"paid_at"`
	Amount    string `json:"amount"`
	Method    string `json:"method"`
	Reference string `json:"reference"`
}

func (s *Server) RecordPayment(c *gin.Context) {
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	paidAt, err := parseOptionalTime(req.PaidAt, false)
	if err != nil {
		AbortWithError(c, newValidationError("paid_at", "invalid_paid_at", "invalid paid_at"))
		return
	}

	resp, err := s.paymentSvc.Record(c.Request.Context(), paymentdomain.RecordPaymentRequest{
		InvoiceID: strings.TrimSpace(c.Param("id")),
		PaidAt:    paidAt,
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: req.Reference,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordActivity(c, "payment", resp.ID.String(), "payment.recorded", map[string]any{
		"invoice_id": resp.InvoiceID.String(),
		"amount":     resp.Amount.StringFixed(2),
		"method":     resp.Method,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInvoicePayments(c *gin.Context) {
	resp, err := s.paymentSvc.ListByInvoice(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"payments": resp}})
}

func (s *Server) DeletePayment(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.paymentSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordActivity(c, "payment", id, "payment.deleted", nil)

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func isPaymentValidationError(err error) bool {
	switch err {
	case paymentdomain.ErrInvalidID,
		paymentdomain.ErrInvalidInvoice,
		paymentdomain.ErrInvalidAmount:
		return true
	default:
		return false
	}
}
