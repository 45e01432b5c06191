package server

import (
	"net/http"
	"strings"

	creditnotedomain "github.com/billora/billora/internal/creditnote/domain"
	"github.com/gin-gonic/gin"
)

type createCreditNoteRequest struct {
	NoteDate   string  `json:"note_date"`
	AmountKind string  `json:"amount_kind"`
	Amount     string  `json:"amount"`
	VATRate    *string `json:"vat_rate"`
	Reason     string  `json:"reason"`
}

func (s *Server) CreateCreditNote(c *gin.Context) {
	var req createCreditNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	noteDate, err := parseOptionalTime(req.NoteDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("note_date", "invalid_note_date", "invalid note_date"))
		return
	}

	resp, err := s.creditSvc.Create(c.Request.Context(), creditnotedomain.CreateCreditNoteRequest{
		InvoiceID:  strings.TrimSpace(c.Param("id")),
		NoteDate:   noteDate,
		AmountKind: req.AmountKind,
		Amount:     req.Amount,
		VATRate:    req.VATRate,
		Reason:     req.Reason,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordActivity(c, "credit_note", resp.ID.String(), "credit_note.created", map[string]any{
		"invoice_id":  resp.InvoiceID.String(),
		"amount_kind": resp.AmountKind,
		"amount":      resp.Amount.StringFixed(2),
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInvoiceCreditNotes(c *gin.Context) {
	resp, err := s.creditSvc.ListByInvoice(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"credit_notes": resp}})
}

func (s *Server) DeleteCreditNote(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.creditSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordActivity(c, "credit_note", id, "credit_note.deleted", nil)

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func isCreditNoteValidationError(err error) bool {
	switch err {
	case creditnotedomain.ErrInvalidID,
		creditnotedomain.ErrInvalidInvoice,
		creditnotedomain.ErrInvalidAmount,
		creditnotedomain.ErrInvalidAmountKind,
		creditnotedomain.ErrInvalidVATRate:
		return true
	default:
		return false
	}
}
