package server

import (
	"net/http"
	"strings"

	invoicetemplatedomain "github.com/billora/billora/internal/invoicetemplate/domain"
	"github.com/gin-gonic/gin"
)

type createTemplateRequest struct {
	Name      string         `json:"name"`
	IsDefault bool           `json:"is_default"`
	Locale    string         `json:"locale"`
	Header    map[string]any `json:"header"`
	Footer    map[string]any `json:"footer"`
	Style     map[string]any `json:"style"`
}

type updateTemplateRequest struct {
	Name   *string        `json:"name"`
	Locale *string        `json:"locale"`
	Header map[string]any `json:"header"`
	Footer map[string]any `json:"footer"`
	Style  map[string]any `json:"style"`
}

func (s *Server) CreateInvoiceTemplate(c *gin.Context) {
	var req createTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.templateSvc.Create(c.Request.Context(), invoicetemplatedomain.CreateRequest{
		Name:      req.Name,
		IsDefault: req.IsDefault,
		Locale:    req.Locale,
		Header:    req.Header,
		Footer:    req.Footer,
		Style:     req.Style,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordActivity(c, "invoice_template", resp.ID.String(), "invoice_template.created", map[string]any{
		"code": resp.Code,
		"name": resp.Name,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInvoiceTemplates(c *gin.Context) {
	var query struct {
		Name      string `form:"name"`
		IsDefault string `form:"is_default"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	isDefault, err := parseOptionalBool(query.IsDefault)
	if err != nil {
		AbortWithError(c, newValidationError("is_default", "invalid_is_default", "invalid is_default"))
		return
	}

	resp, err := s.templateSvc.List(c.Request.Context(), invoicetemplatedomain.ListRequest{
		Name:      strings.TrimSpace(query.Name),
		IsDefault: isDefault,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"templates": resp}})
}

func (s *Server) GetInvoiceTemplateByCode(c *gin.Context) {
	resp, err := s.templateSvc.GetByCode(c.Request.Context(), strings.TrimSpace(c.Param("code")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateInvoiceTemplate(c *gin.Context) {
	var req updateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	tmpl, err := s.templateSvc.GetByCode(c.Request.Context(), strings.TrimSpace(c.Param("code")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.templateSvc.Update(c.Request.Context(), invoicetemplatedomain.UpdateRequest{
		ID:     tmpl.ID.String(),
		Name:   req.Name,
		Locale: req.Locale,
		Header: req.Header,
		Footer: req.Footer,
		Style:  req.Style,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordActivity(c, "invoice_template", resp.ID.String(), "invoice_template.updated", map[string]any{
		"code": resp.Code,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SetDefaultInvoiceTemplate(c *gin.Context) {
	tmpl, err := s.templateSvc.GetByCode(c.Request.Context(), strings.TrimSpace(c.Param("code")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.templateSvc.SetDefault(c.Request.Context(), tmpl.ID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordActivity(c, "invoice_template", resp.ID.String(), "invoice_template.default_set", map[string]any{
		"code": resp.Code,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteInvoiceTemplate(c *gin.Context) {
	tmpl, err := s.templateSvc.GetByCode(c.Request.Context(), strings.TrimSpace(c.Param("code")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.templateSvc.Delete(c.Request.Context(), tmpl.ID.String()); err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordActivity(c, "invoice_template", tmpl.ID.String(), "invoice_template.deleted", map[string]any{
		"code": tmpl.Code,
	})

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func isTemplateValidationError(err error) bool {
	switch err {
	case invoicetemplatedomain.ErrInvalidID,
		invoicetemplatedomain.ErrInvalidName,
		invoicetemplatedomain.ErrInvalidLocale:
		return true
	default:
		return false
	}
}
