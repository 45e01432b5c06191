package server

import (
	"net/http"
	"strings"

	customerdomain "github.com/billora/billora/internal/customer/domain"
	"github.com/billora/billora/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type createCustomerRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Currency  string `json:"currency"`
	VATNumber string `json:"vat_number"`
	Street    string `json:"street"`
	City      string `json:"city"`
	PostCode  string `json:"post_code"`
	Country   string `json:"country"`
}

type updateCustomerRequest struct {
	Name      *string `json:"name"`
	Email     *string `json:"email"`
	Currency  *string `json:"currency"`
	VATNumber *string `json:"vat_number"`
	Street    *string `json:"street"`
	City      *string `json:"city"`
	PostCode  *string `json:"post_code"`
	Country   *string `json:"country"`
}

func (s *Server) CreateCustomer(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.Create(c.Request.Context(), customerdomain.CreateCustomerRequest{
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Currency:  strings.TrimSpace(req.Currency),
		VATNumber: strings.TrimSpace(req.VATNumber),
		Street:    strings.TrimSpace(req.Street),
		City:      strings.TrimSpace(req.City),
		PostCode:  strings.TrimSpace(req.PostCode),
		Country:   strings.TrimSpace(req.Country),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordActivity(c, "customer", resp.ID.String(), "customer.created", map[string]any{
		"name":  resp.Name,
		"email": resp.Email,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateCustomer(c *gin.Context) {
	var req updateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.Update(c.Request.Context(), customerdomain.UpdateCustomerRequest{
		ID:        strings.TrimSpace(c.Param("id")),
		Name:      req.Name,
		Email:     req.Email,
		Currency:  req.Currency,
		VATNumber: req.VATNumber,
		Street:    req.Street,
		City:      req.City,
		PostCode:  req.PostCode,
		Country:   req.Country,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordActivity(c, "customer", resp.ID.String(), "customer.updated", map[string]any{
		"name": resp.Name,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCustomers(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name     string `form:"name"`
		Email    string `form:"email"`
		Currency string `form:"currency"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.List(c.Request.Context(), customerdomain.ListCustomerRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
		Name:      strings.TrimSpace(query.Name),
		Email:     strings.TrimSpace(query.Email),
		Currency:  strings.TrimSpace(query.Currency),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCustomerByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.customerSvc.GetByID(c.Request.Context(), customerdomain.GetCustomerRequest{
		ID: id,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isCustomerValidationError(err error) bool {
	switch err {
	case customerdomain.ErrInvalidName,
		customerdomain.ErrInvalidEmail,
		customerdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
