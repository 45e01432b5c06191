// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/billora/billora/internal/settlement"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft  InvoiceStatus = "DRAFT"
	InvoiceStatusIssued InvoiceStatus = "ISSUED"
	InvoiceStatusVoid   InvoiceStatus = "VOID"
)

// Invoice represents a customer invoice. Monetary fields are decimals; all
// arithmetic on them happens in the settlement package, never inline.
type Invoice struct {
	ID            snowflake.ID      `gorm:"primaryKey" json:"id"`
	CustomerID    snowflake.ID      `gorm:"not null;index" json:"customer_id"`
	Number        string            `gorm:"type:text;uniqueIndex:ux_invoice_number,where:number <> ''" json:"number,omitempty"`
	Status        InvoiceStatus     `gorm:"type:text;not null;default:'DRAFT'" json:"status"`
	Currency      string            `gorm:"type:text;not null" json:"currency"`
	InvoiceDate   time.Time         `gorm:"not null" json:"invoice_date"`
	DueAt         *time.Time        `gorm:"" json:"due_at,omitempty"`
	IssuedAt      *time.Time        `gorm:"" json:"issued_at,omitempty"`
	VoidedAt      *time.Time        `gorm:"" json:"voided_at,omitempty"`
	DiscountKind  string            `gorm:"type:text" json:"discount_kind,omitempty"`
	DiscountValue decimal.Decimal   `gorm:"type:numeric(18,4)" json:"discount_value"`
	Notes         string            `gorm:"type:text" json:"notes,omitempty"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// Discount maps the stored discount columns to the settlement input, or nil
// when no discount is set.
func (i Invoice) Discount() *settlement.Discount {
	if i.DiscountKind == "" {
		return nil
	}
	return &settlement.Discount{
		Kind:  settlement.DiscountKind(i.DiscountKind),
		Value: i.DiscountValue,
	}
}

// InvoiceLine represents a line on an invoice. VATRate is a fraction
// (0.18 = 18%); percentage input is normalized before it is stored.
type InvoiceLine struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID   snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Position    int             `gorm:"not null" json:"position"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"unit_price"`
	VATRate     decimal.Decimal `gorm:"type:numeric(8,4);not null" json:"vat_rate"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceLine) TableName() string { return "invoice_lines" }

// ToSettlement converts the stored line to the settlement input shape.
func (l InvoiceLine) ToSettlement() settlement.LineItem {
	return settlement.LineItem{
		Description: l.Description,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		VATRate:     l.VATRate,
	}
}
