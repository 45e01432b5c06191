package domain

import (
	"time"

	"github.com/billora/billora/internal/settlement"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Payment is a manually recorded incoming payment. Amounts are always gross.
type Payment struct {
	ID        snowflake.ID    `gorm:"column:id;primaryKey" json:"id"`
	InvoiceID snowflake.ID    `gorm:"column:invoice_id;index" json:"invoice_id"`
	PaidAt    time.Time       `gorm:"column:paid_at" json:"paid_at"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(18,4)" json:"amount"`
	Method    string          `gorm:"column:method" json:"method,omitempty"`
	Reference string          `gorm:"column:reference" json:"reference,omitempty"`
	CreatedAt time.Time       `gorm:"column:created_at" json:"created_at"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p Payment) ToSettlement() settlement.Payment {
	return settlement.Payment{
		ID:     p.ID.String(),
		Date:   p.PaidAt,
		Amount: p.Amount,
		Method: p.Method,
	}
}
