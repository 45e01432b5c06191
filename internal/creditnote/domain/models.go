package domain

import (
	"time"

	"github.com/billora/billora/internal/settlement"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// CreditNote stores the declared amount representation alongside the amount
// itself. Rows never rely on field presence to signal whether VAT is
// included; amount_kind is always written explicitly.
type CreditNote struct {
	ID         snowflake.ID     `gorm:"column:id;primaryKey" json:"id"`
	InvoiceID  snowflake.ID     `gorm:"column:invoice_id;index" json:"invoice_id"`
	NoteDate   time.Time        `gorm:"column:note_date" json:"note_date"`
	AmountKind string           `gorm:"column:amount_kind" json:"amount_kind"`
	Amount     decimal.Decimal  `gorm:"column:amount;type:numeric(18,4)" json:"amount"`
	VATRate    *decimal.Decimal `gorm:"column:vat_rate;type:numeric(8,6)" json:"vat_rate,omitempty"`
	Reason     string           `gorm:"column:reason" json:"reason,omitempty"`
	CreatedAt  time.Time        `gorm:"column:created_at" json:"created_at"`
}

func (CreditNote) TableName() string {
	return "credit_notes"
}

func (n CreditNote) ToSettlement() settlement.CreditNote {
	return settlement.CreditNote{
		ID:         n.ID.String(),
		Date:       n.NoteDate,
		AmountKind: settlement.CreditNoteAmountKind(n.AmountKind),
		Amount:     n.Amount,
		VATRate:    n.VATRate,
		Reason:     n.Reason,
	}
}
