package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// InvoiceTemplate describes how rendered documents look: header and footer
// blocks plus style knobs for the PDF renderer. Code is a URL-safe slug
// derived from the name and is stable across renames.
type InvoiceTemplate struct {
	ID        snowflake.ID      `gorm:"column:id;primaryKey" json:"id"`
	Code      string            `gorm:"column:code;uniqueIndex" json:"code"`
	Name      string            `gorm:"column:name" json:"name"`
	IsDefault bool              `gorm:"column:is_default" json:"is_default"`
	Locale    string            `gorm:"column:locale" json:"locale"`
	Header    datatypes.JSONMap `gorm:"column:header;type:jsonb" json:"header,omitempty"`
	Footer    datatypes.JSONMap `gorm:"column:footer;type:jsonb" json:"footer,omitempty"`
	Style     datatypes.JSONMap `gorm:"column:style;type:jsonb" json:"style,omitempty"`
	CreatedAt time.Time         `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time         `gorm:"column:updated_at" json:"updated_at"`
}

func (InvoiceTemplate) TableName() string {
	return "invoice_templates"
}

func ParseID(id string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return 0, ErrInvalidID
	}
	return parsed, nil
}
