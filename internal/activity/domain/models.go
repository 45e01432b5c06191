package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Entry is one line of the business activity feed, e.g. an invoice being
// issued or a payment being recorded. CorrelationID ties entries written
// during the same request together.
type Entry struct {
	ID            snowflake.ID      `gorm:"column:id;primaryKey" json:"id"`
	EntityType    string            `gorm:"column:entity_type;index" json:"entity_type"`
	EntityID      *string           `gorm:"column:entity_id;index" json:"entity_id,omitempty"`
	Action        string            `gorm:"column:action" json:"action"`
	CorrelationID string            `gorm:"column:correlation_id" json:"correlation_id,omitempty"`
	Metadata      datatypes.JSONMap `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time         `gorm:"column:created_at;index" json:"created_at"`
}

func (Entry) TableName() string {
	return "activity_entries"
}

// EntryCursor is the keyset position for activity pagination.
type EntryCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	EntityType string
	EntityID   string
	Action     string
	StartAt    *time.Time
	EndAt      *time.Time
	Cursor     *EntryCursor
	Limit      int
}
