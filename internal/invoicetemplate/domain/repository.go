package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tmpl *InvoiceTemplate) error
	Update(ctx context.Context, db *gorm.DB, tmpl *InvoiceTemplate) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*InvoiceTemplate, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*InvoiceTemplate, error)
	FindDefault(ctx context.Context, db *gorm.DB) (*InvoiceTemplate, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]InvoiceTemplate, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	UnsetDefault(ctx context.Context, db *gorm.DB) error
}
