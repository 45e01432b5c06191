package domain

import (
	"context"
	"time"

	"github.com/billora/billora/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice, lines []InvoiceLine) error
	Update(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	ReplaceLines(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, lines []InvoiceLine) error
	Delete(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	FindLines(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]InvoiceLine, error)
	List(ctx context.Context, db *gorm.DB, filter ListInvoiceFilter, page pagination.Pagination) ([]*Invoice, error)
	CountIssuedBetween(ctx context.Context, db *gorm.DB, from, to time.Time) (int64, error)
}
