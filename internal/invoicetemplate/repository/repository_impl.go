package repository

import (
	"context"
	"strings"

	templatedomain "github.com/billora/billora/internal/invoicetemplate/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() templatedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tmpl *templatedomain.InvoiceTemplate) error {
	return db.WithContext(ctx).Create(tmpl).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, tmpl *templatedomain.InvoiceTemplate) error {
	return db.WithContext(ctx).Save(tmpl).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*templatedomain.InvoiceTemplate, error) {
	var tmpl templatedomain.InvoiceTemplate
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&tmpl).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &tmpl, nil
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*templatedomain.InvoiceTemplate, error) {
	var tmpl templatedomain.InvoiceTemplate
	err := db.WithContext(ctx).
		Where("code = ?", strings.TrimSpace(code)).
		First(&tmpl).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &tmpl, nil
}

func (r *repo) FindDefault(ctx context.Context, db *gorm.DB) (*templatedomain.InvoiceTemplate, error) {
	var tmpl templatedomain.InvoiceTemplate
	err := db.WithContext(ctx).
		Where("is_default = ?", true).
		First(&tmpl).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &tmpl, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter templatedomain.ListRequest) ([]templatedomain.InvoiceTemplate, error) {
	var templates []templatedomain.InvoiceTemplate
	stmt := db.WithContext(ctx).Model(&templatedomain.InvoiceTemplate{})
	if name := strings.TrimSpace(filter.Name); name != "" {
		stmt = stmt.Where("name LIKE ?", "%"+name+"%")
	}
	if filter.IsDefault != nil {
		stmt = stmt.Where("is_default = ?", *filter.IsDefault)
	}
	err := stmt.
		Order("created_at desc, id desc").
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&templatedomain.InvoiceTemplate{}).Error
}

func (r *repo) UnsetDefault(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).
		Model(&templatedomain.InvoiceTemplate{}).
		Where("is_default = ?", true).
		Update("is_default", false).Error
}
