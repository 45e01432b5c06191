package domain

import (
	"context"
	"errors"
)

type CreateRequest struct {
	Name      string
	IsDefault bool
	Locale    string
	Header    map[string]any
	Footer    map[string]any
	Style     map[string]any
}

type UpdateRequest struct {
	ID     string
	Name   *string
	Locale *string
	Header map[string]any
	Footer map[string]any
	Style  map[string]any
}

type ListRequest struct {
	Name      string
	IsDefault *bool
}

type Service interface {
	Create(context.Context, CreateRequest) (*InvoiceTemplate, error)
	List(context.Context, ListRequest) ([]InvoiceTemplate, error)
	GetByID(ctx context.Context, id string) (*InvoiceTemplate, error)
	GetByCode(ctx context.Context, code string) (*InvoiceTemplate, error)
	GetDefault(ctx context.Context) (*InvoiceTemplate, error)
	Update(context.Context, UpdateRequest) (*InvoiceTemplate, error)
	SetDefault(ctx context.Context, id string) (*InvoiceTemplate, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidLocale = errors.New("invalid_locale")
	ErrCodeConflict  = errors.New("code_conflict")
	ErrNotFound      = errors.New("not_found")
	ErrIsDefault     = errors.New("template_is_default")
)
