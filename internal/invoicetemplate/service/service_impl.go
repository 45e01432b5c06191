package service

import (
	"context"
	"strings"
	"time"

	templatedomain "github.com/billora/billora/internal/invoicetemplate/domain"
	"github.com/billora/billora/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  templatedomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  templatedomain.Repository
}

func New(p Params) templatedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("invoicetemplate.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req templatedomain.CreateRequest) (*templatedomain.InvoiceTemplate, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, templatedomain.ErrInvalidName
	}

	locale := strings.TrimSpace(req.Locale)
	if locale == "" {
		locale = "en"
	}

	now := time.Now().UTC()
	tmpl := &templatedomain.InvoiceTemplate{
		ID:        s.genID.Generate(),
		Code:      slug.Make(name),
		Name:      name,
		IsDefault: req.IsDefault,
		Locale:    locale,
		Header:    normalizeMap(req.Header),
		Footer:    normalizeMap(req.Footer),
		Style:     normalizeMap(req.Style),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.IsDefault {
			if err := s.repo.UnsetDefault(ctx, tx); err != nil {
				return err
			}
		}
		return s.repo.Insert(ctx, tx, tmpl)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, templatedomain.ErrCodeConflict
		}
		return nil, err
	}

	return tmpl, nil
}

func (s *Service) List(ctx context.Context, req templatedomain.ListRequest) ([]templatedomain.InvoiceTemplate, error) {
	return s.repo.List(ctx, s.db, templatedomain.ListRequest{
		Name:      strings.TrimSpace(req.Name),
		IsDefault: req.IsDefault,
	})
}

func (s *Service) GetByID(ctx context.Context, id string) (*templatedomain.InvoiceTemplate, error) {
	templateID, err := templatedomain.ParseID(id)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FindByID(ctx, s.db, templateID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, templatedomain.ErrNotFound
	}
	return item, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*templatedomain.InvoiceTemplate, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, templatedomain.ErrInvalidID
	}
	item, err := s.repo.FindByCode(ctx, s.db, code)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, templatedomain.ErrNotFound
	}
	return item, nil
}

// GetDefault never fails on an empty table; callers that render documents
// fall back to the built-in layout when nil comes back.
func (s *Service) GetDefault(ctx context.Context) (*templatedomain.InvoiceTemplate, error) {
	return s.repo.FindDefault(ctx, s.db)
}

func (s *Service) Update(ctx context.Context, req templatedomain.UpdateRequest) (*templatedomain.InvoiceTemplate, error) {
	templateID, err := templatedomain.ParseID(req.ID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, s.db, templateID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, templatedomain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, templatedomain.ErrInvalidName
		}
		item.Name = name
	}
	if req.Locale != nil {
		locale := strings.TrimSpace(*req.Locale)
		if locale == "" {
			return nil, templatedomain.ErrInvalidLocale
		}
		item.Locale = locale
	}
	if req.Header != nil {
		item.Header = normalizeMap(req.Header)
	}
	if req.Footer != nil {
		item.Footer = normalizeMap(req.Footer)
	}
	if req.Style != nil {
		item.Style = normalizeMap(req.Style)
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) SetDefault(ctx context.Context, id string) (*templatedomain.InvoiceTemplate, error) {
	templateID, err := templatedomain.ParseID(id)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, s.db, templateID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, templatedomain.ErrNotFound
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.UnsetDefault(ctx, tx); err != nil {
			return err
		}
		item.IsDefault = true
		item.UpdatedAt = now
		return s.repo.Update(ctx, tx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	templateID, err := templatedomain.ParseID(id)
	if err != nil {
		return err
	}
	item, err := s.repo.FindByID(ctx, s.db, templateID)
	if err != nil {
		return err
	}
	if item == nil {
		return templatedomain.ErrNotFound
	}
	if item.IsDefault {
		return templatedomain.ErrIsDefault
	}
	return s.repo.Delete(ctx, s.db, templateID)
}

func normalizeMap(values map[string]any) datatypes.JSONMap {
	if len(values) == 0 {
		return datatypes.JSONMap{}
	}
	out := datatypes.JSONMap{}
	for key, value := range values {
		if key == "" {
			continue
		}
		out[key] = value
	}
	return out
}
