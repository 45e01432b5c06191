package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	templatedomain "github.com/billora/billora/internal/invoicetemplate/domain"
	templaterepo "github.com/billora/billora/internal/invoicetemplate/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testDBSeq int64

func newService(t *testing.T) templatedomain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:templatesvc%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&templatedomain.InvoiceTemplate{}))

	node, err := snowflake.NewNode(5)
	require.NoError(t, err)

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  templaterepo.Provide(),
	})
}

func TestCreate_SlugsCode(t *testing.T) {
	svc := newService(t)

	tmpl, err := svc.Create(context.Background(), templatedomain.CreateRequest{
		Name:   "Modern Blue & Bold",
		Header: map[string]any{"line1": "Billora Ltd"},
	})
	require.NoError(t, err)
	assert.Equal(t, "modern-blue-and-bold", tmpl.Code)
	assert.Equal(t, "en", tmpl.Locale)

	fetched, err := svc.GetByCode(context.Background(), "modern-blue-and-bold")
	require.NoError(t, err)
	assert.Equal(t, tmpl.ID, fetched.ID)
}

func TestCreate_CodeConflict(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, templatedomain.CreateRequest{Name: "Classic"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, templatedomain.CreateRequest{Name: "Classic"})
	assert.ErrorIs(t, err, templatedomain.ErrCodeConflict)
}

func TestCreate_RejectsEmptyName(t *testing.T) {
	svc := newService(t)

	_, err := svc.Create(context.Background(), templatedomain.CreateRequest{Name: "   "})
	assert.ErrorIs(t, err, templatedomain.ErrInvalidName)
}

func TestDefaultHandover(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, templatedomain.CreateRequest{Name: "First", IsDefault: true})
	require.NoError(t, err)

	second, err := svc.Create(ctx, templatedomain.CreateRequest{Name: "Second", IsDefault: true})
	require.NoError(t, err)

	def, err := svc.GetDefault(ctx)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, second.ID, def.ID)

	refreshed, err := svc.GetByID(ctx, first.ID.String())
	require.NoError(t, err)
	assert.False(t, refreshed.IsDefault)

	promoted, err := svc.SetDefault(ctx, first.ID.String())
	require.NoError(t, err)
	assert.True(t, promoted.IsDefault)

	def, err = svc.GetDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, def.ID)
}

func TestGetDefault_NoneConfigured(t *testing.T) {
	svc := newService(t)

	def, err := svc.GetDefault(context.Background())
	require.NoError(t, err)
	assert.Nil(t, def)
}

func TestDelete_GuardsDefault(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	def, err := svc.Create(ctx, templatedomain.CreateRequest{Name: "Keeper", IsDefault: true})
	require.NoError(t, err)
	other, err := svc.Create(ctx, templatedomain.CreateRequest{Name: "Spare"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, def.ID.String()), templatedomain.ErrIsDefault)
	require.NoError(t, svc.Delete(ctx, other.ID.String()))

	_, err = svc.GetByID(ctx, other.ID.String())
	assert.ErrorIs(t, err, templatedomain.ErrNotFound)
}

func TestUpdate_KeepsCodeStable(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	tmpl, err := svc.Create(ctx, templatedomain.CreateRequest{Name: "Original"})
	require.NoError(t, err)

	name := "Renamed Entirely"
	updated, err := svc.Update(ctx, templatedomain.UpdateRequest{
		ID:     tmpl.ID.String(),
		Name:   &name,
		Footer: map[string]any{"line1": "Thank you for your business"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed Entirely", updated.Name)
	assert.Equal(t, tmpl.Code, updated.Code)
	assert.Equal(t, "Thank you for your business", updated.Footer["line1"])
}
