package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/billora/billora/internal/activity/domain"
	activityrepo "github.com/billora/billora/internal/activity/repository"
	"github.com/billora/billora/pkg/db/pagination"
	"github.com/billora/billora/pkg/telemetry/correlation"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testDBSeq int64

func newService(t *testing.T) (*Service, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:activitysvc%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Entry{}))

	node, err := snowflake.NewNode(6)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  activityrepo.Provide(),
	}).(*Service)

	return svc, node
}

func TestRecord(t *testing.T) {
	svc, node := newService(t)
	ctx, _ := correlation.EnsureCorrelationID(context.Background())

	entityID := node.Generate().String()
	require.NoError(t, svc.Record(ctx, "invoice", &entityID, "invoice.issued", map[string]any{
		"number": "INV-2026-0001",
	}))

	resp, err := svc.List(context.Background(), domain.ListActivityRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)

	entry := resp.Entries[0]
	assert.Equal(t, "invoice", entry.EntityType)
	assert.Equal(t, "invoice.issued", entry.Action)
	require.NotNil(t, entry.EntityID)
	assert.Equal(t, entityID, *entry.EntityID)
	assert.NotEmpty(t, entry.CorrelationID)
	assert.Equal(t, "INV-2026-0001", entry.Metadata["number"])
}

func TestRecord_RejectsEmptyAction(t *testing.T) {
	svc, _ := newService(t)

	err := svc.Record(context.Background(), "invoice", nil, "  ", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidAction)
}

func TestList_Filters(t *testing.T) {
	svc, node := newService(t)
	ctx := context.Background()

	invoiceID := node.Generate().String()
	otherID := node.Generate().String()
	require.NoError(t, svc.Record(ctx, "invoice", &invoiceID, "invoice.created", nil))
	require.NoError(t, svc.Record(ctx, "invoice", &invoiceID, "invoice.issued", nil))
	require.NoError(t, svc.Record(ctx, "payment", &otherID, "payment.recorded", nil))

	resp, err := svc.List(ctx, domain.ListActivityRequest{EntityType: "invoice"})
	require.NoError(t, err)
	assert.Len(t, resp.Entries, 2)

	resp, err = svc.List(ctx, domain.ListActivityRequest{Action: "payment.recorded"})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "payment", resp.Entries[0].EntityType)

	resp, err = svc.List(ctx, domain.ListActivityRequest{EntityID: invoiceID})
	require.NoError(t, err)
	assert.Len(t, resp.Entries, 2)
}

func TestList_TimeRangeValidation(t *testing.T) {
	svc, _ := newService(t)

	start := time.Now().UTC()
	end := start.Add(-time.Hour)
	_, err := svc.List(context.Background(), domain.ListActivityRequest{StartAt: &start, EndAt: &end})
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
}

func TestList_Pagination(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Record(ctx, "invoice", nil, fmt.Sprintf("invoice.event%d", i), nil))
	}

	first, err := svc.List(ctx, domain.ListActivityRequest{
		Pagination: pagination.Pagination{PageSize: 3},
	})
	require.NoError(t, err)
	assert.Len(t, first.Entries, 3)
	require.True(t, first.HasMore)

	second, err := svc.List(ctx, domain.ListActivityRequest{
		Pagination: pagination.Pagination{PageSize: 3, PageToken: first.NextPageToken},
	})
	require.NoError(t, err)
	assert.Len(t, second.Entries, 2)
	assert.False(t, second.HasMore)

	_, err = svc.List(ctx, domain.ListActivityRequest{
		Pagination: pagination.Pagination{PageToken: "%%%"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}
