package stats

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/brewbar/internal/entity"
	"github.com/Additional-Code/brewbar/internal/provision"
	"github.com/Additional-Code/brewbar/internal/testutil"
)

func TestAggregate(t *testing.T) {
	ctx := context.Background()
	conns := testutil.NewConnections(t)
	require.NoError(t, provision.New(conns.Writer, provision.Options{}, nil, nil).EnsureReady(ctx))

	day := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	orders := []*entity.Order{
		{Customer: "a", Status: "pending", Total: decimal.RequireFromString("14.00"), CreatedAt: day.Add(9 * time.Hour)},
		{Customer: "b", Status: "preparing", Total: decimal.RequireFromString("3.50"), CreatedAt: day.Add(10 * time.Hour)},
		{Customer: "c", Status: "ready", Total: decimal.RequireFromString("5.25"), CreatedAt: day.Add(11 * time.Hour)},
		{Customer: "d", Status: "delivered", Total: decimal.RequireFromString("8.00"), CreatedAt: day.Add(-2 * time.Hour)},
		{Customer: "e", Status: "cancelled", Total: decimal.RequireFromString("99.00"), CreatedAt: day.Add(12 * time.Hour)},
	}
	_, err := conns.Writer.NewInsert().Model(&orders).Exec(ctx)
	require.NoError(t, err)

	snap, err := NewRepository(conns).Aggregate(ctx, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, int64(4), snap.TotalOrders)
	assert.Equal(t, int64(1), snap.Pending)
	assert.Equal(t, int64(1), snap.Preparing)
	assert.Equal(t, int64(1), snap.Ready)
	assert.Equal(t, int64(1), snap.Delivered)
	assert.Equal(t, int64(1), snap.Cancelled)
	assert.Equal(t, "22.75", snap.RevenueToday.StringFixed(2))
}

func TestAggregate_EmptyLedger(t *testing.T) {
	ctx := context.Background()
	conns := testutil.NewConnections(t)
	require.NoError(t, provision.New(conns.Writer, provision.Options{}, nil, nil).EnsureReady(ctx))

	now := time.Now().UTC()
	snap, err := NewRepository(conns).Aggregate(ctx, now.Add(-time.Hour), now)
	require.NoError(t, err)
	assert.Zero(t, snap.TotalOrders)
	assert.True(t, snap.RevenueToday.IsZero())
}
