package stats

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/brewbar/internal/config"
	"github.com/Additional-Code/brewbar/internal/provision"
	orderrepo "github.com/Additional-Code/brewbar/internal/repository/order"
	repo "github.com/Additional-Code/brewbar/internal/repository/stats"
	ordersvc "github.com/Additional-Code/brewbar/internal/service/order"
	"github.com/Additional-Code/brewbar/internal/testutil"
)

func TestCompute_MatchesPlacedOrders(t *testing.T) {
	ctx := context.Background()
	conns := testutil.NewConnections(t)
	prov := provision.New(conns.Writer, provision.Options{}, nil, nil)

	now := time.Date(2026, 7, 14, 15, 30, 0, 0, time.UTC)
	orders, err := ordersvc.NewService(ordersvc.Params{
		Repository:  orderrepo.NewRepository(conns),
		Provisioner: prov,
		Config:      config.Config{Ledger: config.Ledger{StatusPolicy: "open"}},
		Clock:       func() time.Time { return now },
	})
	require.NoError(t, err)

	place := func(price string, qty int, status string) {
		o, err := orders.PlaceOrder(ctx, ordersvc.PlaceOrderInput{
			Customer: "guest",
			Items:    []ordersvc.LineInput{{Name: "Item", Price: decimal.RequireFromString(price), Quantity: qty}},
		})
		require.NoError(t, err)
		if status != "pending" {
			_, err = orders.UpdateStatus(ctx, o.ID, status)
			require.NoError(t, err)
		}
	}
	place("5.00", 2, "pending")
	place("3.50", 1, "pending")
	place("4.00", 1, "preparing")
	place("6.00", 1, "ready")
	place("9.00", 1, "delivered")
	place("11.00", 1, "cancelled")

	svc := NewService(Params{Repository: repo.NewRepository(conns), Provisioner: prov})
	svc.now = func() time.Time { return now }
	svc.location = time.UTC

	stats, err := svc.Compute(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(5), stats.TotalOrders)
	assert.Equal(t, int64(2), stats.Pending)
	assert.Equal(t, int64(1), stats.Preparing)
	assert.Equal(t, int64(1), stats.Ready)
	assert.Equal(t, int64(1), stats.Delivered)
	assert.Equal(t, int64(1), stats.Cancelled)
	assert.Equal(t, "32.50", stats.RevenueToday)
	assert.Equal(t, "2026-07-14", stats.Date)

	svc.now = func() time.Time { return now.AddDate(0, 0, 1) }
	tomorrow, err := svc.Compute(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), tomorrow.TotalOrders)
	assert.Equal(t, "0.00", tomorrow.RevenueToday)
}

func TestCompute_ExampleScenario(t *testing.T) {
	ctx := context.Background()
	conns := testutil.NewConnections(t)
	prov := provision.New(conns.Writer, provision.Options{}, nil, nil)

	orders, err := ordersvc.NewService(ordersvc.Params{
		Repository:  orderrepo.NewRepository(conns),
		Provisioner: prov,
		Config:      config.Config{Ledger: config.Ledger{StatusPolicy: "forward"}},
	})
	require.NoError(t, err)

	placed, err := orders.PlaceOrder(ctx, ordersvc.PlaceOrderInput{
		Customer: "Alex",
		Items: []ordersvc.LineInput{
			{Name: "Latte", Price: decimal.RequireFromString("5.00"), Quantity: 2},
			{Name: "Croissant", Price: decimal.RequireFromString("4.00"), Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "14.00", placed.Total.StringFixed(2))

	_, err = orders.UpdateStatus(ctx, placed.ID, "preparing")
	require.NoError(t, err)

	stats, err := NewService(Params{Repository: repo.NewRepository(conns), Provisioner: prov}).Compute(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalOrders)
	assert.Equal(t, int64(1), stats.Preparing)
	assert.Equal(t, int64(0), stats.Pending)
	assert.Equal(t, "14.00", stats.RevenueToday)
}

func TestDayBounds(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	now := time.Date(2026, 2, 1, 23, 0, 0, 0, time.UTC) // 09:00 on Feb 2 in loc

	start, end := dayBounds(now, loc)
	assert.Equal(t, time.Date(2026, 2, 2, 0, 0, 0, 0, loc), start)
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}
