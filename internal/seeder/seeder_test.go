package seeder

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/brewbar/internal/config"
	"github.com/Additional-Code/brewbar/internal/provision"
	menurepo "github.com/Additional-Code/brewbar/internal/repository/menu"
	orderrepo "github.com/Additional-Code/brewbar/internal/repository/order"
	statsrepo "github.com/Additional-Code/brewbar/internal/repository/stats"
	menusvc "github.com/Additional-Code/brewbar/internal/service/menu"
	ordersvc "github.com/Additional-Code/brewbar/internal/service/order"
	statssvc "github.com/Additional-Code/brewbar/internal/service/stats"
	"github.com/Additional-Code/brewbar/internal/testutil"
	"github.com/Additional-Code/brewbar/internal/workflow"
)

func TestOrders_SeedsOnceThroughLedger(t *testing.T) {
	ctx := context.Background()
	conns := testutil.NewConnections(t)
	prov := provision.New(conns.Writer, provision.Options{}, nil, nil)
	cfg := config.Config{Ledger: config.Ledger{StatusPolicy: "forward", RecentOrdersLimit: 100}}

	orders, err := ordersvc.NewService(ordersvc.Params{
		Repository:  orderrepo.NewRepository(conns),
		Provisioner: prov,
		Config:      cfg,
	})
	require.NoError(t, err)
	menu := menusvc.NewService(menusvc.Params{
		Repository:  menurepo.NewRepository(conns),
		Provisioner: prov,
		Config:      cfg,
	})

	s := New(orders, menu, nil)

	placed, err := s.Orders(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(demoOrders), placed)

	placed, err = s.Orders(ctx)
	require.NoError(t, err)
	assert.Zero(t, placed)

	recent, err := orders.ListRecent(ctx)
	require.NoError(t, err)
	require.Len(t, recent, len(demoOrders))

	revenue := decimal.Zero
	for _, o := range recent {
		assert.NotEmpty(t, o.Items)
		if o.Status != string(workflow.StatusCancelled) {
			revenue = revenue.Add(o.Total)
		}
	}

	stats, err := statssvc.NewService(statssvc.Params{
		Repository:  statsrepo.NewRepository(conns),
		Provisioner: prov,
	}).Compute(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalOrders)
	assert.EqualValues(t, 1, stats.Pending)
	assert.EqualValues(t, 1, stats.Preparing)
	assert.EqualValues(t, 1, stats.Ready)
	assert.EqualValues(t, 1, stats.Cancelled)
	assert.Equal(t, revenue.StringFixed(2), stats.RevenueToday)
}
