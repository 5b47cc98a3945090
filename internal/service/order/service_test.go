package order

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/brewbar/internal/config"
	"github.com/Additional-Code/brewbar/internal/database"
	"github.com/Additional-Code/brewbar/internal/dto"
	"github.com/Additional-Code/brewbar/internal/entity"
	"github.com/Additional-Code/brewbar/internal/event"
	"github.com/Additional-Code/brewbar/internal/provision"
	repo "github.com/Additional-Code/brewbar/internal/repository/order"
	"github.com/Additional-Code/brewbar/internal/testutil"
	"github.com/Additional-Code/brewbar/internal/workflow"
	"github.com/Additional-Code/brewbar/pkg/errorbank"
)

type fixture struct {
	svc      *Service
	conns    *database.Connections
	recorder *event.Recorder
	prov     *provision.Provisioner
}

func newFixture(t *testing.T, policy string) fixture {
	t.Helper()
	conns := testutil.NewConnections(t)
	rec := &event.Recorder{}
	prov := provision.New(conns.Writer, provision.Options{}, nil, nil)

	svc, err := NewService(Params{
		Repository:  repo.NewRepository(conns),
		Provisioner: prov,
		Config:      config.Config{Ledger: config.Ledger{StatusPolicy: policy, RecentOrdersLimit: 100}},
		Publisher:   event.NewPublisher(rec, nil),
	})
	require.NoError(t, err)
	return fixture{svc: svc, conns: conns, recorder: rec, prov: prov}
}

func line(name, price string, qty int) LineInput {
	return LineInput{Name: name, Price: decimal.RequireFromString(price), Quantity: qty}
}

func TestPlaceOrder_ComputesTotalAndStartsPending(t *testing.T) {
	f := newFixture(t, "forward")
	ctx := context.Background()

	order, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{
		Customer: "  Alex ",
		Items:    []LineInput{line("Latte", "5.00", 2), line("Croissant", "4.00", 1)},
	})
	require.NoError(t, err)

	assert.NotZero(t, order.ID)
	assert.Equal(t, "Alex", order.Customer)
	assert.Equal(t, "14.00", order.Total.StringFixed(2))
	assert.Equal(t, string(workflow.StatusPending), order.Status)
	assert.True(t, f.prov.Ready())

	stored, err := f.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "14.00", stored.Total.StringFixed(2))
	assert.Len(t, stored.Items, 2)

	assert.Equal(t, []string{event.TypeOrderPlaced}, f.recorder.Types())
}

func TestPlaceOrder_ValidationSkipsStorage(t *testing.T) {
	f := newFixture(t, "forward")
	ctx := context.Background()

	cases := []PlaceOrderInput{
		{Customer: "", Items: []LineInput{line("Tea", "3.50", 1)}},
		{Customer: "   ", Items: []LineInput{line("Tea", "3.50", 1)}},
		{Customer: "Alex"},
		{Customer: "Alex", Items: []LineInput{line("", "3.50", 1)}},
		{Customer: "Alex", Items: []LineInput{line("Tea", "-1", 1)}},
		{Customer: "Alex", Items: []LineInput{line("Tea", "3.505", 1)}},
		{Customer: "Alex", Items: []LineInput{line("Tea", "3.50", 0)}},
	}
	for _, in := range cases {
		_, err := f.svc.PlaceOrder(ctx, in)
		require.Error(t, err)
		assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest), "%+v", in)
	}
	assert.False(t, f.prov.Ready(), "validation failures must not touch storage")
	assert.Empty(t, f.recorder.Messages())
}

func TestPlaceOrder_RollsBackOnItemFailure(t *testing.T) {
	f := newFixture(t, "forward")
	ctx := context.Background()
	require.NoError(t, f.prov.EnsureReady(ctx))

	_, err := f.conns.Writer.ExecContext(ctx, "DROP TABLE order_items")
	require.NoError(t, err)

	_, err = f.svc.PlaceOrder(ctx, PlaceOrderInput{Customer: "Alex", Items: []LineInput{line("Tea", "3.50", 1)}})
	require.Error(t, err)
	assert.True(t, errorbank.IsKind(err, errorbank.KindInternal))
	assert.Contains(t, errorbank.From(err).Details(), "cause")

	n, err := f.conns.Writer.NewSelect().Model((*entity.Order)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, f.recorder.Messages())
}

func TestUpdateStatus_ForwardPolicy(t *testing.T) {
	f := newFixture(t, "forward")
	ctx := context.Background()

	order, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{Customer: "Alex", Items: []LineInput{line("Tea", "3.50", 1)}})
	require.NoError(t, err)

	change, err := f.svc.UpdateStatus(ctx, order.ID, "preparing")
	require.NoError(t, err)
	assert.True(t, change.Changed)
	assert.Equal(t, workflow.StatusPending, change.From)

	change, err = f.svc.UpdateStatus(ctx, order.ID, "preparing")
	require.NoError(t, err)
	assert.False(t, change.Changed)

	_, err = f.svc.UpdateStatus(ctx, order.ID, "delivered")
	require.Error(t, err)
	assert.True(t, errorbank.IsKind(err, errorbank.KindConflict))

	stored, err := f.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "preparing", stored.Status)

	assert.Equal(t, []string{event.TypeOrderPlaced, event.TypeOrderStatusChanged}, f.recorder.Types())
}

func TestUpdateStatus_OpenPolicyAllowsAnyEdge(t *testing.T) {
	f := newFixture(t, "open")
	ctx := context.Background()

	order, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{Customer: "Alex", Items: []LineInput{line("Tea", "3.50", 1)}})
	require.NoError(t, err)

	for _, status := range []string{"delivered", "pending", "cancelled", "ready"} {
		change, err := f.svc.UpdateStatus(ctx, order.ID, status)
		require.NoError(t, err, status)
		assert.Equal(t, workflow.Status(status), change.To)
	}
}

func TestUpdateStatus_InvalidStatusLeavesOrderUnchanged(t *testing.T) {
	f := newFixture(t, "open")
	ctx := context.Background()

	order, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{Customer: "Alex", Items: []LineInput{line("Tea", "3.50", 1)}})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, order.ID, "shipped")
	require.Error(t, err)
	assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest))

	stored, err := f.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", stored.Status)
}

func TestUpdateStatus_UnknownOrder(t *testing.T) {
	f := newFixture(t, "forward")

	_, err := f.svc.UpdateStatus(context.Background(), 4242, "ready")
	require.Error(t, err)
	assert.True(t, errorbank.IsKind(err, errorbank.KindNotFound))
}

func TestListRecent_NewestFirst(t *testing.T) {
	f := newFixture(t, "forward")
	ctx := context.Background()

	tick := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}

	for _, name := range []string{"a", "b", "c"} {
		_, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{Customer: name, Items: []LineInput{line("Tea", "3.50", 1)}})
		require.NoError(t, err)
	}

	orders, err := f.svc.ListRecent(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, "c", orders[0].Customer)
	assert.Equal(t, "a", orders[2].Customer)
}

func TestParsePlaceOrder(t *testing.T) {
	var req dto.PlaceOrderRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"customerName": "Alex",
		"total": 1,
		"items": [
			{"id": 4, "name": "Latte", "price": 5, "quantity": 2},
			{"menu_id": 13, "name": "Croissant", "price": "4.00", "quantity": "1"}
		]
	}`), &req))

	in, err := ParsePlaceOrder(req)
	require.NoError(t, err)
	assert.Equal(t, "Alex", in.Customer)
	require.Len(t, in.Items, 2)
	assert.Equal(t, int64(4), *in.Items[0].MenuID)
	assert.Equal(t, int64(13), *in.Items[1].MenuID)
	assert.Equal(t, "14.00", in.Total().StringFixed(2))
}

func TestParsePlaceOrder_RejectsMalformedNumbers(t *testing.T) {
	var req dto.PlaceOrderRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"customer": "Alex",
		"items": [
			{"name": "Latte", "price": "abc", "quantity": 2},
			{"name": "Tea", "quantity": 1.5},
			{"name": "Cake", "price": 3, "quantity": null}
		]
	}`), &req))

	_, err := ParsePlaceOrder(req)
	require.Error(t, err)
	fields, ok := errorbank.From(err).Details()[errorbank.FieldsDetail].(map[string]string)
	require.True(t, ok)
	assert.Contains(t, fields, "items[0].price")
	assert.Contains(t, fields, "items[1].price")
	assert.Contains(t, fields, "items[1].quantity")
	assert.Contains(t, fields, "items[2].quantity")
	assert.NotContains(t, fields, "items[0].quantity")
}

func TestParsePlaceOrder_MenuReference(t *testing.T) {
	var req dto.PlaceOrderRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"customer": "Alex",
		"items": [
			{"id": "3", "name": "Latte", "price": 5, "quantity": 1},
			{"name": "Special", "price": 2, "quantity": 1},
			{"id": "three", "name": "Tea", "price": 3, "quantity": 1},
			{"menu_id": 2.5, "name": "Cake", "price": 4, "quantity": 1}
		]
	}`), &req))

	_, err := ParsePlaceOrder(req)
	require.Error(t, err)
	fields, ok := errorbank.From(err).Details()[errorbank.FieldsDetail].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, map[string]string{
		"items[2].id":      "must be a number",
		"items[3].menu_id": "must be an integer",
	}, fields)

	req.Items = req.Items[:2]
	in, err := ParsePlaceOrder(req)
	require.NoError(t, err)
	require.NotNil(t, in.Items[0].MenuID)
	assert.Equal(t, int64(3), *in.Items[0].MenuID)
	assert.Nil(t, in.Items[1].MenuID)
}

func TestParsePlaceOrder_MissingCustomerOrItems(t *testing.T) {
	_, err := ParsePlaceOrder(dto.PlaceOrderRequest{Customer: "Alex"})
	require.Error(t, err)
	assert.Equal(t, messageRequired, errorbank.From(err).Message())

	_, err = ParsePlaceOrder(dto.PlaceOrderRequest{Items: []dto.OrderItemRequest{{Name: "Tea"}}})
	require.Error(t, err)
}
