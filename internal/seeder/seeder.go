package seeder

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Additional-Code/brewbar/internal/entity"
	menusvc "github.com/Additional-Code/brewbar/internal/service/menu"
	ordersvc "github.com/Additional-Code/brewbar/internal/service/order"
	"github.com/Additional-Code/brewbar/internal/workflow"
)

// Seeder places demo orders for local/dev setups. It goes through the
// order ledger so totals, events and status rules match real traffic.
type Seeder struct {
	orders *ordersvc.Service
	menu   *menusvc.Service
	logger *zap.Logger
}

type demoLine struct {
	menuIndex int
	quantity  int
}

type demoOrder struct {
	customer string
	note     string
	lines    []demoLine
	path     []workflow.Status
}

var demoOrders = []demoOrder{
	{customer: "Ana", lines: []demoLine{{0, 2}, {4, 1}}},
	{customer: "Ben", note: "extra hot", lines: []demoLine{{1, 1}}, path: []workflow.Status{workflow.StatusPreparing}},
	{customer: "Chloe", lines: []demoLine{{2, 1}, {5, 1}}, path: []workflow.Status{workflow.StatusPreparing, workflow.StatusReady}},
	{customer: "Dev", lines: []demoLine{{3, 2}}, path: []workflow.Status{workflow.StatusCancelled}},
}

// New constructs a Seeder on top of the ledger services.
func New(orders *ordersvc.Service, menu *menusvc.Service, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{orders: orders, menu: menu, logger: logger}
}

// Orders seeds demo orders when the ledger has none and returns how many it placed.
func (s *Seeder) Orders(ctx context.Context) (int, error) {
	existing, err := s.orders.ListRecent(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		s.logger.Info("orders already present; skipping seed", zap.Int("count", len(existing)))
		return 0, nil
	}

	menu, err := s.menu.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(menu) == 0 {
		return 0, fmt.Errorf("menu is empty")
	}

	for _, demo := range demoOrders {
		order, err := s.orders.PlaceOrder(ctx, demo.input(menu))
		if err != nil {
			return 0, fmt.Errorf("place demo order for %s: %w", demo.customer, err)
		}
		for _, status := range demo.path {
			if _, err := s.orders.UpdateStatus(ctx, order.ID, string(status)); err != nil {
				return 0, fmt.Errorf("advance demo order %d to %s: %w", order.ID, status, err)
			}
		}
	}

	s.logger.Info("seeded orders", zap.Int("count", len(demoOrders)))
	return len(demoOrders), nil
}

func (d demoOrder) input(menu []*entity.MenuItem) ordersvc.PlaceOrderInput {
	in := ordersvc.PlaceOrderInput{Customer: d.customer, Note: d.note}
	for _, l := range d.lines {
		item := menu[l.menuIndex%len(menu)]
		id := item.ID
		in.Items = append(in.Items, ordersvc.LineInput{
			MenuID:   &id,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: l.quantity,
		})
	}
	return in
}
