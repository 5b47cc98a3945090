package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/brewbar/internal/config"
	"github.com/Additional-Code/brewbar/internal/entity"
	"github.com/Additional-Code/brewbar/internal/event"
	"github.com/Additional-Code/brewbar/internal/observability"
	"github.com/Additional-Code/brewbar/internal/provision"
	repo "github.com/Additional-Code/brewbar/internal/repository/order"
	"github.com/Additional-Code/brewbar/internal/workflow"
	"github.com/Additional-Code/brewbar/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/brewbar/service/order")

// Service is the order ledger: it places orders and applies status transitions.
type Service struct {
	repo        *repo.Repository
	provisioner *provision.Provisioner
	policy      workflow.Policy
	events      *event.Publisher
	metrics     *observability.LedgerMetrics
	logger      *zap.Logger
	recentLimit int
	now         func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository  *repo.Repository
	Provisioner *provision.Provisioner
	Config      config.Config
	Logger      *zap.Logger
	Publisher   *event.Publisher              `optional:"true"`
	Metrics     *observability.LedgerMetrics `optional:"true"`
	Clock       func() time.Time              `optional:"true"`
}

// NewService wires a new Service instance.
func NewService(p Params) (*Service, error) {
	policy, err := workflow.NewPolicy(p.Config.Ledger.StatusPolicy)
	if err != nil {
		return nil, err
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := p.Config.Ledger.RecentOrdersLimit
	if limit <= 0 {
		limit = 100
	}
	now := p.Clock
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:        p.Repository,
		provisioner: p.Provisioner,
		policy:      policy,
		events:      p.Publisher,
		metrics:     p.Metrics,
		logger:      logger,
		recentLimit: limit,
		now:         now,
	}, nil
}

// PlaceOrder validates in, computes the total server-side and commits the
// order with its items atomically. The new order starts as pending.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*entity.Order, error) {
	in, err := in.validate()
	if err != nil {
		return nil, err
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.PlaceOrder", trace.WithAttributes(
		attribute.Int("order.items", len(in.Items)),
	))
	defer span.End()

	if err := s.provisioner.EnsureReady(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ledger not ready")
		return nil, err
	}

	order := &entity.Order{
		Customer:  in.Customer,
		Note:      in.Note,
		Status:    string(workflow.StatusPending),
		Total:     in.Total(),
		CreatedAt: s.now().UTC(),
		Items:     make([]*entity.OrderItem, 0, len(in.Items)),
	}
	for _, line := range in.Items {
		order.Items = append(order.Items, &entity.OrderItem{
			MenuID:   line.MenuID,
			Name:     line.Name,
			Price:    line.Price,
			Quantity: line.Quantity,
		})
	}

	if err := s.repo.CreateWithItems(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, storageError("failed to place order", err)
	}
	span.SetAttributes(attribute.Int64("order.id", order.ID))

	s.logger.Info("order placed",
		zap.Int64("order.id", order.ID),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("items", len(order.Items)),
	)
	s.metrics.OrderPlaced(ctx, order.Total)
	s.events.PublishBestEffort(ctx, event.TypeOrderPlaced, order.ID, event.OrderPlaced{
		OrderID:   order.ID,
		Customer:  order.Customer,
		Total:     order.Total.StringFixed(2),
		ItemCount: len(order.Items),
		CreatedAt: order.CreatedAt,
	})

	return order, nil
}

// StatusChange is the explicit outcome of UpdateStatus.
type StatusChange struct {
	OrderID int64
	From    workflow.Status
	To      workflow.Status
	Changed bool
}

// UpdateStatus moves order id to rawStatus. Unknown statuses are rejected
// before any storage access, unknown orders yield not_found and edges the
// configured policy forbids yield conflict.
func (s *Service) UpdateStatus(ctx context.Context, id int64, rawStatus string) (*StatusChange, error) {
	to, err := workflow.Parse(rawStatus)
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, errorbank.BadRequest("invalid id")
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.UpdateStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", to.String()),
	))
	defer span.End()

	if err := s.provisioner.EnsureReady(ctx); err != nil {
		span.RecordError(err)
		return nil, err
	}

	current, err := s.repo.Status(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found", errorbank.WithDetail("order_id", id))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, storageError("failed to load order", err)
	}
	from := workflow.Status(current)

	if err := workflow.Check(s.policy, from, to); err != nil {
		return nil, err
	}
	change := &StatusChange{OrderID: id, From: from, To: to}
	if from == to {
		return change, nil
	}

	affected, err := s.repo.UpdateStatus(ctx, id, to.String(), []string{from.String()})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, storageError("failed to update order status", err)
	}
	if affected == 0 {
		return nil, errorbank.Conflict("order status changed concurrently; retry",
			errorbank.WithDetails(map[string]any{"order_id": id, "expected": from.String()}))
	}
	change.Changed = true

	s.logger.Info("order status changed",
		zap.Int64("order.id", id),
		zap.String("from", from.String()),
		zap.String("status", to.String()),
	)
	s.metrics.StatusChanged(ctx, from.String(), to.String())
	s.events.PublishBestEffort(ctx, event.TypeOrderStatusChanged, id, event.OrderStatusChanged{
		OrderID: id,
		From:    from.String(),
		To:      to.String(),
	})

	return change, nil
}

// ListRecent returns the most recent orders, newest first, with their items.
func (s *Service) ListRecent(ctx context.Context) ([]*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ListRecent")
	defer span.End()

	if err := s.provisioner.EnsureReady(ctx); err != nil {
		return nil, err
	}
	orders, err := s.repo.ListRecent(ctx, s.recentLimit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, storageError("failed to list orders", err)
	}
	return orders, nil
}

// Get retrieves an order with its items.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if err := s.provisioner.EnsureReady(ctx); err != nil {
		return nil, err
	}
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found", errorbank.WithDetail("order_id", id))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, storageError("failed to load order", err)
	}
	return order, nil
}

func storageError(message string, err error) error {
	return errorbank.Internal(message,
		errorbank.WithCause(err),
		errorbank.WithDetail("cause", fmt.Sprint(err)),
	)
}
