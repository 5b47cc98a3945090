package order

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/brewbar/internal/event"
	"github.com/Additional-Code/brewbar/internal/messaging"
	"github.com/Additional-Code/brewbar/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/brewbar/worker/order")

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewOrderPlacedHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
		fx.Annotate(
			NewStatusChangedHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewOrderPlacedHandler logs orders committed to the ledger.
func NewOrderPlacedHandler(logger *zap.Logger) worker.HandlerRegistration {
	return worker.HandlerRegistration{
		EventType: event.TypeOrderPlaced,
		Handler: traced("worker.orders.placed", logger, func(ctx context.Context, env event.Envelope) error {
			var payload event.OrderPlaced
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				return fmt.Errorf("%w: decode %s payload: %w", messaging.ErrPermanent, env.Type, err)
			}
			logger.Info("order placed event processed",
				zap.String("event.id", env.ID),
				zap.Int64("order.id", payload.OrderID),
				zap.String("customer", payload.Customer),
				zap.String("total", payload.Total),
				zap.Int("items", payload.ItemCount),
			)
			return nil
		}),
	}
}

// NewStatusChangedHandler logs applied status transitions.
func NewStatusChangedHandler(logger *zap.Logger) worker.HandlerRegistration {
	return worker.HandlerRegistration{
		EventType: event.TypeOrderStatusChanged,
		Handler: traced("worker.orders.status_changed", logger, func(ctx context.Context, env event.Envelope) error {
			var payload event.OrderStatusChanged
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				return fmt.Errorf("%w: decode %s payload: %w", messaging.ErrPermanent, env.Type, err)
			}
			logger.Info("order status event processed",
				zap.String("event.id", env.ID),
				zap.Int64("order.id", payload.OrderID),
				zap.String("from", payload.From),
				zap.String("to", payload.To),
			)
			return nil
		}),
	}
}

func traced(spanName string, logger *zap.Logger, fn func(context.Context, event.Envelope) error) messaging.Handler {
	return func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, spanName, trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
			attribute.String("event.type", msg.EventType()),
		))
		defer span.End()

		env, err := event.Decode(msg)
		if err == nil {
			err = fn(ctx, env)
		}
		if err != nil {
			logger.Error("failed to process ledger event", zap.String("event.type", msg.EventType()), zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "handler error")
			return err
		}
		return nil
	}
}
