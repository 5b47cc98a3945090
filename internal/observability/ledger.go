package observability

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const ledgerMeterName = "github.com/Additional-Code/brewbar/ledger"

// LedgerMetrics holds the instruments recorded by the order ledger and provisioner.
type LedgerMetrics struct {
	ordersPlaced   metric.Int64Counter
	revenue        metric.Float64Counter
	statusChanges  metric.Int64Counter
	provisionRuns  metric.Int64Counter
	eventsConsumed metric.Int64Counter
}

// NewLedgerMetrics registers instruments on the manager's meter provider.
func NewLedgerMetrics(mgr *Manager) (*LedgerMetrics, error) {
	return NewLedgerMetricsFrom(mgr.Meter(ledgerMeterName))
}

// NewLedgerMetricsFrom registers instruments on meter.
func NewLedgerMetricsFrom(meter metric.Meter) (*LedgerMetrics, error) {
	m := &LedgerMetrics{}
	var err error

	if m.ordersPlaced, err = meter.Int64Counter("brewbar.orders.placed",
		metric.WithDescription("Orders committed to the ledger")); err != nil {
		return nil, err
	}
	if m.revenue, err = meter.Float64Counter("brewbar.orders.revenue",
		metric.WithDescription("Sum of committed order totals"), metric.WithUnit("{currency}")); err != nil {
		return nil, err
	}
	if m.statusChanges, err = meter.Int64Counter("brewbar.orders.status_changes",
		metric.WithDescription("Applied order status transitions")); err != nil {
		return nil, err
	}
	if m.provisionRuns, err = meter.Int64Counter("brewbar.provision.runs",
		metric.WithDescription("Schema provisioning attempts by outcome")); err != nil {
		return nil, err
	}
	if m.eventsConsumed, err = meter.Int64Counter("brewbar.events.consumed",
		metric.WithDescription("Ledger events handled by workers")); err != nil {
		return nil, err
	}
	return m, nil
}

// OrderPlaced records a committed order.
func (m *LedgerMetrics) OrderPlaced(ctx context.Context, total decimal.Decimal) {
	if m == nil {
		return
	}
	m.ordersPlaced.Add(ctx, 1)
	m.revenue.Add(ctx, total.InexactFloat64())
}

// StatusChanged records a status transition.
func (m *LedgerMetrics) StatusChanged(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.statusChanges.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// ProvisionRun records one provisioning attempt.
func (m *LedgerMetrics) ProvisionRun(ctx context.Context, source string, err error) {
	if m == nil {
		return
	}
	m.provisionRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", outcome(err)),
	))
}

// EventConsumed records one handled ledger event.
func (m *LedgerMetrics) EventConsumed(ctx context.Context, eventType string, err error) {
	if m == nil {
		return
	}
	m.eventsConsumed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event.type", eventType),
		attribute.String("outcome", outcome(err)),
	))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
