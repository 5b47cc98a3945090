package stats

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/Additional-Code/brewbar/internal/database"
	"github.com/Additional-Code/brewbar/internal/entity"
	"github.com/Additional-Code/brewbar/internal/workflow"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/brewbar/repository/stats")

// Snapshot is one aggregate read over the orders table.
type Snapshot struct {
	TotalOrders  int64           `bun:"total_orders"`
	Pending      int64           `bun:"pending"`
	Preparing    int64           `bun:"preparing"`
	Ready        int64           `bun:"ready"`
	Delivered    int64           `bun:"delivered"`
	Cancelled    int64           `bun:"cancelled"`
	RevenueToday decimal.Decimal `bun:"revenue_today"`
}

// Repository runs the stats aggregate.
type Repository struct {
	reader *bun.DB
}

// NewRepository wires a repository on the read connection.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{reader: conns.Reader}
}

// Aggregate counts orders per status and sums non-cancelled totals created in [from, to).
// It uses CASE expressions so the same query runs on every supported dialect.
func (r *Repository) Aggregate(ctx context.Context, from, to time.Time) (*Snapshot, error) {
	ctx, span := repoTracer.Start(ctx, "StatsRepository.Aggregate")
	defer span.End()

	cancelled := string(workflow.StatusCancelled)
	q := r.reader.NewSelect().
		Model((*entity.Order)(nil)).
		ColumnExpr("COUNT(CASE WHEN o.status <> ? THEN 1 END) AS total_orders", cancelled)
	for _, s := range []workflow.Status{
		workflow.StatusPending,
		workflow.StatusPreparing,
		workflow.StatusReady,
		workflow.StatusDelivered,
		workflow.StatusCancelled,
	} {
		q = q.ColumnExpr("COUNT(CASE WHEN o.status = ? THEN 1 END) AS ?", string(s), bun.Ident(string(s)))
	}
	q = q.ColumnExpr(
		"COALESCE(SUM(CASE WHEN o.created_at >= ? AND o.created_at < ? AND o.status <> ? THEN o.total END), 0) AS revenue_today",
		from.UTC(), to.UTC(), cancelled,
	)

	snap := new(Snapshot)
	if err := q.Scan(ctx, snap); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate failed")
		return nil, err
	}
	return snap, nil
}
