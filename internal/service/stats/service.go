package stats

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"

	"github.com/Additional-Code/brewbar/internal/dto"
	"github.com/Additional-Code/brewbar/internal/provision"
	repo "github.com/Additional-Code/brewbar/internal/repository/stats"
	"github.com/Additional-Code/brewbar/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/brewbar/service/stats")

// Service derives dashboard statistics from the ledger on every call.
type Service struct {
	repo        *repo.Repository
	provisioner *provision.Provisioner
	now         func() time.Time
	location    *time.Location
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository  *repo.Repository
	Provisioner *provision.Provisioner
}

// Module provides the stats service to Fx.
var Module = fx.Provide(NewService)

// NewService wires a Service that uses the server's local calendar day.
func NewService(p Params) *Service {
	return &Service{
		repo:        p.Repository,
		provisioner: p.Provisioner,
		now:         time.Now,
		location:    time.Local,
	}
}

// Compute counts orders per status and sums today's non-cancelled revenue.
func (s *Service) Compute(ctx context.Context) (dto.StatsResponse, error) {
	ctx, span := serviceTracer.Start(ctx, "StatsService.Compute")
	defer span.End()

	if err := s.provisioner.EnsureReady(ctx); err != nil {
		return dto.StatsResponse{}, err
	}

	start, end := dayBounds(s.now(), s.location)
	snap, err := s.repo.Aggregate(ctx, start, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return dto.StatsResponse{}, errorbank.Internal("failed to compute stats",
			errorbank.WithCause(err),
			errorbank.WithDetail("cause", err.Error()),
		)
	}

	return dto.StatsResponse{
		TotalOrders:  snap.TotalOrders,
		Pending:      snap.Pending,
		Preparing:    snap.Preparing,
		Ready:        snap.Ready,
		Delivered:    snap.Delivered,
		Cancelled:    snap.Cancelled,
		RevenueToday: snap.RevenueToday.Round(2).StringFixed(2),
		Date:         start.Format(time.DateOnly),
	}, nil
}

// dayBounds returns the start of now's calendar day in loc and the start of the next one.
func dayBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
