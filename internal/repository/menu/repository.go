package menu

import (
	"context"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/Additional-Code/brewbar/internal/database"
	"github.com/Additional-Code/brewbar/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/brewbar/repository/menu")

// Repository reads the menu catalog.
type Repository struct {
	reader *bun.DB
}

// NewRepository wires a repository on the read connection.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{reader: conns.Reader}
}

// List returns every menu item grouped by category, then by id.
func (r *Repository) List(ctx context.Context) ([]*entity.MenuItem, error) {
	ctx, span := repoTracer.Start(ctx, "MenuRepository.List")
	defer span.End()

	items := make([]*entity.MenuItem, 0)
	if err := r.reader.NewSelect().Model(&items).OrderExpr("mi.category ASC, mi.id ASC").Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return items, nil
}
