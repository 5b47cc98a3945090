package menu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/brewbar/internal/cache"
	"github.com/Additional-Code/brewbar/internal/config"
	"github.com/Additional-Code/brewbar/internal/entity"
	"github.com/Additional-Code/brewbar/internal/provision"
	repo "github.com/Additional-Code/brewbar/internal/repository/menu"
	"github.com/Additional-Code/brewbar/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/brewbar/service/menu")

// cacheKey is versioned with the ledger schema so a new layout never reads stale entries.
var cacheKey = fmt.Sprintf("menu:v%d", provision.SchemaVersion)

// Service is the read-only menu catalog.
type Service struct {
	repo        *repo.Repository
	provisioner *provision.Provisioner
	cache       cache.Store
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository  *repo.Repository
	Provisioner *provision.Provisioner
	Cache       cache.Store `optional:"true"`
	Config      config.Config
	Logger      *zap.Logger
}

// Module provides the menu service to Fx.
var Module = fx.Provide(NewService)

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:        p.Repository,
		provisioner: p.Provisioner,
		cache:       p.Cache,
		cacheTTL:    p.Config.Ledger.MenuCacheTTL,
		logger:      logger,
	}
}

// List returns the menu grouped by category then id. Menu rows never change
// after provisioning, so reads go through the cache.
func (s *Service) List(ctx context.Context) ([]*entity.MenuItem, error) {
	ctx, span := serviceTracer.Start(ctx, "MenuService.List")
	defer span.End()

	if err := s.provisioner.EnsureReady(ctx); err != nil {
		return nil, err
	}

	if items, err := s.getFromCache(ctx); err == nil {
		return items, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("menu cache read failed", zap.Error(err))
	}

	items, err := s.repo.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load menu",
			errorbank.WithCause(err),
			errorbank.WithDetail("cause", err.Error()),
		)
	}

	if err := s.storeInCache(ctx, items); err != nil {
		s.logger.Warn("menu cache write failed", zap.Error(err))
	}
	return items, nil
}

func (s *Service) getFromCache(ctx context.Context) ([]*entity.MenuItem, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	raw, err := s.cache.Get(ctx, cacheKey)
	if err != nil {
		return nil, err
	}
	var items []*entity.MenuItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) storeInCache(ctx context.Context, items []*entity.MenuItem) error {
	if s.cache == nil || len(items) == 0 {
		return nil
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, cacheKey, raw, s.cacheTTL)
}
