package provision

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Additional-Code/brewbar/internal/entity"
	"github.com/Additional-Code/brewbar/internal/observability"
	"github.com/Additional-Code/brewbar/pkg/errorbank"
)

// SchemaVersion identifies the ledger layout written by this package.
const SchemaVersion = 1

// SourceExisting marks a pass that found the menu already populated.
const SourceExisting = "existing"

var tracer = otel.Tracer("github.com/Additional-Code/brewbar/provision")

// Options tunes a Provisioner.
type Options struct {
	Sources     []SeedSource
	LockName    string
	LockTimeout time.Duration
	Timeout     time.Duration
}

// Result describes what a provisioning pass did.
type Result struct {
	Source       string
	Seeded       int
	AlreadyReady bool
}

// Provisioner lazily creates and seeds the ledger tables exactly once.
type Provisioner struct {
	db      *bun.DB
	opts    Options
	logger  *zap.Logger
	metrics *observability.LedgerMetrics

	ready     atomic.Bool
	group     singleflight.Group
	readyCh   chan struct{}
	readyOnce sync.Once
}

// New constructs a Provisioner writing through db.
func New(db *bun.DB, opts Options, logger *zap.Logger, metrics *observability.LedgerMetrics) *Provisioner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(opts.Sources) == 0 {
		opts.Sources = []SeedSource{FallbackSource{}}
	}
	if opts.LockName == "" {
		opts.LockName = "brewbar.ledger.provision"
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 10 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Provisioner{db: db, opts: opts, logger: logger, metrics: metrics, readyCh: make(chan struct{})}
}

// Ready reports whether a provisioning pass has committed in this process.
func (p *Provisioner) Ready() bool {
	return p.ready.Load()
}

// Done returns a channel closed once the ledger becomes ready.
func (p *Provisioner) Done() <-chan struct{} {
	return p.readyCh
}

// EnsureReady guarantees the ledger tables exist and the menu is non-empty.
// It is cheap once the first pass has committed and is safe to call per request.
func (p *Provisioner) EnsureReady(ctx context.Context) error {
	_, err := p.Provision(ctx)
	return err
}

// Provision runs EnsureReady and reports what the pass did. Concurrent callers
// share one in-flight pass; the pass itself is detached from any single caller's
// cancellation and bounded by the configured timeout.
func (p *Provisioner) Provision(ctx context.Context) (Result, error) {
	if p.ready.Load() {
		return Result{AlreadyReady: true}, nil
	}

	ch := p.group.DoChan("provision", func() (any, error) {
		if p.ready.Load() {
			return Result{AlreadyReady: true}, nil
		}
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.opts.Timeout)
		defer cancel()

		res, err := p.run(runCtx)
		p.metrics.ProvisionRun(runCtx, res.Source, err)
		if err != nil {
			p.logger.Error("ledger provisioning failed", zap.Error(err))
			return Result{}, err
		}
		p.ready.Store(true)
		p.readyOnce.Do(func() { close(p.readyCh) })
		p.logger.Info("ledger provisioned",
			zap.String("source", res.Source),
			zap.Int("seeded", res.Seeded),
		)
		return res, nil
	})

	select {
	case <-ctx.Done():
		return Result{}, errorbank.Unavailable("ledger storage is not ready",
			errorbank.WithCause(ctx.Err()))
	case r := <-ch:
		if r.Err != nil {
			return Result{}, errorbank.Unavailable("ledger storage is not ready",
				errorbank.WithCause(r.Err),
				errorbank.WithDetail("cause", r.Err.Error()),
			)
		}
		return r.Val.(Result), nil
	}
}

func (p *Provisioner) run(ctx context.Context) (res Result, err error) {
	ctx, span := tracer.Start(ctx, "Provisioner.run")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "provisioning failed")
		}
		span.SetAttributes(attribute.String("provision.source", res.Source))
		span.End()
	}()

	conn, err := p.db.Conn(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("reserve connection: %w", err)
	}
	defer conn.Close()

	unlock, err := acquireLock(ctx, conn, p.opts.LockName, p.opts.LockTimeout)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if uerr := unlock(unlockCtx); uerr != nil {
			p.logger.Warn("release provisioning lock", zap.Error(uerr))
		}
	}()

	err = conn.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := createTables(ctx, tx); err != nil {
			return err
		}

		var marker entity.SchemaMarker
		err := tx.NewSelect().Model(&marker).Where("version = ?", SchemaVersion).Limit(1).Scan(ctx)
		switch {
		case err == nil:
			res = Result{Source: marker.Source, AlreadyReady: true}
			return nil
		case !isNoRows(err):
			return fmt.Errorf("read schema marker: %w", err)
		}

		count, err := tx.NewSelect().Model((*entity.MenuItem)(nil)).Count(ctx)
		if err != nil {
			return fmt.Errorf("count menu items: %w", err)
		}

		if count > 0 {
			res = Result{Source: SourceExisting}
		} else {
			res, err = p.seed(ctx, tx)
			if err != nil {
				return err
			}
		}

		marker = entity.SchemaMarker{
			Version:   SchemaVersion,
			Source:    res.Source,
			ItemCount: res.Seeded,
			AppliedAt: time.Now().UTC(),
		}
		if _, err := tx.NewInsert().Model(&marker).Exec(ctx); err != nil {
			return fmt.Errorf("write schema marker: %w", err)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func (p *Provisioner) seed(ctx context.Context, tx bun.Tx) (Result, error) {
	for _, source := range p.opts.Sources {
		items, err := source.Load(ctx, tx)
		if err != nil {
			return Result{}, fmt.Errorf("load %s seed: %w", source.Name(), err)
		}
		if len(items) == 0 {
			p.logger.Debug("seed source empty", zap.String("source", source.Name()))
			continue
		}
		if _, err := tx.NewInsert().Model(&items).Exec(ctx); err != nil {
			return Result{}, fmt.Errorf("insert %s seed: %w", source.Name(), err)
		}
		return Result{Source: source.Name(), Seeded: len(items)}, nil
	}
	return Result{}, errors.New("no seed source produced menu items")
}

func createTables(ctx context.Context, tx bun.Tx) error {
	models := []struct {
		model any
		fk    string
	}{
		{model: (*entity.MenuItem)(nil)},
		{model: (*entity.Order)(nil)},
		{model: (*entity.OrderItem)(nil), fk: "(order_id) REFERENCES orders (id) ON DELETE CASCADE"},
		{model: (*entity.SchemaMarker)(nil)},
	}
	for _, m := range models {
		q := tx.NewCreateTable().Model(m.model).IfNotExists()
		if m.fk != "" {
			q = q.ForeignKey(m.fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	// mysql indexes foreign key columns itself and has no CREATE INDEX IF NOT EXISTS.
	if tx.Dialect().Name() == dialect.MySQL {
		return nil
	}
	if _, err := tx.NewCreateIndex().
		Model((*entity.OrderItem)(nil)).
		Index("idx_order_items_order_id").
		Column("order_id").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
