package provision

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/brewbar/internal/config"
	"github.com/Additional-Code/brewbar/internal/database"
	"github.com/Additional-Code/brewbar/internal/observability"
)

// Module provides the Provisioner and optionally warms it up on start.
var Module = fx.Options(
	fx.Provide(NewFromConfig),
	fx.Invoke(registerWarmup),
)

// Params defines dependencies for constructing the Provisioner.
type Params struct {
	fx.In

	Connections *database.Connections
	Config      config.Config
	Logger      *zap.Logger
	Metrics     *observability.LedgerMetrics `optional:"true"`
}

// NewFromConfig builds a Provisioner that tries the legacy table before the fallback menu.
func NewFromConfig(p Params) *Provisioner {
	ledger := p.Config.Ledger
	return New(p.Connections.Writer, Options{
		Sources: []SeedSource{
			LegacyTableSource{Table: ledger.LegacyMenuTable, DefaultEmoji: ledger.DefaultEmoji},
			FallbackSource{},
		},
		LockName:    ledger.LockName,
		LockTimeout: ledger.LockTimeout,
		Timeout:     ledger.ProvisionTimeout,
	}, p.Logger.Named("provision"), p.Metrics)
}

func registerWarmup(lc fx.Lifecycle, cfg config.Config, p *Provisioner, logger *zap.Logger) {
	if !cfg.Ledger.ProvisionOnStart {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := p.EnsureReady(context.Background()); err != nil {
					logger.Warn("ledger warm-up failed; will retry on first request", zap.Error(err))
				}
			}()
			return nil
		},
	})
}
