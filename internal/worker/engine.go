package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/brewbar/internal/config"
	"github.com/Additional-Code/brewbar/internal/messaging"
	"github.com/Additional-Code/brewbar/internal/observability"
)

// HandlerRegistration binds a ledger event type to a handler. Messages
// without an event type header are matched against Topic instead.
type HandlerRegistration struct {
	EventType string
	Topic     string
	Handler   messaging.Handler
}

// Params collects dependencies via Fx.
type Params struct {
	fx.In

	Client        messaging.Client
	Logger        *zap.Logger
	Config        config.Config
	Metrics       *observability.LedgerMetrics `optional:"true"`
	Registrations []HandlerRegistration        `group:"worker.handlers"`
}

// Engine orchestrates background message consumption.
type Engine struct {
	client  messaging.Client
	logger  *zap.Logger
	cfg     config.Config
	metrics *observability.LedgerMetrics
	byType  map[string]messaging.Handler
	byTopic map[string]messaging.Handler
	cancel  context.CancelFunc
	wg      *sync.WaitGroup
}

// NewEngine constructs the worker Engine.
func NewEngine(p Params) *Engine {
	byType := make(map[string]messaging.Handler, len(p.Registrations))
	byTopic := make(map[string]messaging.Handler)
	for _, r := range p.Registrations {
		if r.Handler == nil {
			continue
		}
		if r.EventType != "" {
			byType[r.EventType] = r.Handler
		}
		if r.Topic != "" {
			byTopic[r.Topic] = r.Handler
		}
	}

	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		client:  p.Client,
		logger:  logger,
		cfg:     p.Config,
		metrics: p.Metrics,
		byType:  byType,
		byTopic: byTopic,
	}
}

// Module wires the engine into Fx lifecycle.
var Module = fx.Options(
	fx.Provide(NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, engine *Engine) {
		lc.Append(fx.Hook{
			OnStart: engine.start,
			OnStop:  engine.stop,
		})
	}),
)

// Dispatch routes a single message to its handler. Unknown messages are
// acknowledged and dropped.
func (e *Engine) Dispatch(ctx context.Context, msg messaging.Message) error {
	eventType := msg.EventType()
	handler, ok := e.byType[eventType]
	if !ok {
		handler, ok = e.byTopic[msg.Topic]
	}
	if !ok {
		e.logger.Warn("no handler for message",
			zap.String("topic", msg.Topic),
			zap.String("event.type", eventType),
		)
		return nil
	}

	err := handler(ctx, msg)
	e.metrics.EventConsumed(ctx, eventType, err)
	return err
}

func (e *Engine) handlerCount() int {
	return len(e.byType) + len(e.byTopic)
}

func (e *Engine) start(ctx context.Context) error {
	if !e.cfg.Messaging.Enabled || !e.cfg.Messaging.Workers.Enabled {
		e.logger.Info("worker engine disabled")

		return nil
	}
	if e.handlerCount() == 0 {
		e.logger.Info("worker engine has no handlers; skipping")

		return nil
	}

	concurrency := e.cfg.Messaging.Workers.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.wg = &sync.WaitGroup{}

	for i := 0; i < concurrency; i++ {
		workerID := i
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.consumeLoop(runCtx, workerID)
		}()
	}

	e.logger.Info("worker engine started", zap.Int("workers", concurrency))

	return nil
}

func (e *Engine) stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()
	done := make(chan struct{})
	go func() {
		if e.wg != nil {
			e.wg.Wait()
		}
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		e.logger.Info("worker engine stopped")

		return nil
	}
}

func (e *Engine) consumeLoop(ctx context.Context, workerID int) {
	backoff := e.cfg.Messaging.Workers.PollInterval
	if backoff <= 0 {
		backoff = time.Second
	}
	for {
		if ctx.Err() != nil {
			return
		}

		err := e.client.Consume(ctx, func(msgCtx context.Context, msg messaging.Message) error {
			e.logger.Debug("processing message",
				zap.String("topic", msg.Topic),
				zap.String("event.type", msg.EventType()),
				zap.Int("worker", workerID),
			)
			return e.Dispatch(msgCtx, msg)
		})

		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}

		e.logger.Error("consume loop error", zap.Error(err))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}

		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}
