// Package event defines the ledger events published after orders commit.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/brewbar/internal/messaging"
)

const (
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"
)

// Envelope wraps every event on the bus.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// OrderPlaced is emitted after an order and its items commit.
type OrderPlaced struct {
	OrderID   int64     `json:"order_id"`
	Customer  string    `json:"customer"`
	Total     string    `json:"total"`
	ItemCount int       `json:"item_count"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderStatusChanged is emitted after a status update commits.
type OrderStatusChanged struct {
	OrderID int64  `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// Publisher serialises events into envelopes on a messaging client.
type Publisher struct {
	client messaging.Client
	logger *zap.Logger
	now    func() time.Time
}

// Module provides the Publisher to Fx.
var Module = fx.Provide(NewPublisher)

// NewPublisher wires a Publisher.
func NewPublisher(client messaging.Client, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{client: client, logger: logger, now: time.Now}
}

// Publish sends payload as an event of the given type keyed by orderID.
func (p *Publisher) Publish(ctx context.Context, eventType string, orderID int64, payload any) error {
	if p == nil || p.client == nil {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	env := Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: p.now().UTC(),
		Payload:    body,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", eventType, err)
	}
	key := []byte(fmt.Sprintf("order-%d", orderID))
	return p.client.Publish(ctx, key, value, map[string]string{messaging.HeaderEventType: eventType})
}

// PublishBestEffort publishes and logs failures instead of returning them.
// Events go out after commit, so a bus outage must not fail the request.
func (p *Publisher) PublishBestEffort(ctx context.Context, eventType string, orderID int64, payload any) {
	if err := p.Publish(ctx, eventType, orderID, payload); err != nil {
		p.logger.Error("publish ledger event",
			zap.String("event.type", eventType),
			zap.Int64("order.id", orderID),
			zap.Error(err),
		)
	}
}

// Decode unpacks an envelope from a consumed message.
func Decode(msg messaging.Message) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: decode envelope: %w", messaging.ErrPermanent, err)
	}
	if env.Type == "" {
		env.Type = msg.EventType()
	}
	return env, nil
}
