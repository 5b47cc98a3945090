package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/brewbar/internal/config"
)

// rabbitClient publishes to a topic exchange and consumes from a queue bound to it.
// The connection is dialled on first use and re-dialled after it drops.
type rabbitClient struct {
	cfg    config.RabbitMQ
	logger *zap.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	publish *amqp.Channel
}

func newRabbitClient(lc fx.Lifecycle, cfg config.RabbitMQ, logger *zap.Logger) *rabbitClient {
	client := &rabbitClient{cfg: cfg, logger: logger}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			logger.Info("closing rabbitmq client")
			return client.Close()
		},
	})
	return client
}

func (r *rabbitClient) Topic() string { return r.cfg.Exchange }

func (r *rabbitClient) Publish(ctx context.Context, key []byte, value []byte, headers map[string]string) error {
	ch, err := r.publishChannel()
	if err != nil {
		return err
	}

	routingKey := headers[HeaderEventType]
	if routingKey == "" {
		routingKey = r.cfg.Exchange
	}

	pubCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return ch.PublishWithContext(pubCtx, r.cfg.Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    string(key),
		Timestamp:    time.Now().UTC(),
		Headers:      toAMQPTable(headers),
		Body:         value,
	})
}

func (r *rabbitClient) Consume(ctx context.Context, handler Handler) error {
	conn, err := r.connection()
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := r.declare(ch); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(r.cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(r.cfg.Queue, "#", r.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	if err := ch.Qos(r.cfg.Prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx, r.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			msg := Message{
				Topic:   d.Exchange,
				Key:     []byte(d.MessageId),
				Value:   d.Body,
				Headers: fromAMQPTable(d.Headers),
				Offset:  int64(d.DeliveryTag),
				Time:    d.Timestamp,
			}
			err := handler(ctx, msg)
			if err != nil {
				r.logger.Error("message handler failed", zap.Error(err), zap.Uint64("delivery_tag", d.DeliveryTag))
			}
			if settleErr := settle(d, err); settleErr != nil {
				r.logger.Warn("settle delivery failed", zap.Error(settleErr), zap.Uint64("delivery_tag", d.DeliveryTag))
			}
		}
	}
}

// settle acks a handled delivery. Failures are nacked; permanent ones are not
// requeued so the broker drops or dead-letters them.
func settle(d amqp.Delivery, handlerErr error) error {
	switch {
	case handlerErr == nil:
		return d.Ack(false)
	case errors.Is(handlerErr, ErrPermanent):
		return d.Nack(false, false)
	default:
		return d.Nack(false, true)
	}
}

// Close tears down the shared connection.
func (r *rabbitClient) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publish = nil
	if r.conn == nil || r.conn.IsClosed() {
		return nil
	}
	return r.conn.Close()
}

func (r *rabbitClient) connection() (*amqp.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connectionLocked()
}

func (r *rabbitClient) connectionLocked() (*amqp.Connection, error) {
	if r.conn != nil && !r.conn.IsClosed() {
		return r.conn, nil
	}
	conn, err := amqp.DialConfig(r.cfg.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(r.cfg.ConnectTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	r.conn = conn
	r.publish = nil
	r.logger.Info("rabbitmq connected", zap.String("exchange", r.cfg.Exchange))
	return conn, nil
}

func (r *rabbitClient) publishChannel() (*amqp.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, err := r.connectionLocked()
	if err != nil {
		return nil, err
	}
	if r.publish != nil && !r.publish.IsClosed() {
		return r.publish, nil
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := r.declare(ch); err != nil {
		_ = ch.Close()
		return nil, err
	}
	r.publish = ch
	return ch, nil
}

func (r *rabbitClient) declare(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(r.cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	return nil
}

func toAMQPTable(headers map[string]string) amqp.Table {
	if len(headers) == 0 {
		return nil
	}
	table := make(amqp.Table, len(headers))
	for k, v := range headers {
		table[k] = v
	}
	return table
}

func fromAMQPTable(table amqp.Table) map[string]string {
	if len(table) == 0 {
		return nil
	}
	m := make(map[string]string, len(table))
	for k, v := range table {
		switch val := v.(type) {
		case string:
			m[k] = val
		case []byte:
			m[k] = string(val)
		default:
			m[k] = fmt.Sprint(val)
		}
	}
	return m
}
