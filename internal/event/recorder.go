package event

import (
	"context"
	"sync"

	"github.com/Additional-Code/brewbar/internal/messaging"
)

// Recorder is an in-memory messaging.Client that keeps published messages.
// It backs tests and the CLI when no broker is configured.
type Recorder struct {
	mu       sync.Mutex
	messages []messaging.Message
	Err      error
}

// Publish implements messaging.Client.
func (r *Recorder) Publish(_ context.Context, key []byte, value []byte, headers map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.messages = append(r.messages, messaging.Message{
		Topic:   r.Topic(),
		Key:     append([]byte(nil), key...),
		Value:   append([]byte(nil), value...),
		Headers: headers,
		Offset:  int64(len(r.messages)),
	})
	return nil
}

// Consume implements messaging.Client by replaying recorded messages.
func (r *Recorder) Consume(ctx context.Context, handler messaging.Handler) error {
	for _, msg := range r.Messages() {
		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

// Topic implements messaging.Client.
func (r *Recorder) Topic() string { return "recorder" }

// Messages returns a copy of everything published so far.
func (r *Recorder) Messages() []messaging.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]messaging.Message(nil), r.messages...)
}

// Types returns the event type of each recorded message, in order.
func (r *Recorder) Types() []string {
	msgs := r.Messages()
	types := make([]string, len(msgs))
	for i, m := range msgs {
		types[i] = m.EventType()
	}
	return types
}
