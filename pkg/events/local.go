package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LocalBus delivers events to in-process subscribers synchronously. It is
// used when no NATS server is configured and in tests.
type LocalBus struct {
	mu       sync.RWMutex
	handlers map[string][]func(msg *Message)
	queues   map[string]bool
	history  []*Message
}

func NewLocalBus() *LocalBus {
	return &LocalBus{
		handlers: make(map[string][]func(msg *Message)),
		queues:   make(map[string]bool),
	}
}

func (b *LocalBus) Publish(_ context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	msg := &Message{
		Subject:   subject,
		Data:      payload,
		Timestamp: time.Now(),
		ID:        uuid.NewString(),
	}

	b.mu.Lock()
	b.history = append(b.history, msg)
	handlers := append([]func(*Message){}, b.handlers[subject]...)
	b.mu.Unlock()

	for _, h := range handlers {
		h(msg)
	}
	return nil
}

func (b *LocalBus) Subscribe(subject string, handler func(msg *Message)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[subject] = append(b.handlers[subject], handler)
	return nil
}

// QueueSubscribe keeps one handler per subject/queue pair, matching the
// single-delivery semantics of a NATS queue group in one process.
func (b *LocalBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	b.mu.Lock()
	key := subject + "|" + queue
	if b.queues[key] {
		b.mu.Unlock()
		return nil
	}
	b.queues[key] = true
	b.mu.Unlock()
	return b.Subscribe(subject, handler)
}

// Published returns the messages published on subject, oldest first.
func (b *LocalBus) Published(subject string) []*Message {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []*Message
	for _, m := range b.history {
		if m.Subject == subject {
			out = append(out, m)
		}
	}
	return out
}

func (b *LocalBus) Close() error { return nil }
