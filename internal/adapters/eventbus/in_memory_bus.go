package eventbus

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"SanduqVerify/internal/core/ports"
)

// inMemoryEventBus implements the ports.EventBus interface. The engine
// publishes step, document and draft notifications on it; the UI layer
// subscribes to know when to re-render.
type inMemoryEventBus struct {
	log         zerolog.Logger
	subscribers map[string][]ports.EventHandler
	mu          sync.RWMutex
}

// NewInMemoryEventBus creates a new, empty event bus
func NewInMemoryEventBus(baseLogger *zerolog.Logger) ports.EventBus {
	return &inMemoryEventBus{
		log:         baseLogger.With().Str("component", "in_memory_bus").Logger(),
		subscribers: make(map[string][]ports.EventHandler),
	}
}

// Publish sends an event to all subscribers of a topic. Publishing
// with no subscribers is normal here: the engine emits notifications
// whether or not a screen is mounted.
func (b *inMemoryEventBus) Publish(ctx context.Context, topic string, data interface{}) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	handlers, ok := b.subscribers[topic]
	if !ok {
		return nil
	}

	event := ports.Event{
		Topic: topic,
		Data:  data,
	}

	// Each handler runs on its own goroutine so a slow screen cannot
	// stall the engine or the other subscribers.
	for _, handler := range handlers {
		go func(h ports.EventHandler) {
			// Handlers get a fresh context: a notification already in
			// flight should not vanish because the publisher's call
			// finished.
			if err := h(context.Background(), event); err != nil {
				b.log.Error().Err(err).Str("topic", topic).Msg("Event handler failed")
			}
		}(handler)
	}

	return nil
}

// Subscribe registers a handler for a specific topic
func (b *inMemoryEventBus) Subscribe(topic string, handler ports.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers[topic] = append(b.subscribers[topic], handler)
	b.log.Debug().Str("topic", topic).Msg("New handler subscribed to topic")
}
