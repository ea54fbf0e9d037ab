// Package messaging implements the in-process event bus. Lifecycle commands
// publish after commit; subscribers (cache invalidation, audit logging) react
// without the commands knowing about them.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alem-hub/mentorship-hub/internal/domain/shared"
	"github.com/alem-hub/mentorship-hub/internal/infrastructure/metrics"
	"github.com/alem-hub/mentorship-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// InMemoryEventBus is a simple in-memory implementation of shared.EventBus.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	handlers    map[shared.EventType][]shared.EventHandler
	allHandlers []shared.EventHandler
	asyncMode   bool
	workerPool  chan struct{}
	timeout     time.Duration
	log         *logger.Logger
	closed      bool
	wg          sync.WaitGroup
}

// InMemoryEventBusConfig contains configuration for InMemoryEventBus.
type InMemoryEventBusConfig struct {
	// AsyncMode runs handlers on a bounded worker pool instead of inline.
	AsyncMode bool

	// WorkerPoolSize is the number of concurrent workers for async processing.
	WorkerPoolSize int

	// HandlerTimeout bounds each async handler call.
	HandlerTimeout time.Duration

	Logger *logger.Logger
}

// DefaultInMemoryEventBusConfig returns sensible defaults.
func DefaultInMemoryEventBusConfig() InMemoryEventBusConfig {
	return InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 10,
		HandlerTimeout: 5 * time.Second,
	}
}

// NewInMemoryEventBus creates a new in-memory event bus.
func NewInMemoryEventBus(config InMemoryEventBusConfig) *InMemoryEventBus {
	if config.Logger == nil {
		config.Logger = logger.Default()
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 10
	}
	if config.HandlerTimeout <= 0 {
		config.HandlerTimeout = 5 * time.Second
	}

	return &InMemoryEventBus{
		handlers:    make(map[shared.EventType][]shared.EventHandler),
		allHandlers: make([]shared.EventHandler, 0),
		asyncMode:   config.AsyncMode,
		workerPool:  make(chan struct{}, config.WorkerPoolSize),
		timeout:     config.HandlerTimeout,
		log:         config.Logger.Named("eventbus"),
	}
}

// Subscribe registers a handler for a specific event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.log.Debug("subscribed handler", logger.String("event_type", string(eventType)))

	return nil
}

// SubscribeAll registers a handler for all events.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	b.allHandlers = append(b.allHandlers, handler)
	return nil
}

// Publish sends an event to all subscribed handlers. Handler failures are
// logged and counted; they never fail the publisher, whose transaction has
// already committed.
func (b *InMemoryEventBus) Publish(ctx context.Context, event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}

	handlers := make([]shared.EventHandler, 0, len(b.handlers[event.EventType()])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.EventType()]...)
	handlers = append(handlers, b.allHandlers...)
	if b.asyncMode {
		// Registered under the read lock so Close cannot start waiting first.
		b.wg.Add(len(handlers))
	}
	b.mu.RUnlock()

	metrics.RecordEvent(string(event.EventType()))

	for _, handler := range handlers {
		if b.asyncMode {
			b.executeAsync(event, handler)
			continue
		}
		if err := b.execute(ctx, event, handler); err != nil {
			b.log.Error("handler error",
				logger.String("event_type", string(event.EventType())),
				logger.String("aggregate_id", event.AggregateID()),
				logger.Err(err),
			)
		}
	}

	return nil
}

// executeAsync runs a handler on the worker pool. The request context is not
// reused because it ends when the response is written.
func (b *InMemoryEventBus) executeAsync(event shared.Event, handler shared.EventHandler) {
	go func() {
		defer b.wg.Done()

		b.workerPool <- struct{}{}
		defer func() { <-b.workerPool }()

		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		start := time.Now()
		if err := b.execute(ctx, event, handler); err != nil {
			b.log.Error("async handler error",
				logger.String("event_type", string(event.EventType())),
				logger.Latency(time.Since(start)),
				logger.Err(err),
			)
		}
	}()
}

func (b *InMemoryEventBus) execute(ctx context.Context, event shared.Event, handler shared.EventHandler) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, p)
		}
		if err != nil {
			metrics.RecordHandlerFailure(string(event.EventType()))
		}
	}()
	return handler(ctx, event)
}

// Close stops accepting events and waits for queued and in-flight handlers.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.wg.Wait()

	b.log.Info("event bus closed")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEventBusClosed is returned when operations are attempted on a closed bus.
	ErrEventBusClosed = errors.New("event bus is closed")

	// ErrHandlerPanic is returned when a handler panics.
	ErrHandlerPanic = errors.New("handler panicked")
)

// ══════════════════════════════════════════════════════════════════════════════
// AUDIT SUBSCRIBER
// ══════════════════════════════════════════════════════════════════════════════

// AuditLog returns a handler that writes one structured line per lifecycle
// event. It is the audit trail for proposals and decisions.
func AuditLog(log *logger.Logger) shared.EventHandler {
	log = log.Named("audit")
	return func(_ context.Context, event shared.Event) error {
		fields := []logger.Field{
			logger.String("event_type", string(event.EventType())),
			logger.CollabRequestID(event.AggregateID()),
			logger.Time("occurred_at", event.OccurredAt()),
		}
		if ce, ok := event.(shared.CollaborationEvent); ok {
			fields = append(fields,
				logger.CardID(ce.CardID),
				logger.Tier(ce.Tier),
				logger.String("seeking_mentorship_id", ce.SeekingMentorshipID),
				logger.String("suggested_mentorship_id", ce.SuggestedMentorshipID),
			)
			if ce.CollaborationID != "" {
				fields = append(fields, logger.String("collaboration_id", ce.CollaborationID))
			}
		}
		log.Info("collaboration event", fields...)
		return nil
	}
}
