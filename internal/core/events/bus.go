package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	Payload() interface{}
}

type BaseEvent struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) EventID() string {
	return e.ID
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

func (e BaseEvent) Payload() interface{} {
	return e.Data
}

type Handler func(ctx context.Context, event Event) error

// Observer sees every published event, subscribed or not, before any handler runs.
// It is called on the publishing goroutine and must not block.
type Observer func(event Event)

// ErrUnexpectedEvent is returned by typed subscriptions when an event of the
// subscribed type does not carry the expected payload.
var ErrUnexpectedEvent = errors.New("unexpected event payload")

// Publisher is the subset of EventBus that services depend on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type EventBus struct {
	handlers  map[string][]Handler
	observers []Observer
	logger    *slog.Logger
	mu        sync.RWMutex
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

func (eb *EventBus) Subscribe(eventType string, handler Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	eb.logger.Debug("event handler registered",
		"event_type", eventType,
		"total_handlers", len(eb.handlers[eventType]))
}

// SubscribeUserEvent registers a handler that receives the principal lifecycle event itself.
func (eb *EventBus) SubscribeUserEvent(eventType string, handler func(ctx context.Context, event *UserEvent) error) {
	eb.Subscribe(eventType, func(ctx context.Context, event Event) error {
		ue, ok := event.(*UserEvent)
		if !ok {
			return fmt.Errorf("%w: %s carried %T", ErrUnexpectedEvent, event.EventType(), event)
		}
		return handler(ctx, ue)
	})
}

// Observe registers fn for every event type.
func (eb *EventBus) Observe(fn Observer) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.observers = append(eb.observers, fn)
}

// route notifies observers and returns the handlers subscribed to the event's type.
func (eb *EventBus) route(event Event) []Handler {
	eb.mu.RLock()
	handlers := eb.handlers[event.EventType()]
	observers := eb.observers
	eb.mu.RUnlock()

	for _, observe := range observers {
		observe(event)
	}
	if len(handlers) == 0 {
		eb.logger.Debug("no handlers for event type", "event_type", event.EventType())
	}
	return handlers
}

// Publish fans the event out to its handlers on their own goroutines and returns at once.
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	handlers := eb.route(event)
	if len(handlers) == 0 {
		return nil
	}

	eb.logger.Debug("publishing event",
		"event_type", event.EventType(),
		"event_id", event.EventID(),
		"handlers_count", len(handlers))

	// handlers outlive the request that published the event
	detached := context.WithoutCancel(ctx)
	for _, handler := range handlers {
		go func(h Handler) {
			if err := h(detached, event); err != nil {
				eb.handlerFailed(event, err)
			}
		}(handler)
	}

	return nil
}

// PublishSync runs every handler in order and returns all of their failures joined.
func (eb *EventBus) PublishSync(ctx context.Context, event Event) error {
	handlers := eb.route(event)
	if len(handlers) == 0 {
		return nil
	}

	eb.logger.Info("publishing event synchronously",
		"event_type", event.EventType(),
		"event_id", event.EventID(),
		"handlers_count", len(handlers))

	var failures []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			eb.handlerFailed(event, err)
			failures = append(failures, err)
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d of %d handlers failed for event %s: %w",
			len(failures), len(handlers), event.EventType(), errors.Join(failures...))
	}
	return nil
}

func (eb *EventBus) handlerFailed(event Event, err error) {
	eb.logger.Error("event handler failed",
		"event_type", event.EventType(),
		"event_id", event.EventID(),
		"error", err)
}
