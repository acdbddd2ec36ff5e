// Package worker runs background delivery of request events.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk360/internal/events"
	"github.com/spec-kit/helpdesk360/internal/service"
)

const (
	defaultQueueSize = 256
	publishTimeout   = 5 * time.Second
)

// ErrQueueFull is returned when the forwarder cannot accept more events.
var ErrQueueFull = errors.New("event queue full")

// ErrForwarderStopped is returned for events offered after Stop.
var ErrForwarderStopped = errors.New("event forwarder stopped")

// EventForwarder decouples request handling from the broker. Publish only
// enqueues; a single goroutine drains the queue into the downstream publisher
// so that events keep their relative order.
type EventForwarder struct {
	downstream service.EventPublisher
	queue      chan events.Event
	logger     *zap.Logger

	mu      sync.RWMutex
	stopped bool
	done    chan struct{}
	once    sync.Once
}

var _ service.EventPublisher = (*EventForwarder)(nil)

// NewEventForwarder builds a forwarder with room for queueSize pending events.
func NewEventForwarder(downstream service.EventPublisher, queueSize int, logger *zap.Logger) *EventForwarder {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventForwarder{
		downstream: downstream,
		queue:      make(chan events.Event, queueSize),
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Start launches the delivery goroutine.
func (f *EventForwarder) Start() {
	go f.run()
}

// Publish enqueues event without waiting for the broker.
func (f *EventForwarder) Publish(_ context.Context, event events.Event) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.stopped {
		return ErrForwarderStopped
	}
	select {
	case f.queue <- event:
		return nil
	default:
		f.logger.Warn("dropping request event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Int64("request_id", event.RequestID))
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for pending events to drain or ctx to end.
func (f *EventForwarder) Stop(ctx context.Context) error {
	f.once.Do(func() {
		f.mu.Lock()
		f.stopped = true
		close(f.queue)
		f.mu.Unlock()
	})
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending reports how many events wait for delivery.
func (f *EventForwarder) Pending() int {
	return len(f.queue)
}

func (f *EventForwarder) run() {
	defer close(f.done)
	for event := range f.queue {
		f.deliver(event)
	}
}

func (f *EventForwarder) deliver(event events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := f.downstream.Publish(ctx, event); err != nil {
		f.logger.Error("deliver request event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return
	}
	f.logger.Debug("request event delivered",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))
}
