package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk360/internal/events"
)

type recordingPublisher struct {
	mu      sync.Mutex
	ids     []string
	release chan struct{}
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	if p.release != nil {
		<-p.release
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, event.ID)
	return p.err
}

func (p *recordingPublisher) delivered() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.ids...)
}

func TestEventForwarder_DeliversInOrder(t *testing.T) {
	downstream := &recordingPublisher{}
	forwarder := NewEventForwarder(downstream, 8, nil)
	forwarder.Start()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, forwarder.Publish(context.Background(), events.Event{ID: id, Type: events.EventRequestCreated}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, forwarder.Stop(ctx))
	assert.Equal(t, []string{"a", "b", "c"}, downstream.delivered())
}

func TestEventForwarder_QueueFull(t *testing.T) {
	downstream := &recordingPublisher{release: make(chan struct{})}
	forwarder := NewEventForwarder(downstream, 1, nil)

	require.NoError(t, forwarder.Publish(context.Background(), events.Event{ID: "first"}))
	err := forwarder.Publish(context.Background(), events.Event{ID: "second"})
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 1, forwarder.Pending())

	forwarder.Start()
	close(downstream.release)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, forwarder.Stop(ctx))
	assert.Equal(t, []string{"first"}, downstream.delivered())
}

func TestEventForwarder_DownstreamErrorsDoNotStopDelivery(t *testing.T) {
	downstream := &recordingPublisher{err: errors.New("broker down")}
	forwarder := NewEventForwarder(downstream, 4, nil)
	forwarder.Start()

	require.NoError(t, forwarder.Publish(context.Background(), events.Event{ID: "a"}))
	require.NoError(t, forwarder.Publish(context.Background(), events.Event{ID: "b"}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, forwarder.Stop(ctx))
	assert.Equal(t, []string{"a", "b"}, downstream.delivered())
}

func TestEventForwarder_RejectsAfterStop(t *testing.T) {
	forwarder := NewEventForwarder(&recordingPublisher{}, 4, nil)
	forwarder.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, forwarder.Stop(ctx))
	require.NoError(t, forwarder.Stop(ctx))

	err := forwarder.Publish(context.Background(), events.Event{ID: "late"})
	assert.ErrorIs(t, err, ErrForwarderStopped)
}
