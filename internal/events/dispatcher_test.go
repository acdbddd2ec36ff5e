package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_DeliversToSubscribersOfType(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var created, deleted []int64
	d.Subscribe(EventRequestCreated, func(_ context.Context, e Event) error {
		created = append(created, e.RequestID)
		return nil
	})
	d.Subscribe(EventRequestDeleted, func(_ context.Context, e Event) error {
		deleted = append(deleted, e.RequestID)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventRequestCreated, RequestID: 7}))

	assert.Equal(t, []int64{7}, created)
	assert.Empty(t, deleted)
}

func TestDispatcher_HandlerErrorDoesNotStopOthers(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	calls := 0
	d.Subscribe(EventRequestUpdated, func(context.Context, Event) error {
		calls++
		return errors.New("broker down")
	})
	d.Subscribe(EventRequestUpdated, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventRequestUpdated, RequestID: 1})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}
