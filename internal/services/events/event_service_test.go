package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/refero/internal/interfaces"
)

func newTestService() interfaces.EventService {
	return NewService(arbor.NewLogger())
}

func TestSubscribeRejectsNilHandler(t *testing.T) {
	svc := newTestService()
	defer svc.Close()

	err := svc.Subscribe(interfaces.EventJobQueued, nil)
	assert.Error(t, err)
}

func TestPublishSyncDeliversToAllSubscribers(t *testing.T) {
	svc := newTestService()
	defer svc.Close()

	var mu sync.Mutex
	var received []string

	handler := func(name string) interfaces.EventHandler {
		return func(ctx context.Context, event interfaces.Event) error {
			mu.Lock()
			defer mu.Unlock()
			received = append(received, name)
			return nil
		}
	}

	require.NoError(t, svc.Subscribe(interfaces.EventJobCompleted, handler("first")))
	require.NoError(t, svc.Subscribe(interfaces.EventJobCompleted, handler("second")))

	err := svc.PublishSync(context.Background(), interfaces.Event{
		Type:    interfaces.EventJobCompleted,
		Payload: "job-1",
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"first", "second"}, received)
}

func TestPublishSyncIsolatesEventTypes(t *testing.T) {
	svc := newTestService()
	defer svc.Close()

	called := false
	require.NoError(t, svc.Subscribe(interfaces.EventJobFailed, func(ctx context.Context, event interfaces.Event) error {
		called = true
		return nil
	}))

	require.NoError(t, svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventJobQueued}))
	assert.False(t, called)
}

func TestPublishSyncAggregatesHandlerErrors(t *testing.T) {
	svc := newTestService()
	defer svc.Close()

	require.NoError(t, svc.Subscribe(interfaces.EventJobFailed, func(ctx context.Context, event interfaces.Event) error {
		return errors.New("delivery refused")
	}))
	require.NoError(t, svc.Subscribe(interfaces.EventJobFailed, func(ctx context.Context, event interfaces.Event) error {
		return nil
	}))

	err := svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventJobFailed})
	assert.Error(t, err)
}

func TestPublishIsAsynchronous(t *testing.T) {
	svc := newTestService()
	defer svc.Close()

	done := make(chan interfaces.Event, 1)
	require.NoError(t, svc.Subscribe(interfaces.EventJobProgress, func(ctx context.Context, event interfaces.Event) error {
		done <- event
		return nil
	}))

	err := svc.Publish(context.Background(), interfaces.Event{
		Type:    interfaces.EventJobProgress,
		Payload: 42,
	})
	require.NoError(t, err)

	select {
	case event := <-done:
		assert.Equal(t, 42, event.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestUnsubscribeRemovesHandler(t *testing.T) {
	svc := newTestService()
	defer svc.Close()

	count := 0
	handler := func(ctx context.Context, event interfaces.Event) error {
		count++
		return nil
	}

	require.NoError(t, svc.Subscribe(interfaces.EventJobQueued, handler))
	require.NoError(t, svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventJobQueued}))
	require.Equal(t, 1, count)

	require.NoError(t, svc.Unsubscribe(interfaces.EventJobQueued, handler))
	require.NoError(t, svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventJobQueued}))
	assert.Equal(t, 1, count)
}

func TestUnsubscribeUnknownHandler(t *testing.T) {
	svc := newTestService()
	defer svc.Close()

	err := svc.Unsubscribe(interfaces.EventJobQueued, func(ctx context.Context, event interfaces.Event) error {
		return nil
	})
	assert.Error(t, err)
}
