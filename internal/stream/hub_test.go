package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHubSubscribeAndUnsubscribe(t *testing.T) {
	hub := NewHub()

	l := hub.Subscribe()
	require.Equal(t, 1, hub.Len())

	hub.Unsubscribe(l)
	require.Equal(t, 0, hub.Len())

	// Second unsubscribe of the same listener must be a no-op.
	hub.Unsubscribe(l)
	require.Equal(t, 0, hub.Len())
}

func TestHubPublishOrderPerListener(t *testing.T) {
	hub := NewHub()
	l := hub.Subscribe()
	defer hub.Unsubscribe(l)

	hub.Publish("new_broadcast", map[string]string{"note": "first"})
	hub.Publish("new_broadcast", map[string]string{"note": "second"})
	hub.Publish("refresh", map[string]string{"action": "deleted"})

	require.Equal(t, "new_broadcast", recvEvent(t, l).Name)
	second := recvEvent(t, l)
	require.Equal(t, "new_broadcast", second.Name)
	require.Contains(t, string(second.Data), "second")
	require.Equal(t, "refresh", recvEvent(t, l).Name)
}

func TestHubListenerMissesEarlierEvents(t *testing.T) {
	hub := NewHub()

	hub.Publish("new_broadcast", map[string]string{"note": "before"})

	l := hub.Subscribe()
	defer hub.Unsubscribe(l)
	hub.Publish("new_broadcast", map[string]string{"note": "after"})

	event := recvEvent(t, l)
	require.Contains(t, string(event.Data), "after")
	require.Empty(t, l.Events())
}

func TestHubPublishNeverBlocksOnFullListener(t *testing.T) {
	hub := NewHub()
	l := hub.Subscribe()
	defer hub.Unsubscribe(l)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < listenerBuffer+16; i++ {
			hub.Publish("new_broadcast", map[string]int{"seq": i})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a listener that never drains")
	}

	// FIFO is preserved for what fit in the queue.
	require.Contains(t, string(recvEvent(t, l).Data), `"seq":0`)
}

func recvEvent(t *testing.T, l *Listener) Event {
	t.Helper()
	select {
	case event, ok := <-l.Events():
		require.True(t, ok, "listener channel closed")
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}
