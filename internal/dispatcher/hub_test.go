package dispatcher

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHub_Deliver(t *testing.T) {
	t.Run("Only recipients receive the event", func(t *testing.T) {
		// Given: three registered connections
		hub := NewHub(discardLogger(), 4)
		a := hub.Register("a")
		b := hub.Register("b")
		c := hub.Register("c")

		// When: an event addressed to a and b is delivered
		event := entity.NewEvent(entity.EventMatchStarted, "ROOM01", []string{"a", "b"}, entity.EventPayload{})
		hub.Deliver(event)

		// Then: a and b get it, c does not
		assert.Same(t, event, <-a)
		assert.Same(t, event, <-b)
		assert.Empty(t, c)
	})

	t.Run("Unknown recipients are skipped", func(t *testing.T) {
		hub := NewHub(discardLogger(), 1)

		assert.NotPanics(t, func() {
			hub.Deliver(entity.NewEvent(entity.EventBoardUpdated, "ROOM01", []string{"gone"}, entity.EventPayload{}))
		})
	})

	t.Run("Full sink drops instead of blocking", func(t *testing.T) {
		// Given: a sink with room for one event
		hub := NewHub(discardLogger(), 1)
		sink := hub.Register("a")

		first := entity.NewEvent(entity.EventBoardUpdated, "ROOM01", []string{"a"}, entity.EventPayload{})
		second := entity.NewEvent(entity.EventBoardUpdated, "ROOM01", []string{"a"}, entity.EventPayload{})

		// When: two events are delivered without draining
		hub.Deliver(first)
		hub.Deliver(second)

		// Then: the first is kept and the second is dropped
		require.Len(t, sink, 1)
		assert.Same(t, first, <-sink)
	})

	t.Run("Events keep publish order", func(t *testing.T) {
		hub := NewHub(discardLogger(), 8)
		sink := hub.Register("a")
		local := NewLocal(hub)

		kinds := []entity.EventKind{entity.EventBoardUpdated, entity.EventMatchFinished, entity.EventRematchStarted}
		for _, kind := range kinds {
			require.NoError(t, local.Publish(context.Background(), entity.NewEvent(kind, "ROOM01", []string{"a"}, entity.EventPayload{})))
		}

		for _, kind := range kinds {
			assert.Equal(t, kind, (<-sink).Kind)
		}
	})
}

func TestHub_Unregister(t *testing.T) {
	t.Run("Unregister closes the sink", func(t *testing.T) {
		hub := NewHub(discardLogger(), 1)
		sink := hub.Register("a")

		hub.Unregister("a")

		_, open := <-sink
		assert.False(t, open)
		assert.Equal(t, 0, hub.Len())
	})

	t.Run("Re-registering closes the previous sink", func(t *testing.T) {
		hub := NewHub(discardLogger(), 1)
		old := hub.Register("a")
		fresh := hub.Register("a")

		_, open := <-old
		assert.False(t, open)
		assert.Equal(t, 1, hub.Len())

		hub.Deliver(entity.NewEvent(entity.EventChatRelayed, "ROOM01", []string{"a"}, entity.EventPayload{Text: "hi"}))
		assert.Equal(t, "hi", (<-fresh).Payload.Text)
	})
}
