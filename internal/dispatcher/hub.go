package dispatcher

import (
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const DefaultSendBuffer = 32

// Hub routes events to the connections attached to this process.
type Hub struct {
	logger     *slog.Logger
	bufferSize int

	mu    sync.RWMutex
	sinks map[string]chan *entity.Event
}

func NewHub(logger *slog.Logger, bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultSendBuffer
	}

	return &Hub{
		logger:     logger.With("component", "hub"),
		bufferSize: bufferSize,
		sinks:      make(map[string]chan *entity.Event),
	}
}

// Register attaches a connection and returns the channel its writer drains.
// Registering the same ID twice replaces the old sink.
func (that *Hub) Register(connectionID string) <-chan *entity.Event {
	sink := make(chan *entity.Event, that.bufferSize)

	that.mu.Lock()
	defer that.mu.Unlock()

	if old, ok := that.sinks[connectionID]; ok {
		close(old)
	}

	that.sinks[connectionID] = sink

	return sink
}

// Unregister detaches a connection and closes its sink.
func (that *Hub) Unregister(connectionID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if sink, ok := that.sinks[connectionID]; ok {
		close(sink)
		delete(that.sinks, connectionID)
	}
}

// Deliver never blocks: a recipient whose buffer is full misses the event.
func (that *Hub) Deliver(event *entity.Event) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	for _, recipient := range event.Recipients {
		sink, ok := that.sinks[recipient]
		if !ok {
			continue
		}

		select {
		case sink <- event:
		default:
			that.logger.Warn("dropping event for slow connection",
				"connection_id", recipient, "kind", event.Kind, "code", event.RoomCode)
		}
	}
}

func (that *Hub) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.sinks)
}
