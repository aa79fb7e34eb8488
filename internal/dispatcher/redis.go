package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const DefaultChannel = "tictactoe:events"

// Redis fans events out over a pub/sub channel so every gateway subscribed to
// it delivers to its own connections.
type Redis struct {
	logger  *slog.Logger
	client  *redis.Client
	channel string
	hub     *Hub
}

func NewRedis(logger *slog.Logger, client *redis.Client, channel string, hub *Hub) *Redis {
	if channel == "" {
		channel = DefaultChannel
	}

	return &Redis{
		logger:  logger.With("component", "redis-dispatcher"),
		client:  client,
		channel: channel,
		hub:     hub,
	}
}

func (that *Redis) Publish(ctx context.Context, event *entity.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err = that.client.Publish(ctx, that.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Run delivers every event seen on the channel into the hub until ctx is done.
func (that *Redis) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run", "channel", that.channel)

	sub := that.client.Subscribe(ctx, that.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	log.Info("subscribed to event channel")

	messages := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}

			var event entity.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error("failed to unmarshal event", "error", err)

				continue
			}

			that.hub.Deliver(&event)
		}
	}
}
