package application

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/config"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/dispatcher"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/rest"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/websocket"
)

type eventPublisher interface {
	Publish(ctx context.Context, event *entity.Event) error
}

// RunApp - runs the application until SIGINT/SIGTERM or a server failure.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hub := dispatcher.NewHub(logger, conf.WebSocket.SendBuffer)

	errCh := make(chan error, 3)

	var publisher eventPublisher = dispatcher.NewLocal(hub)

	if conf.Dispatcher.Driver == config.DispatcherRedis {
		client, err := storage.NewRedisClient(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			return fmt.Errorf("could not connect to redis: %w", err)
		}

		defer closeRedis(log, client)

		redisDispatcher := dispatcher.NewRedis(logger, client, conf.Dispatcher.Channel, hub)
		publisher = redisDispatcher

		go func() {
			if err := redisDispatcher.Run(ctx); err != nil {
				errCh <- fmt.Errorf("redis dispatcher error: %w", err)
			}
		}()
	}

	rooms := repository.NewRoomRegistry(conf.Room.CodeLength)
	sessions := repository.NewSessionBinder()
	gameManager := usecase.NewGameManager(logger, rooms, sessions, publisher, conf.Room.IdleTimeout)

	go gameManager.RunReaper(ctx, conf.Room.ReapInterval)

	// run HTTP server
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)

		if err := rest.New(logger, gameManager, conf.PublicURL).Start(ctx, conf.HTTPPort); err != nil {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// run Websocket server
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort, "dispatcher", conf.Dispatcher.Driver)

		wsServer := websocket.New(logger, gameManager, hub, websocket.Options{
			ReadLimit:    conf.WebSocket.ReadLimit,
			PingInterval: conf.WebSocket.PingInterval,
		})

		if err := wsServer.Start(ctx, conf.SocketPort); err != nil {
			errCh <- fmt.Errorf("WebSocket server error: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		log.Error("shutting down after failure", "error", err)
		return err
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

func closeRedis(log *slog.Logger, client *redis.Client) {
	if err := client.Close(); err != nil {
		log.Error("could not close redis client", "error", err)
	}
}
