package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
)

const (
	writeWait       = 10 * time.Second
	shutdownTimeout = 5 * time.Second

	defaultReadLimit    = 4096
	defaultPingInterval = 30 * time.Second
)

type gameManager interface {
	Handle(ctx context.Context, connectionID string, command entity.Command) error
}

type hub interface {
	Register(connectionID string) <-chan *entity.Event
	Unregister(connectionID string)
	Deliver(event *entity.Event)
}

type Options struct {
	ReadLimit    int64
	PingInterval time.Duration
}

type Server struct {
	logger   *slog.Logger
	game     gameManager
	hub      hub
	upgrader websocket.Upgrader

	readLimit    int64
	pingInterval time.Duration
}

func New(logger *slog.Logger, game gameManager, hub hub, opts Options) *Server {
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = defaultReadLimit
	}

	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultPingInterval
	}

	return &Server{
		logger: logger.With("component", "websocket"),
		game:   game,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},

		readLimit:    opts.ReadLimit,
		pingInterval: opts.PingInterval,
	}
}

func (that *Server) Handler() http.Handler {
	router := httprouter.New()
	router.GET("/ws", that.serveWS)

	return router
}

// Start - starts WebSocket server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) serveWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log := that.logger.With("method", "serveWS")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	connectionID := pkg.GenerateConnectionID()
	sink := that.hub.Register(connectionID)

	log.Debug("connection opened", "connection_id", connectionID)

	go that.writePump(conn, connectionID, sink)
	that.readPump(r.Context(), conn, connectionID)
}

// readPump runs commands in arrival order until the socket fails, then turns
// the failure into a Disconnect.
func (that *Server) readPump(ctx context.Context, conn *websocket.Conn, connectionID string) {
	log := that.logger.With("method", "readPump", "connection_id", connectionID)

	// request context is cancelled once the handler returns
	ctx = context.WithoutCancel(ctx)

	defer func() {
		if err := that.game.Handle(ctx, connectionID, entity.Disconnect{}); err != nil {
			log.Error("failed to handle disconnect", "error", err)
		}

		that.hub.Unregister(connectionID)
		_ = conn.Close()

		log.Debug("connection closed")
	}()

	conn.SetReadLimit(that.readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(that.pongWait()))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(that.pongWait()))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("unexpected close", "error", err)
			}

			return
		}

		var msg Message
		if err = json.Unmarshal(data, &msg); err != nil {
			that.reject(connectionID, "malformed message")
			continue
		}

		command, err := decodeCommand(&msg)
		if err != nil {
			log.Debug("rejecting command", "action", msg.Action, "error", err)
			that.reject(connectionID, err.Error())

			continue
		}

		if err = that.game.Handle(ctx, connectionID, command); err != nil {
			log.Debug("command dropped", "action", msg.Action, "error", err)
		}
	}
}

func (that *Server) writePump(conn *websocket.Conn, connectionID string, sink <-chan *entity.Event) {
	log := that.logger.With("method", "writePump", "connection_id", connectionID)

	ticker := time.NewTicker(that.pingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case event, ok := <-sink:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			msg, err := encodeEvent(event)
			if err != nil {
				log.Error("failed to encode event", "kind", event.Kind, "error", err)
				continue
			}

			if err = conn.WriteJSON(msg); err != nil {
				log.Debug("failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (that *Server) reject(connectionID, reason string) {
	that.hub.Deliver(entity.NewEvent(entity.EventCommandRejected, "", []string{connectionID}, entity.EventPayload{
		Error: reason,
	}))
}

func (that *Server) pongWait() time.Duration {
	return that.pingInterval * 2
}
