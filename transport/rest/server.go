package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type roomReader interface {
	Room(code string) (entity.RoomSnapshot, error)
}

type Server struct {
	logger    *slog.Logger
	rooms     roomReader
	publicURL string
}

func New(logger *slog.Logger, rooms roomReader, publicURL string) *Server {
	return &Server{
		logger:    logger.With("component", "rest"),
		rooms:     rooms,
		publicURL: publicURL,
	}
}

func (that *Server) Handler() http.Handler {
	router := httprouter.New()

	router.GET("/ping", PingHandler)
	router.GET("/rooms/:code", that.RoomHandler)
	router.GET("/rooms/:code/qr", that.QRHandler)

	router.PanicHandler = func(w http.ResponseWriter, _ *http.Request, recovered any) {
		that.logger.Error("handler panicked", "panic", recovered)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}

	return router
}

func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
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
