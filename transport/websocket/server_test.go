package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/dispatcher"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
)

const readTimeout = 2 * time.Second

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := dispatcher.NewHub(logger, 16)
	manager := usecase.NewGameManager(logger, repository.NewRoomRegistry(6), repository.NewSessionBinder(), dispatcher.NewLocal(hub), 0)

	srv := httptest.NewServer(New(logger, manager, hub, Options{}).Handler())
	t.Cleanup(srv.Close)

	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()

	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, action string, payload any) {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(Message{Action: action, Payload: raw}))
}

// expect reads the next message and checks its action.
func expect(t *testing.T, conn *websocket.Conn, action entity.EventKind) entity.EventPayload {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, string(action), msg.Action, string(msg.Payload))

	var payload entity.EventPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))

	return payload
}

// startMatch connects two players and seats them in one room.
func startMatch(t *testing.T, srv *httptest.Server) (*websocket.Conn, *websocket.Conn, string) {
	t.Helper()

	alice := dial(t, srv)
	bob := dial(t, srv)

	send(t, alice, ActionCreateRoom, map[string]string{"name": "Alice"})
	created := expect(t, alice, entity.EventRoomCreated)
	require.Equal(t, entity.SymbolX, created.Symbol)

	send(t, bob, ActionJoinRoom, map[string]string{"code": strings.ToLower(created.Code), "name": "Bob"})
	joined := expect(t, bob, entity.EventRoomJoined)
	require.True(t, joined.Success)
	require.Equal(t, entity.SymbolO, joined.Symbol)

	for _, conn := range []*websocket.Conn{alice, bob} {
		started := expect(t, conn, entity.EventMatchStarted)
		require.Equal(t, map[entity.Symbol]string{entity.SymbolX: "Alice", entity.SymbolO: "Bob"}, started.Names)
		require.Equal(t, entity.SymbolX, started.Turn)
	}

	return alice, bob, created.Code
}

func TestServer_Match(t *testing.T) {
	t.Run("X wins on the top row", func(t *testing.T) {
		// Given: two players in an active match
		srv := newTestServer(t)
		alice, bob, _ := startMatch(t, srv)

		// When: X plays 0,1,2 and O plays 3,4
		players := []*websocket.Conn{alice, bob}
		cells := []int{0, 3, 1, 4}
		for i, cell := range cells {
			send(t, players[i%2], ActionSubmitMove, map[string]int{"index": cell})

			for _, conn := range players {
				update := expect(t, conn, entity.EventBoardUpdated)
				require.Equal(t, players[(i+1)%2] == alice, update.Turn == entity.SymbolX)
			}
		}

		send(t, alice, ActionSubmitMove, map[string]int{"index": 2})

		// Then: both players see X win with the winning line
		for _, conn := range players {
			finished := expect(t, conn, entity.EventMatchFinished)
			assert.Equal(t, "X", finished.Winner)
			assert.Equal(t, []int{0, 1, 2}, finished.Line)
		}

		// When: O asks for a rematch
		send(t, bob, ActionRequestRematch, nil)

		// Then: both get a fresh board
		for _, conn := range players {
			rematch := expect(t, conn, entity.EventRematchStarted)
			assert.Equal(t, entity.Board{}, *rematch.Board)
			assert.Equal(t, entity.SymbolX, rematch.Turn)
		}
	})

	t.Run("Out of turn move produces no broadcast", func(t *testing.T) {
		// Given: an active match where X is to move
		srv := newTestServer(t)
		alice, bob, _ := startMatch(t, srv)

		// When: O moves out of turn and then X chats
		send(t, bob, ActionSubmitMove, map[string]int{"index": 4})
		send(t, alice, ActionChatMessage, map[string]string{"text": "your move was ignored"})

		// Then: the next thing both see is the chat, not a board update
		for _, conn := range []*websocket.Conn{alice, bob} {
			chat := expect(t, conn, entity.EventChatRelayed)
			assert.Equal(t, "Alice", chat.SenderName)
		}
	})

	t.Run("Disconnect tells the opponent", func(t *testing.T) {
		srv := newTestServer(t)
		alice, bob, _ := startMatch(t, srv)

		require.NoError(t, alice.Close())

		left := expect(t, bob, entity.EventOpponentLeft)
		assert.Equal(t, "Alice", left.SenderName)
	})
}

func TestServer_Rejections(t *testing.T) {
	t.Run("Unknown room code", func(t *testing.T) {
		srv := newTestServer(t)
		conn := dial(t, srv)

		send(t, conn, ActionJoinRoom, map[string]string{"code": "NOPE00"})

		invalid := expect(t, conn, entity.EventInvalidRoom)
		assert.Equal(t, entity.JoinErrorNotFound, invalid.Error)
	})

	t.Run("Full room", func(t *testing.T) {
		srv := newTestServer(t)
		_, _, code := startMatch(t, srv)
		carol := dial(t, srv)

		send(t, carol, ActionJoinRoom, map[string]string{"code": code})

		invalid := expect(t, carol, entity.EventInvalidRoom)
		assert.Equal(t, entity.JoinErrorFull, invalid.Error)
	})

	t.Run("Unknown action", func(t *testing.T) {
		srv := newTestServer(t)
		conn := dial(t, srv)

		send(t, conn, "game:turn", map[string]int{"cell": 1})

		rejected := expect(t, conn, entity.EventCommandRejected)
		assert.Contains(t, rejected.Error, "unknown command")
	})

	t.Run("Malformed message", func(t *testing.T) {
		srv := newTestServer(t)
		conn := dial(t, srv)

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

		rejected := expect(t, conn, entity.EventCommandRejected)
		assert.Equal(t, "malformed message", rejected.Error)
	})
}
