package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

const (
	MaxNameLength = 24
	MaxChatLength = 280
)

type roomRegistry interface {
	Create(creator *entity.Participant) (*entity.Room, error)
	Get(code string) (*entity.Room, error)
	Delete(room *entity.Room)
	List() []*entity.Room
}

type sessionBinder interface {
	Bind(connectionID, code string, symbol entity.Symbol)
	Resolve(connectionID string) (repository.Binding, bool)
	Unbind(connectionID string)
}

type publisher interface {
	Publish(ctx context.Context, event *entity.Event) error
}

// GameManager is the only writer of room state. Every change to a room and
// the events describing it happen under that room's lock.
type GameManager struct {
	logger    *slog.Logger
	rooms     roomRegistry
	sessions  sessionBinder
	publisher publisher

	idleTimeout time.Duration
}

func NewGameManager(logger *slog.Logger, rooms roomRegistry, sessions sessionBinder, publisher publisher, idleTimeout time.Duration) *GameManager {
	return &GameManager{
		logger:    logger.With("component", "game-manager"),
		rooms:     rooms,
		sessions:  sessions,
		publisher: publisher,

		idleTimeout: idleTimeout,
	}
}

// Handle runs one command on behalf of a connection.
func (that *GameManager) Handle(ctx context.Context, connectionID string, command entity.Command) error {
	switch cmd := command.(type) {
	case entity.CreateRoom:
		_, err := that.CreateRoom(ctx, connectionID, cmd.Name)
		return err
	case entity.JoinRoom:
		return that.JoinRoom(ctx, connectionID, cmd.Code, cmd.Name)
	case entity.SubmitMove:
		return that.SubmitMove(ctx, connectionID, cmd.Cell)
	case entity.RequestRematch:
		return that.RequestRematch(ctx, connectionID)
	case entity.ChatMessage:
		return that.SendChat(ctx, connectionID, cmd.Text)
	case entity.LeaveRoom:
		return that.Leave(ctx, connectionID)
	case entity.Disconnect:
		if err := that.Leave(ctx, connectionID); err != nil && !errors.Is(err, apperror.ErrSessionNotBound) {
			return err
		}

		return nil
	default:
		return fmt.Errorf("%w: %T", apperror.ErrUnknownCommand, command)
	}
}

// CreateRoom opens a new room with the caller as X and returns its code. A
// caller already in a room leaves it only once the new room exists.
func (that *GameManager) CreateRoom(ctx context.Context, connectionID, name string) (string, error) {
	log := that.logger.With("method", "CreateRoom", "connection_id", connectionID)

	current := that.boundRoom(connectionID)
	if current != nil {
		current.Lock()
		defer current.Unlock()
	}

	creator := &entity.Participant{
		ConnectionID: connectionID,
		Name:         normalizeName(name, entity.SymbolX),
	}

	// the registry hands the room back locked, before anyone else can see it
	room, err := that.rooms.Create(creator)
	if err != nil {
		log.Error("failed to create room", "error", err)

		return "", fmt.Errorf("failed to create room: %w", err)
	}
	defer room.Unlock()

	that.leaveLocked(ctx, current, connectionID)

	that.sessions.Bind(connectionID, room.Code, entity.SymbolX)

	that.publish(ctx, entity.NewEvent(entity.EventRoomCreated, room.Code, []string{connectionID}, entity.EventPayload{
		Code:   room.Code,
		Symbol: entity.SymbolX,
	}))

	log.Info("room created", "code", room.Code)

	return room.Code, nil
}

// JoinRoom seats the caller as O. Failures are reported to the caller with an
// invalid-room event as well as returned, and leave the caller where it was.
func (that *GameManager) JoinRoom(ctx context.Context, connectionID, code, name string) error {
	log := that.logger.With("method", "JoinRoom", "connection_id", connectionID, "code", code)

	room, err := that.rooms.Get(code)
	if err != nil {
		that.rejectJoin(ctx, connectionID, code, entity.JoinErrorNotFound)

		return fmt.Errorf("failed to join room: %w", err)
	}

	current := that.boundRoom(connectionID)
	if current == room {
		current = nil
	}

	unlock := lockPair(room, current)
	defer unlock()

	if err = room.CanJoin(connectionID); err != nil {
		reason := entity.JoinErrorNotFound
		if errors.Is(err, apperror.ErrRoomFull) {
			reason = entity.JoinErrorFull
		}

		that.rejectJoin(ctx, connectionID, room.Code, reason)

		return fmt.Errorf("failed to join room: %w", err)
	}

	that.leaveLocked(ctx, current, connectionID)

	joiner := &entity.Participant{
		ConnectionID: connectionID,
		Name:         normalizeName(name, entity.SymbolO),
	}

	if err = room.Join(joiner); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	that.sessions.Bind(connectionID, room.Code, entity.SymbolO)

	that.publish(ctx, entity.NewEvent(entity.EventRoomJoined, room.Code, []string{connectionID}, entity.EventPayload{
		Success: true,
		Code:    room.Code,
		Symbol:  entity.SymbolO,
	}))

	that.publish(ctx, entity.NewEvent(entity.EventMatchStarted, room.Code, room.ConnectionIDs(), entity.EventPayload{
		Names: room.Names(),
		Turn:  room.Turn,
	}))

	log.Info("match started")

	return nil
}

// SubmitMove places the caller's symbol. A rejected move changes nothing and
// publishes nothing.
func (that *GameManager) SubmitMove(ctx context.Context, connectionID string, cell int) error {
	room, participant, err := that.lockBoundRoom(connectionID)
	if err != nil {
		return err
	}
	defer room.Unlock()

	outcome, err := tictactoe.MakeTurn(room, entity.Move{
		RoomCode: room.Code,
		Cell:     cell,
		Symbol:   participant.Symbol,
	})
	if err != nil {
		return fmt.Errorf("move rejected: %w", err)
	}

	board := room.Board

	if outcome.IsTerminal() {
		that.publish(ctx, entity.NewEvent(entity.EventMatchFinished, room.Code, room.ConnectionIDs(), entity.EventPayload{
			Board:  &board,
			Winner: outcome.WinnerLabel(),
			Line:   outcome.Line,
		}))

		that.logger.Info("match finished", "code", room.Code, "winner", outcome.WinnerLabel())

		return nil
	}

	that.publish(ctx, entity.NewEvent(entity.EventBoardUpdated, room.Code, room.ConnectionIDs(), entity.EventPayload{
		Board: &board,
		Turn:  room.Turn,
	}))

	return nil
}

func (that *GameManager) RequestRematch(ctx context.Context, connectionID string) error {
	room, _, err := that.lockBoundRoom(connectionID)
	if err != nil {
		return err
	}
	defer room.Unlock()

	if err = tictactoe.Rematch(room); err != nil {
		return fmt.Errorf("rematch rejected: %w", err)
	}

	board := room.Board

	that.publish(ctx, entity.NewEvent(entity.EventRematchStarted, room.Code, room.ConnectionIDs(), entity.EventPayload{
		Board: &board,
		Turn:  room.Turn,
	}))

	return nil
}

// SendChat relays text to everyone in the caller's room.
func (that *GameManager) SendChat(ctx context.Context, connectionID, text string) error {
	text = truncate(strings.TrimSpace(text), MaxChatLength)
	if text == "" {
		return apperror.ErrEmptyMessage
	}

	room, participant, err := that.lockBoundRoom(connectionID)
	if err != nil {
		return err
	}
	defer room.Unlock()

	that.publish(ctx, entity.NewEvent(entity.EventChatRelayed, room.Code, room.ConnectionIDs(), entity.EventPayload{
		SenderName: participant.Name,
		Text:       text,
	}))

	return nil
}

// Leave detaches the caller from its room. The room is abandoned when someone
// remains and deleted once empty.
func (that *GameManager) Leave(ctx context.Context, connectionID string) error {
	if _, ok := that.sessions.Resolve(connectionID); !ok {
		return apperror.ErrSessionNotBound
	}

	room := that.boundRoom(connectionID)
	if room != nil {
		room.Lock()
		defer room.Unlock()
	}

	that.leaveLocked(ctx, room, connectionID)

	return nil
}

// Room returns a lock-free copy of a room.
func (that *GameManager) Room(code string) (entity.RoomSnapshot, error) {
	room, err := that.rooms.Get(code)
	if err != nil {
		return entity.RoomSnapshot{}, fmt.Errorf("failed to get room: %w", err)
	}

	room.Lock()
	defer room.Unlock()

	if room.IsDeleted() {
		return entity.RoomSnapshot{}, apperror.ErrRoomNotFound
	}

	return room.Snapshot(), nil
}

// ReapIdleRooms expires rooms that have waited for an opponent longer than the
// idle timeout and returns how many were removed.
func (that *GameManager) ReapIdleRooms(ctx context.Context, now time.Time) int {
	if that.idleTimeout <= 0 {
		return 0
	}

	reaped := 0

	for _, room := range that.rooms.List() {
		if that.expire(ctx, room, now) {
			reaped++
		}
	}

	if reaped > 0 {
		that.logger.Info("idle rooms expired", "count", reaped)
	}

	return reaped
}

// RunReaper calls ReapIdleRooms every interval until ctx is done. It returns
// at once when no idle timeout is configured.
func (that *GameManager) RunReaper(ctx context.Context, interval time.Duration) {
	if that.idleTimeout <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			that.ReapIdleRooms(ctx, now)
		}
	}
}

func (that *GameManager) expire(ctx context.Context, room *entity.Room, now time.Time) bool {
	room.Lock()
	defer room.Unlock()

	if room.IsDeleted() || !room.IsWaiting() || now.Sub(room.CreatedAt) < that.idleTimeout {
		return false
	}

	recipients := room.ConnectionIDs()
	for _, connectionID := range recipients {
		that.sessions.Unbind(connectionID)
		room.RemoveParticipant(connectionID)
	}

	room.MarkDeleted()
	that.rooms.Delete(room)

	that.publish(ctx, entity.NewEvent(entity.EventRoomExpired, room.Code, recipients, entity.EventPayload{
		Code: room.Code,
	}))

	return true
}

// lockBoundRoom returns the caller's room locked, together with the caller's
// seat in it. The caller must unlock the room.
func (that *GameManager) lockBoundRoom(connectionID string) (*entity.Room, *entity.Participant, error) {
	binding, ok := that.sessions.Resolve(connectionID)
	if !ok {
		return nil, nil, apperror.ErrSessionNotBound
	}

	room, err := that.rooms.Get(binding.Code)
	if err != nil {
		return nil, nil, fmt.Errorf("bound room is gone: %w", err)
	}

	room.Lock()

	// the code may have been reused by a newer room since the binding was made
	participant := room.ParticipantByConnection(connectionID)
	if room.IsDeleted() || participant == nil || participant.Symbol != binding.Symbol {
		room.Unlock()

		return nil, nil, apperror.ErrSessionNotBound
	}

	return room, participant, nil
}

// boundRoom returns the room the caller's binding points at, or nil.
func (that *GameManager) boundRoom(connectionID string) *entity.Room {
	binding, ok := that.sessions.Resolve(connectionID)
	if !ok {
		return nil
	}

	room, err := that.rooms.Get(binding.Code)
	if err != nil {
		return nil
	}

	return room
}

// leaveLocked unbinds the caller and takes it out of room, which may be nil.
// The room lock must be held.
func (that *GameManager) leaveLocked(ctx context.Context, room *entity.Room, connectionID string) {
	that.sessions.Unbind(connectionID)

	if room == nil {
		return
	}

	left := room.RemoveParticipant(connectionID)
	if left == nil {
		return
	}

	log := that.logger.With("method", "Leave", "connection_id", connectionID, "code", room.Code)

	if room.IsEmpty() {
		room.MarkDeleted()
		that.rooms.Delete(room)

		log.Info("room deleted")

		return
	}

	room.Abandon()

	that.publish(ctx, entity.NewEvent(entity.EventOpponentLeft, room.Code, room.ConnectionIDs(), entity.EventPayload{
		SenderName: left.Name,
	}))

	log.Info("room abandoned")
}

// lockPair locks a and, when present, b in code order so that two callers
// moving between the same rooms cannot deadlock. It returns the unlock func.
func lockPair(a, b *entity.Room) func() {
	if b == nil {
		a.Lock()

		return a.Unlock
	}

	first, second := a, b
	if second.Code < first.Code {
		first, second = second, first
	}

	first.Lock()
	second.Lock()

	return func() {
		second.Unlock()
		first.Unlock()
	}
}

func (that *GameManager) rejectJoin(ctx context.Context, connectionID, code, reason string) {
	that.publish(ctx, entity.NewEvent(entity.EventInvalidRoom, code, []string{connectionID}, entity.EventPayload{
		Error: reason,
	}))
}

// publish never fails the command: the room has already changed.
func (that *GameManager) publish(ctx context.Context, event *entity.Event) {
	if err := that.publisher.Publish(ctx, event); err != nil {
		that.logger.Error("failed to publish event", "kind", event.Kind, "code", event.RoomCode, "error", err)
	}
}

func normalizeName(name string, symbol entity.Symbol) string {
	name = truncate(strings.TrimSpace(name), MaxNameLength)
	if name == "" {
		return "Player " + string(symbol)
	}

	return name
}

func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}

	return strings.TrimSpace(string([]rune(text)[:limit]))
}
