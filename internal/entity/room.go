package entity

import (
	"fmt"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

type Symbol string

const (
	SymbolNone Symbol = ""
	SymbolX    Symbol = "X"
	SymbolO    Symbol = "O"
)

// Opponent returns the other player's symbol.
func (that Symbol) Opponent() Symbol {
	switch that {
	case SymbolX:
		return SymbolO
	case SymbolO:
		return SymbolX
	default:
		return SymbolNone
	}
}

func (that Symbol) IsPlayer() bool {
	return that == SymbolX || that == SymbolO
}

type State string

const (
	StateWaiting   State = "waiting"
	StateActive    State = "active"
	StateFinished  State = "finished"
	StateAbandoned State = "abandoned"
)

const (
	BoardSize       = 9
	MaxParticipants = 2
)

type Board [BoardSize]Symbol

func (that *Board) IsFull() bool {
	for _, cell := range that {
		if cell == SymbolNone {
			return false
		}
	}

	return true
}

// Room is the authoritative state of a single match. Callers must hold the
// room lock while reading or mutating anything but Code.
type Room struct {
	mu sync.Mutex

	Code         string
	Participants []*Participant
	Board        Board
	Turn         Symbol
	State        State
	Outcome      Outcome
	CreatedAt    time.Time

	deleted bool
}

func NewRoom(code string, creator *Participant, createdAt time.Time) *Room {
	creator.Symbol = SymbolX

	return &Room{
		Code:         code,
		Participants: []*Participant{creator},
		Turn:         SymbolX,
		State:        StateWaiting,
		Outcome:      Outcome{Kind: OutcomeOngoing},
		CreatedAt:    createdAt,
	}
}

func (that *Room) Lock() {
	that.mu.Lock()
}

func (that *Room) Unlock() {
	that.mu.Unlock()
}

// CanJoin reports whether connectionID could join right now without changing
// the room. It returns the same errors as Join.
func (that *Room) CanJoin(connectionID string) error {
	if that.deleted || that.State == StateAbandoned {
		return apperror.ErrRoomNotFound
	}

	if that.ParticipantByConnection(connectionID) != nil {
		return fmt.Errorf("%w: already seated", apperror.ErrRoomFull)
	}

	if len(that.Participants) >= MaxParticipants || that.State != StateWaiting {
		return fmt.Errorf("%w: %d players", apperror.ErrRoomFull, len(that.Participants))
	}

	return nil
}

// Join adds the second participant as O and starts the match.
func (that *Room) Join(joiner *Participant) error {
	if err := that.CanJoin(joiner.ConnectionID); err != nil {
		return err
	}

	joiner.Symbol = SymbolO
	that.Participants = append(that.Participants, joiner)
	that.State = StateActive
	that.Turn = SymbolX

	return nil
}

// RemoveParticipant drops the participant bound to connectionID and returns it,
// or nil when no such participant is in the room.
func (that *Room) RemoveParticipant(connectionID string) *Participant {
	for i, participant := range that.Participants {
		if participant.ConnectionID != connectionID {
			continue
		}

		that.Participants = append(that.Participants[:i], that.Participants[i+1:]...)

		return participant
	}

	return nil
}

// Abandon ends the room for good; nothing but leaving is accepted afterwards.
func (that *Room) Abandon() {
	that.State = StateAbandoned
	that.Turn = SymbolNone
}

// MarkDeleted flags a room removed from the registry so that late callers
// holding a pointer to it back off.
func (that *Room) MarkDeleted() {
	that.deleted = true
}

func (that *Room) IsDeleted() bool {
	return that.deleted
}

func (that *Room) IsEmpty() bool {
	return len(that.Participants) == 0
}

func (that *Room) Participant(symbol Symbol) *Participant {
	for _, participant := range that.Participants {
		if participant.Symbol == symbol {
			return participant
		}
	}

	return nil
}

func (that *Room) ParticipantByConnection(connectionID string) *Participant {
	for _, participant := range that.Participants {
		if participant.ConnectionID == connectionID {
			return participant
		}
	}

	return nil
}

// ConnectionIDs lists every member's connection, creator first.
func (that *Room) ConnectionIDs() []string {
	ids := make([]string, 0, len(that.Participants))
	for _, participant := range that.Participants {
		ids = append(ids, participant.ConnectionID)
	}

	return ids
}

func (that *Room) Names() map[Symbol]string {
	names := make(map[Symbol]string, len(that.Participants))
	for _, participant := range that.Participants {
		names[participant.Symbol] = participant.Name
	}

	return names
}

func (that *Room) IsWaiting() bool {
	return that.State == StateWaiting
}

func (that *Room) IsActive() bool {
	return that.State == StateActive
}

func (that *Room) IsFinished() bool {
	return that.State == StateFinished
}

func (that *Room) Snapshot() RoomSnapshot {
	return RoomSnapshot{
		Code:    that.Code,
		Board:   that.Board,
		Turn:    that.Turn,
		State:   that.State,
		Outcome: that.Outcome.clone(),
		Names:   that.Names(),
		Players: len(that.Participants),
	}
}

// RoomSnapshot is a copy of a room that is safe to use without the lock.
type RoomSnapshot struct {
	Code    string            `json:"code"`
	Board   Board             `json:"board"`
	Turn    Symbol            `json:"turn"`
	State   State             `json:"state"`
	Outcome Outcome           `json:"outcome"`
	Names   map[Symbol]string `json:"names"`
	Players int               `json:"players"`
}
