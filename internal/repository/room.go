package repository

import (
	"fmt"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
)

// maxCodeAttempts bounds code regeneration on collisions.
const maxCodeAttempts = 64

// CodeGenerator returns a candidate room code.
type CodeGenerator func() (string, error)

type RoomRegistry interface {
	Create(creator *entity.Participant) (*entity.Room, error)
	Get(code string) (*entity.Room, error)
	Delete(room *entity.Room)
	List() []*entity.Room
	Len() int
}

type memoryRooms struct {
	mu    sync.RWMutex
	rooms map[string]*entity.Room

	generate CodeGenerator
	now      func() time.Time
}

// NewRoomRegistry keeps rooms in process memory only.
func NewRoomRegistry(codeLength int) RoomRegistry {
	return newRoomRegistry(func() (string, error) {
		return pkg.GenerateRoomCode(codeLength)
	}, time.Now)
}

func newRoomRegistry(generate CodeGenerator, now func() time.Time) *memoryRooms {
	return &memoryRooms{
		rooms:    make(map[string]*entity.Room),
		generate: generate,
		now:      now,
	}
}

// Create stores a new room and returns it locked; the caller must Unlock it.
// The lock is taken before the room is stored, so nobody who looks it up can
// act on it until the caller has finished setting it up.
func (that *memoryRooms) Create(creator *entity.Participant) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for range maxCodeAttempts {
		code, err := that.generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate room code: %w", err)
		}

		if _, taken := that.rooms[code]; taken {
			continue
		}

		room := entity.NewRoom(code, creator, that.now())
		room.Lock()
		that.rooms[code] = room

		return room, nil
	}

	return nil, apperror.ErrCodeSpaceExhausted
}

func (that *memoryRooms) Get(code string) (*entity.Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	room, ok := that.rooms[pkg.NormalizeRoomCode(code)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperror.ErrRoomNotFound, code)
	}

	return room, nil
}

// Delete removes the entry only while it still points at room, so a stale
// caller never drops a newer room that reused the code.
func (that *memoryRooms) Delete(room *entity.Room) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if current, ok := that.rooms[room.Code]; ok && current == room {
		delete(that.rooms, room.Code)
	}
}

func (that *memoryRooms) List() []*entity.Room {
	that.mu.RLock()
	defer that.mu.RUnlock()

	rooms := make([]*entity.Room, 0, len(that.rooms))
	for _, room := range that.rooms {
		rooms = append(rooms, room)
	}

	return rooms
}

func (that *memoryRooms) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms)
}
