package repository

import (
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// Binding is where a connection currently plays.
type Binding struct {
	Code   string
	Symbol entity.Symbol
}

type SessionBinder interface {
	Bind(connectionID, code string, symbol entity.Symbol)
	Resolve(connectionID string) (Binding, bool)
	Unbind(connectionID string)
}

type memorySessions struct {
	mu       sync.RWMutex
	bindings map[string]Binding
}

func NewSessionBinder() SessionBinder {
	return &memorySessions{
		bindings: make(map[string]Binding),
	}
}

// Bind replaces any previous binding of the connection.
func (that *memorySessions) Bind(connectionID, code string, symbol entity.Symbol) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.bindings[connectionID] = Binding{Code: code, Symbol: symbol}
}

func (that *memorySessions) Resolve(connectionID string) (Binding, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	binding, ok := that.bindings[connectionID]

	return binding, ok
}

func (that *memorySessions) Unbind(connectionID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.bindings, connectionID)
}
