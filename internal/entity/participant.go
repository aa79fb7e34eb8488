package entity

type Participant struct {
	ConnectionID string `json:"-"`
	Name         string `json:"name"`
	Symbol       Symbol `json:"symbol,omitempty"`
}

// Move is a single placement in a room; it is applied at once and never stored.
type Move struct {
	RoomCode string
	Cell     int
	Symbol   Symbol
}
