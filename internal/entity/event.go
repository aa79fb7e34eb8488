package entity

type EventKind string

const (
	EventRoomCreated     EventKind = "room-created"
	EventRoomJoined      EventKind = "room-joined"
	EventInvalidRoom     EventKind = "invalid-room"
	EventMatchStarted    EventKind = "match-started"
	EventBoardUpdated    EventKind = "board-updated"
	EventMatchFinished   EventKind = "match-finished"
	EventRematchStarted  EventKind = "rematch-started"
	EventChatRelayed     EventKind = "chat-relayed"
	EventOpponentLeft    EventKind = "opponent-left"
	EventRoomExpired     EventKind = "room-expired"
	EventCommandRejected EventKind = "command-rejected"
)

// Join failure reasons sent in the invalid-room payload.
const (
	JoinErrorNotFound = "not_found"
	JoinErrorFull     = "full"
)

// Event is a notification addressed to a fixed set of connections.
type Event struct {
	Kind       EventKind    `json:"kind"`
	RoomCode   string       `json:"room_code,omitempty"`
	Recipients []string     `json:"recipients"`
	Payload    EventPayload `json:"payload"`
}

type EventPayload struct {
	Code       string            `json:"code,omitempty"`
	Symbol     Symbol            `json:"symbol,omitempty"`
	Success    bool              `json:"success,omitempty"`
	Error      string            `json:"error,omitempty"`
	Names      map[Symbol]string `json:"names,omitempty"`
	Board      *Board            `json:"board,omitempty"`
	Turn       Symbol            `json:"turn,omitempty"`
	Winner     string            `json:"winner,omitempty"`
	Line       []int             `json:"line,omitempty"`
	SenderName string            `json:"sender_name,omitempty"`
	Text       string            `json:"text,omitempty"`
}

func NewEvent(kind EventKind, roomCode string, recipients []string, payload EventPayload) *Event {
	return &Event{
		Kind:       kind,
		RoomCode:   roomCode,
		Recipients: recipients,
		Payload:    payload,
	}
}
