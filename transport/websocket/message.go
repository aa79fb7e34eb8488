package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// Message is the envelope used in both directions. Inbound actions are
// command names; outbound actions are event kinds.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	ActionCreateRoom     = "create-room"
	ActionJoinRoom       = "join-room"
	ActionSubmitMove     = "submit-move"
	ActionRequestRematch = "request-rematch"
	ActionChatMessage    = "chat-message"
	ActionLeaveRoom      = "leave-room"
)

type createRoomPayload struct {
	Name string `json:"name"`
}

type joinRoomPayload struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type submitMovePayload struct {
	Index *int `json:"index"`
}

type chatMessagePayload struct {
	Text string `json:"text"`
}

func encodeEvent(event *entity.Event) (*Message, error) {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return &Message{
		Action:  string(event.Kind),
		Payload: payload,
	}, nil
}

func unmarshalPayload(raw json.RawMessage, target any) error {
	if len(raw) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return nil
}
