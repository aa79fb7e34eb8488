package websocket

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

var errMissingIndex = errors.New("index is required")

type decoder func(payload json.RawMessage) (entity.Command, error)

var decoders = map[string]decoder{
	ActionCreateRoom:     decodeCreateRoom,
	ActionJoinRoom:       decodeJoinRoom,
	ActionSubmitMove:     decodeSubmitMove,
	ActionRequestRematch: func(json.RawMessage) (entity.Command, error) { return entity.RequestRematch{}, nil },
	ActionChatMessage:    decodeChatMessage,
	ActionLeaveRoom:      func(json.RawMessage) (entity.Command, error) { return entity.LeaveRoom{}, nil },
}

// decodeCommand turns one inbound message into exactly one command.
func decodeCommand(msg *Message) (entity.Command, error) {
	decode, ok := decoders[msg.Action]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperror.ErrUnknownCommand, msg.Action)
	}

	return decode(msg.Payload)
}

func decodeCreateRoom(raw json.RawMessage) (entity.Command, error) {
	var payload createRoomPayload
	if err := unmarshalPayload(raw, &payload); err != nil {
		return nil, err
	}

	return entity.CreateRoom{Name: payload.Name}, nil
}

func decodeJoinRoom(raw json.RawMessage) (entity.Command, error) {
	var payload joinRoomPayload
	if err := unmarshalPayload(raw, &payload); err != nil {
		return nil, err
	}

	return entity.JoinRoom{Code: payload.Code, Name: payload.Name}, nil
}

func decodeSubmitMove(raw json.RawMessage) (entity.Command, error) {
	var payload submitMovePayload
	if err := unmarshalPayload(raw, &payload); err != nil {
		return nil, err
	}

	if payload.Index == nil {
		return nil, errMissingIndex
	}

	return entity.SubmitMove{Cell: *payload.Index}, nil
}

func decodeChatMessage(raw json.RawMessage) (entity.Command, error) {
	var payload chatMessagePayload
	if err := unmarshalPayload(raw, &payload); err != nil {
		return nil, err
	}

	return entity.ChatMessage{Text: payload.Text}, nil
}
