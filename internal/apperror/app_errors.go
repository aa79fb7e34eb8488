package apperror

import "errors"

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrNotYourTurn        = errors.New("it's not your turn")
	ErrCellOccupied       = errors.New("cell is already occupied")
	ErrInvalidCell        = errors.New("invalid cell index")
	ErrGameNotActive      = errors.New("game is not active")
	ErrGameNotFinished    = errors.New("game is not finished")
	ErrSessionNotBound    = errors.New("connection is not bound to a room")
	ErrCodeSpaceExhausted = errors.New("could not allocate a free room code")
	ErrUnknownCommand     = errors.New("unknown command")
	ErrEmptyMessage       = errors.New("message is empty")
)
