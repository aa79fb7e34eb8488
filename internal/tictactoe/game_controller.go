package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// WinCombos lists every line in the order it is checked: rows, columns, diagonals.
var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Validate reports why symbol may not place on cell, or nil when the move is legal.
// The room lock must be held.
func Validate(room *entity.Room, symbol entity.Symbol, cell int) error {
	if !room.IsActive() {
		return apperror.ErrGameNotActive
	}

	if cell < 0 || cell >= entity.BoardSize {
		return fmt.Errorf("%w: %d", apperror.ErrInvalidCell, cell)
	}

	if room.Turn != symbol {
		return apperror.ErrNotYourTurn
	}

	if room.Board[cell] != entity.SymbolNone {
		return apperror.ErrCellOccupied
	}

	return nil
}

func IsValidMove(room *entity.Room, symbol entity.Symbol, cell int) bool {
	return Validate(room, symbol, cell) == nil
}

// Evaluate checks all lines on every call, so it is independent of the last move.
func Evaluate(board entity.Board) entity.Outcome {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.SymbolNone && a == b && b == c {
			return entity.Outcome{
				Kind:   entity.OutcomeWin,
				Winner: a,
				Line:   []int{combo[0], combo[1], combo[2]},
			}
		}
	}

	if board.IsFull() {
		return entity.Outcome{Kind: entity.OutcomeDraw}
	}

	return entity.Outcome{Kind: entity.OutcomeOngoing}
}

// MakeTurn applies a move and returns the resulting outcome. On error the room
// is left untouched.
func MakeTurn(room *entity.Room, move entity.Move) (entity.Outcome, error) {
	if move.RoomCode != room.Code {
		return entity.Outcome{}, fmt.Errorf("invalid turn: %w: %q", apperror.ErrRoomNotFound, move.RoomCode)
	}

	if err := Validate(room, move.Symbol, move.Cell); err != nil {
		return entity.Outcome{}, fmt.Errorf("invalid turn: %w", err)
	}

	room.Board[move.Cell] = move.Symbol
	room.Turn = move.Symbol.Opponent()

	outcome := Evaluate(room.Board)
	room.Outcome = outcome

	if outcome.IsTerminal() {
		room.State = entity.StateFinished
	}

	return outcome, nil
}

// Rematch resets a finished room for another match with the same symbols.
func Rematch(room *entity.Room) error {
	if !room.IsFinished() {
		return apperror.ErrGameNotFinished
	}

	room.Board = entity.Board{}
	room.Turn = entity.SymbolX
	room.State = entity.StateActive
	room.Outcome = entity.Outcome{Kind: entity.OutcomeOngoing}

	return nil
}
