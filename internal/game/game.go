package game

import (
	"errors"
)

// PlayerMark represents the mark of a player (X, O) or an empty cell.
type PlayerMark string

// Status is the state of a board as computed by Evaluate.
type Status string

const (
	// Player marks
	None    PlayerMark = ""
	PlayerX PlayerMark = "X"
	PlayerO PlayerMark = "O"

	// Game statuses
	StatusOngoing Status = "ongoing"
	StatusWon     Status = "won"
	StatusDraw    Status = "draw"

	// Board boundaries
	BorderMin = 0
	BorderMax = 8
	Size      = 9
)

var (
	ErrOutOfRange  = errors.New("cell index out of range")
	ErrOccupied    = errors.New("cell already occupied")
	ErrInvalidMark = errors.New("invalid mark")
	ErrGameOver    = errors.New("game already finished")
)

// Board holds the nine cells row-major: index = row*3 + col.
// It is an array, so assigning or passing a Board copies it.
type Board [Size]PlayerMark

// Lines lists every winning triple in evaluation order: rows, columns, diagonals.
var Lines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Outcome is the result of evaluating a board.
type Outcome struct {
	Status Status
	Winner PlayerMark
	Line   [3]int // winning line, only meaningful when Status is StatusWon
}

// IsTerminal reports whether no further moves are accepted.
func (o Outcome) IsTerminal() bool {
	return o.Status != StatusOngoing
}

// LegalMoves returns the empty cell indices of the board in ascending order.
func LegalMoves(b Board) []int {
	moves := make([]int, 0, Size)
	for i, cell := range b {
		if cell == None {
			moves = append(moves, i)
		}
	}
	return moves
}

// ApplyMove returns a copy of b with mark placed at index.
// On rejection b is returned unchanged together with the reason.
func ApplyMove(b Board, index int, mark PlayerMark) (Board, error) {
	if mark != PlayerX && mark != PlayerO {
		return b, ErrInvalidMark
	}
	if index < BorderMin || index > BorderMax {
		return b, ErrOutOfRange
	}
	if b[index] != None {
		return b, ErrOccupied
	}
	if Evaluate(b).IsTerminal() {
		return b, ErrGameOver
	}

	b[index] = mark
	return b, nil
}

// Evaluate checks the winning lines in order and reports the board status.
// A win is reported before a full board is considered a draw.
func Evaluate(b Board) Outcome {
	for _, line := range Lines {
		first := b[line[0]]
		if first != None && first == b[line[1]] && first == b[line[2]] {
			return Outcome{Status: StatusWon, Winner: first, Line: line}
		}
	}

	if IsBoardFull(b) {
		return Outcome{Status: StatusDraw, Winner: None}
	}

	return Outcome{Status: StatusOngoing, Winner: None}
}

// IsTerminal reports whether the board is won or drawn.
func IsTerminal(b Board) bool {
	return Evaluate(b).IsTerminal()
}
