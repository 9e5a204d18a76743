package game

// TurnFor returns the mark to move at the given history index.
// X moves on even indices, O on odd ones.
func TurnFor(move int) PlayerMark {
	if move%2 == 0 {
		return PlayerX
	}
	return PlayerO
}

// Opponent returns the other player's mark.
func Opponent(mark PlayerMark) PlayerMark {
	if mark == PlayerX {
		return PlayerO
	}
	return PlayerX
}

// Count returns how many cells hold mark.
func Count(b Board, mark PlayerMark) int {
	n := 0
	for _, cell := range b {
		if cell == mark {
			n++
		}
	}
	return n
}

// IsBoardFull checks if every cell is taken.
func IsBoardFull(b Board) bool {
	for _, cell := range b {
		if cell == None {
			return false
		}
	}
	return true
}

// BoardToStrings converts the board for JSON clients.
func BoardToStrings(b Board) []string {
	cells := make([]string, Size)
	for i, cell := range b {
		cells[i] = string(cell)
	}
	return cells
}
