package domain

import "fmt"

// Cell represents a board cell state.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

func (c Cell) String() string {
	switch c {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return ""
	}
}

// Board is a fixed 3x3 board stored row-major.
// It is an array, so assigning a Board copies it.
type Board [9]Cell

// With returns a copy of b with cell i set to c.
func (b Board) With(i int, c Cell) Board {
	b[i] = c
	return b
}

// Full reports whether no cell is empty.
func (b Board) Full() bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}

var lines = [8][3]int{
	// rows
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	// cols
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	// diags
	{0, 4, 8}, {2, 4, 6},
}

// Outcome is the result of evaluating a board.
// Line is nil unless Winner is X or O.
type Outcome struct {
	Winner Cell
	Line   []int
}

// HasWinner reports whether a side completed a line.
func (o Outcome) HasWinner() bool { return o.Winner != Empty }

// Evaluate returns the first completed line in row, column, diagonal order.
// A full board without a line yields the zero Outcome, same as a game in progress.
func Evaluate(b Board) Outcome {
	for _, ln := range lines {
		c := b[ln[0]]
		if c != Empty && c == b[ln[1]] && c == b[ln[2]] {
			return Outcome{Winner: c, Line: []int{ln[0], ln[1], ln[2]}}
		}
	}
	return Outcome{}
}

// Location converts a cell index to 1-based column and row.
func Location(index int) (col, row int) {
	return index%3 + 1, index/3 + 1
}

// LocationLabel formats a cell index as "(col, row)".
func LocationLabel(index int) string {
	col, row := Location(index)
	return fmt.Sprintf("(%d, %d)", col, row)
}
