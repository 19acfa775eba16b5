package domain

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

// ErrStepOutOfRange is returned by JumpTo for a step outside the history.
var ErrStepOutOfRange = errors.New("step out of range")

// Status summarises the active board.
type Status uint8

const (
	InProgress Status = iota
	Won
	Draw
)

func (s Status) String() string {
	switch s {
	case Won:
		return "won"
	case Draw:
		return "draw"
	default:
		return "in_progress"
	}
}

// Move is one entry of the history list shown to the player.
// Index is -1 for the game start entry.
type Move struct {
	Step  int
	Index int
	Label string
}

// Game holds a Tic-Tac-Toe match together with every board it went through.
// The zero value is not usable; call New.
//
// Whose turn it is follows from the active step: X on even steps, O on odd.
type Game struct {
	history   []Board
	locations []int
	step      int
	ascending bool
}

// New returns a game at the empty board with X to move.
func New() *Game {
	return &Game{history: []Board{{}}, ascending: true}
}

// Play marks cell index for the side to move, starting from the active board.
// Any boards after the active one are discarded first.
// It returns false and changes nothing if the index is outside 0..8,
// the cell is taken, or the active board already has a winner.
func (g *Game) Play(index int) bool {
	if index < 0 || index >= len(Board{}) {
		return false
	}
	cur := g.history[g.step]
	if cur[index] != Empty || Evaluate(cur).HasWinner() {
		return false
	}
	next := cur.With(index, g.Next())
	g.history = append(g.history[:g.step+1], next)
	g.locations = append(g.locations[:g.step], index)
	g.step = len(g.history) - 1
	return true
}

// JumpTo makes step the active board without touching the history.
func (g *Game) JumpTo(step int) error {
	if step < 0 || step >= len(g.history) {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrStepOutOfRange, step, len(g.history)-1)
	}
	g.step = step
	return nil
}

// ToggleOrder flips the move list between ascending and descending.
func (g *Game) ToggleOrder() { g.ascending = !g.ascending }

// Ascending reports the current move list order.
func (g *Game) Ascending() bool { return g.ascending }

// Step is the index of the active board in the history.
func (g *Game) Step() int { return g.step }

// Len is the number of boards in the history, the empty board included.
func (g *Game) Len() int { return len(g.history) }

// Board returns the active board.
func (g *Game) Board() Board { return g.history[g.step] }

// Outcome evaluates the active board.
func (g *Game) Outcome() Outcome { return Evaluate(g.Board()) }

// Next is the side to move on the active board.
func (g *Game) Next() Cell {
	if g.step%2 == 0 {
		return X
	}
	return O
}

// Locations returns the cell played on each move, oldest first.
func (g *Game) Locations() []int { return slices.Clone(g.locations) }

// Status reports whether the active board is won, drawn, or still open.
func (g *Game) Status() Status {
	b := g.Board()
	switch {
	case Evaluate(b).HasWinner():
		return Won
	case b.Full():
		return Draw
	default:
		return InProgress
	}
}

// StatusLine is the one-line caption shown above the board.
func (g *Game) StatusLine() string {
	switch g.Status() {
	case Won:
		return "Winner: " + g.Outcome().Winner.String()
	case Draw:
		return "Draw"
	default:
		return "Next player: " + g.Next().String()
	}
}

// Moves yields (step, label) for every board in the history, oldest first.
// The sequence can be ranged over any number of times.
func (g *Game) Moves() iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		for step := range g.history {
			if !yield(step, moveLabel(step, g.locations)) {
				return
			}
		}
	}
}

func moveLabel(step int, locations []int) string {
	if step == 0 {
		return "Go to game start"
	}
	return fmt.Sprintf("Go to move #%d %s", step, LocationLabel(locations[step-1]))
}

// MoveList materialises Moves in the display order.
func (g *Game) MoveList() []Move {
	out := make([]Move, 0, len(g.history))
	for step, label := range g.Moves() {
		idx := -1
		if step > 0 {
			idx = g.locations[step-1]
		}
		out = append(out, Move{Step: step, Index: idx, Label: label})
	}
	if !g.ascending {
		slices.Reverse(out)
	}
	return out
}
