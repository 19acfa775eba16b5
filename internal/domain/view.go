package domain

// View is a render-ready copy of a game. It shares no memory with the Game.
type View struct {
	Board      Board
	Outcome    Outcome
	Status     Status
	StatusLine string
	Next       Cell
	Step       int
	Ascending  bool
	Moves      []Move
	// Winning marks the cells of the winning line.
	Winning [9]bool
}

// View captures the active state of g.
func (g *Game) View() View {
	out := g.Outcome()
	v := View{
		Board:      g.Board(),
		Outcome:    out,
		Status:     g.Status(),
		StatusLine: g.StatusLine(),
		Next:       g.Next(),
		Step:       g.step,
		Ascending:  g.ascending,
		Moves:      g.MoveList(),
	}
	for _, i := range out.Line {
		v.Winning[i] = true
	}
	return v
}
