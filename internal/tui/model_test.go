package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jaminalder/time-travel-tic-tac-toe/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func TestCursorMovesWithinBoard(t *testing.T) {
	m := New(domain.New())
	require.Equal(t, 4, m.Cursor())

	m = send(t, m, tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.Cursor())
	m = send(t, m, tea.KeyMsg{Type: tea.KeyLeft}, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 0, m.Cursor())
	m = send(t, m, runes("j"), runes("j"), runes("j"), runes("l"), runes("l"), runes("l"))
	assert.Equal(t, 8, m.Cursor())
}

func TestEnterPlaysCursorCell(t *testing.T) {
	m := New(domain.New())
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, domain.X, m.Game().Board()[4])
	assert.Equal(t, domain.O, m.Game().Next())

	// occupied: ignored
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 2, m.Game().Len())
}

func TestDigitsPlayCells(t *testing.T) {
	m := New(domain.New())
	m = send(t, m, runes("1"), runes("4"), runes("2"), runes("5"), runes("3"))
	assert.Equal(t, domain.X, m.Game().Outcome().Winner)
	assert.Equal(t, 2, m.Cursor())

	m = send(t, m, runes("9"))
	assert.Equal(t, 6, m.Game().Len(), "no moves after a win")
}

func TestHistoryKeys(t *testing.T) {
	m := New(domain.New())
	m = send(t, m, runes("1"), runes("5"), runes("9"))
	g := m.Game()

	m = send(t, m, runes("["))
	assert.Equal(t, 2, g.Step())
	m = send(t, m, runes("g"))
	assert.Equal(t, 0, g.Step())
	m = send(t, m, runes("["))
	assert.Equal(t, 0, g.Step(), "cannot step before the start")
	m = send(t, m, runes("]"))
	assert.Equal(t, 1, g.Step())
	m = send(t, m, runes("G"))
	assert.Equal(t, 3, g.Step())
	m = send(t, m, runes("]"))
	assert.Equal(t, 3, g.Step(), "cannot step past the latest move")

	m = send(t, m, runes("g"), runes("3"))
	assert.Equal(t, 2, g.Len(), "playing from the start discards the rest")
	assert.Equal(t, []int{2}, g.Locations())
}

func TestToggleOrderAndNewGame(t *testing.T) {
	m := New(domain.New())
	m = send(t, m, runes("1"), runes("s"))
	assert.False(t, m.Game().Ascending())

	old := m.Game()
	m = send(t, m, runes("n"))
	assert.NotSame(t, old, m.Game())
	assert.Equal(t, 1, m.Game().Len())
	assert.Equal(t, 4, m.Cursor())
}

func TestQuit(t *testing.T) {
	m := New(domain.New())
	next, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.View())
}

func TestViewShowsStatusAndMoves(t *testing.T) {
	m := New(domain.New())
	m = send(t, m, runes("5"))
	out := m.View()
	assert.Contains(t, out, "Next player: O")
	assert.Contains(t, out, "Go to game start")
	assert.Contains(t, out, "Go to move #1 (2, 2)")
	assert.Contains(t, out, "Ascending Order")
	assert.Contains(t, out, "X")

	m = send(t, m, runes("s"))
	out = m.View()
	assert.Contains(t, out, "Descending Order")
	assert.Less(t, strings.Index(out, "Go to move #1"), strings.Index(out, "Go to game start"))
}

func TestNonKeyMessagesIgnored(t *testing.T) {
	m := New(domain.New())
	m = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Equal(t, 1, m.Game().Len())
}
