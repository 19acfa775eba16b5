// Package tui plays a game in the terminal.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jaminalder/time-travel-tic-tac-toe/internal/domain"
)

type styles struct {
	cell     lipgloss.Style
	win      lipgloss.Style
	cursor   lipgloss.Style
	status   lipgloss.Style
	selected lipgloss.Style
	help     lipgloss.Style
}

func defaultStyles() styles {
	cell := lipgloss.NewStyle().Width(3).Align(lipgloss.Center)
	return styles{
		cell:     cell,
		win:      cell.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11")),
		cursor:   cell.Reverse(true),
		status:   lipgloss.NewStyle().Bold(true).MarginTop(1),
		selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		help:     lipgloss.NewStyle().Faint(true).MarginTop(1),
	}
}

const helpText = "arrows/hjkl move · enter play · 1-9 play cell · [ ] step · g/G start/latest · s order · n new · q quit"

// Model is the bubbletea model for one game.
type Model struct {
	game     *domain.Game
	cursor   int
	styles   styles
	quitting bool
}

// New returns a model driving g, with the cursor on the centre cell.
func New(g *domain.Game) Model {
	return Model{game: g, cursor: 4, styles: defaultStyles()}
}

// Game returns the game being played.
func (m Model) Game() *domain.Game { return m.game }

// Cursor returns the highlighted cell index.
func (m Model) Cursor() int { return m.cursor }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch s := key.String(); s {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor >= 3 {
			m.cursor -= 3
		}
	case "down", "j":
		if m.cursor < 6 {
			m.cursor += 3
		}
	case "left", "h":
		if m.cursor%3 > 0 {
			m.cursor--
		}
	case "right", "l":
		if m.cursor%3 < 2 {
			m.cursor++
		}
	case "enter", " ":
		m.game.Play(m.cursor)
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		m.cursor = int(s[0] - '1')
		m.game.Play(m.cursor)
	case "[":
		_ = m.game.JumpTo(m.game.Step() - 1)
	case "]":
		_ = m.game.JumpTo(m.game.Step() + 1)
	case "g":
		_ = m.game.JumpTo(0)
	case "G":
		_ = m.game.JumpTo(m.game.Len() - 1)
	case "s":
		m.game.ToggleOrder()
	case "n":
		m.game = domain.New()
		m.cursor = 4
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	v := m.game.View()
	var b strings.Builder

	rows := make([]string, 0, 3)
	for r := 0; r < 3; r++ {
		cells := make([]string, 0, 3)
		for c := 0; c < 3; c++ {
			i := r*3 + c
			sym := v.Board[i].String()
			if sym == "" {
				sym = "·"
			}
			st := m.styles.cell
			switch {
			case i == m.cursor:
				st = m.styles.cursor
			case v.Winning[i]:
				st = m.styles.win
			}
			cells = append(cells, st.Render(sym))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, rows...))
	b.WriteString("\n")
	b.WriteString(m.styles.status.Render(v.StatusLine))
	b.WriteString("\n\n")

	order := "Ascending Order"
	if !v.Ascending {
		order = "Descending Order"
	}
	b.WriteString(order + "\n")
	for _, mv := range v.Moves {
		line := fmt.Sprintf("%2d. %s", mv.Step, mv.Label)
		if mv.Step == v.Step {
			line = m.styles.selected.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(m.styles.help.Render(helpText))
	b.WriteString("\n")
	return b.String()
}
