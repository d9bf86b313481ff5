package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// transcriptHeight is the number of transcript lines kept on screen when the
// window size is unknown.
const transcriptHeight = 20

// Model is the Bubble Tea model wrapping a Simulator.
type Model struct {
	sim    *Simulator
	input  textinput.Model
	cursor int
	keys   KeyMap
	width  int
	height int
}

// NewModel creates a Model for sim.
func NewModel(sim *Simulator) Model {
	ti := textinput.New()
	ti.Placeholder = "/start, /cancel or a comment"
	ti.CharLimit = 4096
	ti.Focus()

	return Model{sim: sim, input: ti, keys: DefaultKeyMap}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(msg.Width-4, 10)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.sim.Buttons())-1 {
				m.cursor++
			}
			return m, nil
		case key.Matches(msg, m.keys.Enter):
			if text := m.input.Value(); strings.TrimSpace(text) != "" {
				m.sim.Input(text)
				m.input.Reset()
			} else if len(m.sim.Buttons()) > 0 {
				_ = m.sim.Press(m.cursor)
			}
			m.cursor = 0
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("auditbot simulator"))
	b.WriteString("\n\n")

	lines := m.sim.Transcript()
	limit := transcriptHeight
	if m.height > 0 {
		limit = max(m.height-len(m.sim.Buttons())-8, 3)
	}
	if len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	for _, l := range lines {
		b.WriteString(renderLine(l))
		b.WriteString("\n")
	}

	if buttons := m.sim.Buttons(); len(buttons) > 0 {
		var rows []string
		for i, btn := range buttons {
			if i == m.cursor {
				rows = append(rows, SelectedStyle.Render("› "+btn.Label))
			} else {
				rows = append(rows, "  "+btn.Label)
			}
		}
		b.WriteString(BoxStyle.Render(strings.Join(rows, "\n")))
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(DimStyle.Render("↑/↓ choose • enter press or send • esc quit"))
	return b.String()
}

func renderLine(l Line) string {
	switch l.Kind {
	case LineUser:
		return DimStyle.Render("you: " + l.Text)
	case LineNotice:
		return SuccessStyle.Render(l.Text)
	case LineError:
		return ErrorStyle.Render(l.Text)
	default:
		return l.Text
	}
}
