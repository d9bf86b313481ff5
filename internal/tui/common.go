// Package tui implements the local checklist simulator using Bubble Tea.
package tui

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// IsTTY returns true if stdout is connected to a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Run starts the simulator. If stdout is a TTY, it runs the interactive
// program in alternate screen mode. Otherwise it reads commands line by line
// from stdin.
func Run(sim *Simulator) error {
	if IsTTY() {
		p := tea.NewProgram(NewModel(sim), tea.WithAltScreen())
		_, err := p.Run()
		return err
	}
	return RunLines(os.Stdin, os.Stdout, sim)
}
