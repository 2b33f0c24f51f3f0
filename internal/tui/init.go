package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the editor and blocks until it exits. The request's revision
// history is disposed on exit.
func Run(opts Options) error {
	m, err := New(opts)
	if err != nil {
		return err
	}

	// Pass a pointer since Update uses a pointer receiver
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
