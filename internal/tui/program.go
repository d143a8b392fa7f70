package tui

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"quizbank/internal/exam"
)

// Run drives the session in a full-screen terminal UI until it ends and
// returns the final summary.
func Run(sess *exam.Session, in io.Reader, out io.Writer, opts Options) (exam.Summary, error) {
	program := tea.NewProgram(NewModel(sess, opts), tea.WithInput(in), tea.WithOutput(out), tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return sess.Finalize(), fmt.Errorf("run quiz ui: %w", err)
	}
	if m, ok := final.(Model); ok && m.Done() {
		return m.Summary(), nil
	}
	return sess.Finalize(), nil
}
