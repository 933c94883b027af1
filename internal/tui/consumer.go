package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"turbopng/internal/pipeline"
)

// programRunner is the part of *tea.Program the consumer needs.
type programRunner interface {
	Run() (tea.Model, error)
}

// RunProgram runs the progress display and keeps draining events after it
// exits, so a display that dies early (no TTY, renderer failure) can never
// block workers delivering terminal events. Display errors go to onErr; they
// never influence task outcomes. The returned channel closes once the event
// stream is exhausted.
func RunProgram(program programRunner, events <-chan pipeline.Event, onErr func(error)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := program.Run(); err != nil && onErr != nil {
			onErr(err)
		}
		for range events {
		}
	}()
	return done
}
