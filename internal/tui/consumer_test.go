package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"turbopng/internal/pipeline"
)

// deadProgram stands in for a display that exits immediately, as happens
// when no TTY is attached or the renderer fails.
type deadProgram struct {
	err error
}

func (p deadProgram) Run() (tea.Model, error) {
	return nil, p.err
}

func TestRunProgramDrainsAfterDisplayDies(t *testing.T) {
	events := make(chan pipeline.Event, 1)
	var gotErr error
	done := RunProgram(deadProgram{err: errors.New("no tty")}, events, func(err error) { gotErr = err })

	// Far more events than the buffer holds. Without the drain these
	// sends would block forever, wedging the workers behind them.
	for i := 0; i < 32; i++ {
		select {
		case events <- pipeline.Event{Phase: pipeline.PhaseFinished}:
		case <-time.After(2 * time.Second):
			t.Fatal("event delivery blocked by a dead display")
		}
	}
	close(events)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not finish after the event stream closed")
	}
	if gotErr == nil {
		t.Fatal("display error was not reported")
	}
}

func TestRunProgramCleanExit(t *testing.T) {
	events := make(chan pipeline.Event)
	close(events)

	done := RunProgram(deadProgram{}, events, func(err error) {
		t.Errorf("unexpected display error: %v", err)
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not finish on a closed stream")
	}
}
