package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"turbopng/internal/pipeline"
)

const maxResultLines = 8

type Model struct {
	events     <-chan pipeline.Event
	cancel     func()
	started    time.Time
	width      int
	total      int
	processed  int
	failed     int
	skipped    int
	bytesSaved int64
	active     string
	lines      []string
	cancelling bool
	quitting   bool
}

type doneMsg struct{}

type eventMsg pipeline.Event

// NewModel builds the progress model. total is the number of files the run
// will attempt, known before the first task starts; cancel stops the run the
// same way an external signal would.
func NewModel(total int, events <-chan pipeline.Event, cancel func()) Model {
	return Model{total: total, events: events, cancel: cancel, started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return listenForEvents(m.events)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		m.apply(pipeline.Event(msg))
		return m, listenForEvents(m.events)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.cancel != nil {
				m.cancel()
			}
			m.cancelling = true
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) apply(ev pipeline.Event) {
	switch ev.Phase {
	case pipeline.PhaseStarted:
		m.active = ev.Path
	case pipeline.PhaseFinished:
		m.processed++
		if res := ev.Result; res != nil {
			m.bytesSaved += res.OriginalSize - res.OutputSize
			m.pushLine(successLine(*res))
		}
	case pipeline.PhaseSkipped:
		m.skipped++
		if res := ev.Result; res != nil {
			m.pushLine(skipLine(*res))
		}
	case pipeline.PhaseFailed:
		m.failed++
		if res := ev.Result; res != nil {
			m.pushLine(failureLine(*res))
		}
	}
}

func (m *Model) pushLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxResultLines {
		m.lines = m.lines[len(m.lines)-maxResultLines:]
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(60, float64(m.width-10)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	finished := m.processed + m.failed + m.skipped
	ratio := 0.0
	if m.total > 0 {
		ratio = float64(finished) / float64(m.total)
		if ratio > 1 {
			ratio = 1
		}
	}

	bar := renderBar(barWidth, ratio)
	elapsed := time.Since(m.started).Round(time.Millisecond)

	lines := make([]string, 0, len(m.lines)+7)
	lines = append(lines, m.lines...)
	lines = append(lines,
		titleStyle.Render("turbopng"),
		labelStyle.Render(fmt.Sprintf("Files: %d/%d", finished, m.total))+
			dimStyle.Render(fmt.Sprintf("  failed:%d skipped:%d", m.failed, m.skipped)),
		labelStyle.Render(fmt.Sprintf("Bytes saved: %s", FormatBytes(m.bytesSaved))),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
		barStyle.Render(bar),
	)
	switch {
	case m.cancelling:
		lines = append(lines, warnStyle.Render("cancelling, waiting for in-flight files"))
	case m.active != "" && finished < m.total:
		lines = append(lines, dimStyle.Render("processing "+m.active))
	}

	return strings.Join(lines, "\n")
}

func listenForEvents(events <-chan pipeline.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

func successLine(res pipeline.Result) string {
	parts := []string{
		fmt.Sprintf("%s → %s", FormatBytes(res.OriginalSize), FormatBytes(res.OutputSize)),
		FormatSavings(res.OriginalSize, res.OutputSize),
		FormatDuration(res.Elapsed),
	}
	if res.PaletteSize > 0 {
		parts = append(parts, fmt.Sprintf("%d colors", res.PaletteSize))
	}
	if res.EXIFTagsStripped > 0 {
		parts = append(parts, fmt.Sprintf("%d EXIF tags stripped", res.EXIFTagsStripped))
	}
	return okStyle.Render("✓ ") + labelStyle.Render(res.Task.Path) +
		dimStyle.Render(" ("+strings.Join(parts, ", ")+")")
}

func skipLine(res pipeline.Result) string {
	reason := "exists, use --overwrite"
	if res.Status == pipeline.StatusSkippedDryRun {
		reason = "dry run, would write " + res.OutputPath
	}
	return warnStyle.Render("- ") + labelStyle.Render(res.Task.Path) +
		dimStyle.Render(" ("+reason+")")
}

func failureLine(res pipeline.Result) string {
	return failStyle.Render("✗ ") + labelStyle.Render(res.Task.Path) +
		dimStyle.Render(fmt.Sprintf(" (%v)", res.Err))
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(ColorInk)
	barStyle   = lipgloss.NewStyle().Foreground(ColorInk)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorDim)
	okStyle    = lipgloss.NewStyle().Foreground(ColorSuccess)
	warnStyle  = lipgloss.NewStyle().Foreground(ColorWarn)
	failStyle  = lipgloss.NewStyle().Foreground(ColorError)
)
