package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Status is the terminal classification of one task.
type Status int

const (
	StatusSuccess Status = iota
	StatusSkippedExists
	StatusSkippedDryRun
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusSkippedExists:
		return "skipped-exists"
	case StatusSkippedDryRun:
		return "dry-run"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Task pairs one resolved input file with a run-unique identifier. A task
// is owned by the scheduler until handed to a worker, which consumes it.
type Task struct {
	ID   uuid.UUID
	Path string
}

// Result is the single terminal outcome of one task.
type Result struct {
	Task         Task
	Status       Status
	OriginalSize int64
	OutputSize   int64
	OutputPath   string
	Elapsed      time.Duration
	// PaletteSize is the output palette size for quantized files.
	PaletteSize int
	// EXIFTagsStripped counts EXIF tags removed with the metadata.
	EXIFTagsStripped int
	Err              error
}

// Phase is one step of a task's lifecycle. Per task the ordering is
// queued before started before exactly one terminal phase.
type Phase int

const (
	PhaseQueued Phase = iota
	PhaseStarted
	PhaseFinished
	PhaseSkipped
	PhaseFailed
)

// Terminal reports whether the phase ends a task's lifecycle.
func (p Phase) Terminal() bool {
	return p == PhaseFinished || p == PhaseSkipped || p == PhaseFailed
}

// Event is a fire-and-forget progress notification. Result is set only on
// terminal phases.
type Event struct {
	TaskID uuid.UUID
	Path   string
	Phase  Phase
	Result *Result
}

// Summary aggregates task results. Aggregation is commutative and
// associative: any arrival order yields identical totals.
type Summary struct {
	Total         int
	Processed     int
	Failed        int
	Skipped       int
	OriginalBytes int64
	OutputBytes   int64
	Elapsed       time.Duration
}

// Add folds one result into the summary. It is the single aggregation
// point; only the collector goroutine calls it.
func (s *Summary) Add(r Result) {
	switch r.Status {
	case StatusSuccess:
		s.Processed++
		s.OriginalBytes += r.OriginalSize
		s.OutputBytes += r.OutputSize
	case StatusSkippedExists:
		s.Skipped++
	case StatusSkippedDryRun:
		s.Processed++
		s.OriginalBytes += r.OriginalSize
		s.OutputBytes += r.OutputSize
	case StatusFailed:
		s.Failed++
	}
}

// SavingsPercent is the byte reduction over successfully processed files,
// guarded against an empty or zero-sized input set.
func (s Summary) SavingsPercent() float64 {
	if s.OriginalBytes == 0 {
		return 0
	}
	return float64(s.OriginalBytes-s.OutputBytes) / float64(s.OriginalBytes) * 100
}
