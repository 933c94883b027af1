// Package pipeline schedules resolved files across a bounded worker pool
// and aggregates their results.
package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"

	"turbopng/internal/codec"
	"turbopng/internal/config"
	"turbopng/internal/writer"
)

// Run processes files concurrently with cfg.Threads workers and returns
// the aggregated summary plus every per-file result. Task failures are
// isolated: one bad file never cancels the others. Cancellation via ctx
// stops new tasks from starting; in-flight tasks run to their next safe
// boundary so no partial output is ever visible.
//
// Events are emitted on the optional events channel. Terminal events are
// delivered reliably; queued/started notifications are best-effort so a
// slow renderer can never block a worker.
func Run(ctx context.Context, cfg config.Config, files []string, engine codec.Engine, events chan<- Event) (Summary, []Result) {
	start := time.Now()

	losslessOpts := codec.DeriveLossless(cfg.KeepMetadata, cfg.Zopfli)
	quantizeOpts := codec.DeriveQuantize(cfg.Quality, cfg.KeepMetadata)

	jobs := make(chan Task)
	results := make(chan Result)

	workers := cfg.Threads
	done := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for task := range jobs {
				results <- runTask(ctx, task, cfg, losslessOpts, quantizeOpts, engine, events)
			}
		}()
	}

	summary := Summary{Total: len(files)}
	var collected []Result
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for res := range results {
			summary.Add(res)
			collected = append(collected, res)
			emitTerminal(events, res)
		}
	}()

	go func() {
		defer close(jobs)
		for _, path := range files {
			task := Task{ID: uuid.New(), Path: path}
			emit(events, Event{TaskID: task.ID, Path: task.Path, Phase: PhaseQueued})
			select {
			case jobs <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	for i := 0; i < workers; i++ {
		<-done
	}
	close(results)
	<-collectorDone

	summary.Elapsed = time.Since(start)
	return summary, collected
}

// runTask executes one file end to end and produces its single terminal
// result.
func runTask(ctx context.Context, task Task, cfg config.Config,
	losslessOpts codec.LosslessOptions, quantizeOpts codec.QuantizeOptions,
	engine codec.Engine, events chan<- Event) Result {

	res := Result{Task: task}
	started := time.Now()

	if err := ctx.Err(); err != nil {
		res.Status = StatusFailed
		res.Err = err
		return res
	}

	emit(events, Event{TaskID: task.ID, Path: task.Path, Phase: PhaseStarted})

	dest := writer.DerivePath(task.Path, cfg.OutputSuffix())
	res.OutputPath = dest
	if writer.DestinationExists(dest) && !cfg.Overwrite {
		res.Status = StatusSkippedExists
		res.Elapsed = time.Since(started)
		return res
	}

	data, err := os.ReadFile(task.Path)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		res.Elapsed = time.Since(started)
		return res
	}
	res.OriginalSize = int64(len(data))

	var out codec.Result
	switch cfg.Mode {
	case config.ModeCompress:
		out, err = engine.Quantize(data, quantizeOpts)
	default:
		out, err = engine.Lossless(data, losslessOpts)
	}
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		res.Elapsed = time.Since(started)
		return res
	}
	res.OutputSize = int64(len(out.Data))
	res.PaletteSize = out.PaletteSize
	res.EXIFTagsStripped = out.EXIFTagsStripped

	_, outcome, err := writer.Write(task.Path, out.Data, cfg.OutputSuffix(), cfg.Overwrite, cfg.DryRun)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		res.Elapsed = time.Since(started)
		return res
	}

	switch outcome {
	case writer.SkippedExists:
		res.Status = StatusSkippedExists
	case writer.SkippedDryRun:
		res.Status = StatusSkippedDryRun
	default:
		res.Status = StatusSuccess
	}
	res.Elapsed = time.Since(started)
	return res
}

// emit delivers a non-terminal event without ever blocking a worker.
func emit(events chan<- Event, ev Event) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	default:
	}
}

// emitTerminal delivers a terminal event reliably; dropped renders are
// acceptable, dropped results are not.
func emitTerminal(events chan<- Event, res Result) {
	if events == nil {
		return
	}
	phase := PhaseFinished
	switch res.Status {
	case StatusFailed:
		phase = PhaseFailed
	case StatusSkippedExists, StatusSkippedDryRun:
		phase = PhaseSkipped
	}
	r := res
	events <- Event{TaskID: res.Task.ID, Path: res.Task.Path, Phase: phase, Result: &r}
}
