// Package report is the quiet-mode progress reporter: one structured log
// line per terminal event instead of an interactive view.
package report

import (
	"io"

	"github.com/rs/zerolog"

	"turbopng/internal/pipeline"
)

// NewLogger builds the console logger used for quiet mode and startup
// diagnostics.
func NewLogger(w io.Writer) zerolog.Logger {
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	return zerolog.New(console).With().Timestamp().Logger()
}

// Consume drains events until the channel closes, logging terminal ones.
// It is a pure observer; it never influences task outcomes. The returned
// channel closes when the event stream is exhausted.
func Consume(logger zerolog.Logger, events <-chan pipeline.Event) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			if !ev.Phase.Terminal() || ev.Result == nil {
				continue
			}
			logEvent(logger, *ev.Result)
		}
	}()
	return done
}

func logEvent(logger zerolog.Logger, res pipeline.Result) {
	switch res.Status {
	case pipeline.StatusSuccess:
		logger.Info().
			Str("file", res.Task.Path).
			Int64("original", res.OriginalSize).
			Int64("output", res.OutputSize).
			Dur("elapsed", res.Elapsed).
			Msg("processed")
	case pipeline.StatusSkippedDryRun:
		logger.Info().
			Str("file", res.Task.Path).
			Str("would_write", res.OutputPath).
			Int64("original", res.OriginalSize).
			Int64("output", res.OutputSize).
			Msg("dry run")
	case pipeline.StatusSkippedExists:
		logger.Warn().
			Str("file", res.Task.Path).
			Str("destination", res.OutputPath).
			Msg("skipped, destination exists")
	case pipeline.StatusFailed:
		logger.Error().
			Str("file", res.Task.Path).
			Err(res.Err).
			Msg("failed")
	}
}
