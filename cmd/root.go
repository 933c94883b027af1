package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"turbopng/internal/codec"
	"turbopng/internal/config"
	"turbopng/internal/pipeline"
	"turbopng/internal/report"
	"turbopng/internal/resolve"
	"turbopng/internal/tui"
)

var (
	flagMode         string
	flagQuality      int
	flagKeepMetadata bool
	flagOverwrite    bool
	flagThreads      int
	flagNoProgress   bool
	flagDryRun       bool
	flagZopfli       bool
	flagConfig       string
)

var rootCmd = &cobra.Command{
	Use:           "turbopng [flags] <path>...",
	Short:         "High-performance PNG optimizer & compressor",
	Long:          "turbopng losslessly optimizes PNG files or compresses them to a bounded palette, processing whole directory trees concurrently with atomic output writes.",
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          run,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.Flags()
	defaults := config.Default()
	flags.StringVar(&flagMode, "mode", defaults.Mode.String(), "processing mode: optimize or compress")
	flags.IntVar(&flagQuality, "quality", defaults.Quality, "compression quality 1-100 (compress mode only)")
	flags.BoolVar(&flagKeepMetadata, "keep-metadata", false, "retain all ancillary metadata chunks")
	flags.BoolVar(&flagOverwrite, "overwrite", false, "allow replacing existing output files")
	flags.IntVar(&flagThreads, "threads", defaults.Threads, "number of worker threads")
	flags.BoolVar(&flagNoProgress, "no-progress", false, "plain log lines instead of the progress UI")
	flags.BoolVar(&flagDryRun, "dry-run", false, "preview actions without writing any files")
	flags.BoolVar(&flagZopfli, "zopfli", false, "exhaustive entropy-coding search even in optimize mode")
	flags.StringVar(&flagConfig, "config", "", "YAML file with flag defaults")

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
}

func run(cmd *cobra.Command, args []string) error {
	logger := report.NewLogger(os.Stderr)

	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files, problems := resolve.Files(cfg.Inputs)
	for _, p := range problems {
		logger.Error().Str("path", p.Path).Err(p.Err).Msg("cannot resolve input")
	}
	if len(files) == 0 {
		return errors.New("no PNG files found in the provided inputs")
	}

	events := make(chan pipeline.Event, 64)

	var uiDone <-chan struct{}
	if cfg.NoProgress {
		uiDone = report.Consume(logger, events)
	} else {
		program := tea.NewProgram(tui.NewModel(len(files), events, stop))
		uiDone = tui.RunProgram(program, events, func(err error) {
			logger.Error().Err(err).Msg("progress display failed")
		})
	}

	summary, results := pipeline.Run(ctx, cfg, files, codec.NewEngine(), events)
	close(events)
	<-uiDone

	printSummary(summary)
	printFailures(results)

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", summary.Failed, summary.Total)
	}
	if len(problems) > 0 {
		return fmt.Errorf("%d input path(s) could not be resolved", len(problems))
	}
	return nil
}

// buildConfig folds the defaults file and explicit flags into one
// immutable Config. Explicit flags win over file defaults.
func buildConfig(cmd *cobra.Command, args []string) (config.Config, error) {
	cfg := config.Default()

	if flagConfig != "" {
		fileDefaults, err := config.LoadDefaults(flagConfig)
		if err != nil {
			return cfg, err
		}
		if err := fileDefaults.Apply(&cfg); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("mode") {
		mode, err := config.ParseMode(flagMode)
		if err != nil {
			return cfg, err
		}
		cfg.Mode = mode
	}
	if flags.Changed("quality") {
		cfg.Quality = flagQuality
	}
	if flags.Changed("threads") {
		cfg.Threads = flagThreads
	}
	if flags.Changed("keep-metadata") {
		cfg.KeepMetadata = flagKeepMetadata
	}
	if flags.Changed("overwrite") {
		cfg.Overwrite = flagOverwrite
	}
	if flags.Changed("no-progress") {
		cfg.NoProgress = flagNoProgress
	}
	if flags.Changed("zopfli") {
		cfg.Zopfli = flagZopfli
	}
	cfg.DryRun = flagDryRun
	cfg.Inputs = args

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func printSummary(summary pipeline.Summary) {
	rows := []tui.SummaryRow{
		{Label: "Files processed", Value: fmt.Sprintf("%d", summary.Processed)},
		{Label: "Files failed", Value: fmt.Sprintf("%d", summary.Failed)},
		{Label: "Files skipped", Value: fmt.Sprintf("%d", summary.Skipped)},
		{Label: "Original size", Value: tui.FormatBytes(summary.OriginalBytes)},
		{Label: "Output size", Value: tui.FormatBytes(summary.OutputBytes)},
		{Label: "Saved", Value: fmt.Sprintf("%.1f%%", summary.SavingsPercent())},
		{Label: "Elapsed", Value: tui.FormatDuration(summary.Elapsed)},
	}
	fmt.Fprintln(os.Stdout, tui.RenderSummary(rows))
}

func printFailures(results []pipeline.Result) {
	for _, res := range results {
		if res.Status != pipeline.StatusFailed {
			continue
		}
		fmt.Fprintf(os.Stderr, "✗ %s (%v)\n", res.Task.Path, res.Err)
	}
}
