// Package config holds the immutable run configuration: defaults, an
// optional YAML defaults file, and startup validation. Validation failures
// are fatal before any file is touched.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Mode selects the processing pipeline. The set is closed: workers
// dispatch over it exhaustively.
type Mode int

const (
	ModeOptimize Mode = iota
	ModeCompress
)

func (m Mode) String() string {
	switch m {
	case ModeOptimize:
		return "optimize"
	case ModeCompress:
		return "compress"
	default:
		return "unknown"
	}
}

// ParseMode converts a CLI mode value.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "optimize":
		return ModeOptimize, nil
	case "compress":
		return ModeCompress, nil
	default:
		return ModeOptimize, fmt.Errorf("invalid mode %q (want optimize or compress)", s)
	}
}

// Config is built once at startup and passed by value into every
// component. No ambient global state.
type Config struct {
	Inputs       []string
	Mode         Mode
	Quality      int
	KeepMetadata bool
	Overwrite    bool
	Threads      int
	NoProgress   bool
	DryRun       bool
	Zopfli       bool
}

// Default returns the built-in defaults before flags and the defaults
// file are applied.
func Default() Config {
	return Config{
		Mode:    ModeOptimize,
		Quality: 90,
		Threads: runtime.NumCPU(),
	}
}

// Validate rejects configurations that must never start a run.
func (c Config) Validate() error {
	if len(c.Inputs) == 0 {
		return fmt.Errorf("at least one PNG path must be provided")
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100, got %d", c.Quality)
	}
	if c.Threads < 1 {
		return fmt.Errorf("threads must be at least 1, got %d", c.Threads)
	}
	return nil
}

// FileDefaults mirrors the optional YAML defaults file. Pointer fields
// distinguish "absent" from zero values; explicit flags always win.
type FileDefaults struct {
	Mode         *string `yaml:"mode"`
	Quality      *int    `yaml:"quality"`
	Threads      *int    `yaml:"threads"`
	KeepMetadata *bool   `yaml:"keep_metadata"`
	Overwrite    *bool   `yaml:"overwrite"`
	NoProgress   *bool   `yaml:"no_progress"`
	Zopfli       *bool   `yaml:"zopfli"`
}

// LoadDefaults reads a YAML defaults file.
func LoadDefaults(path string) (FileDefaults, error) {
	var fd FileDefaults
	data, err := os.ReadFile(path)
	if err != nil {
		return fd, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fd); err != nil {
		return fd, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return fd, nil
}

// Apply folds file defaults into c. Returns an error only for values that
// could never be valid regardless of flags.
func (fd FileDefaults) Apply(c *Config) error {
	if fd.Mode != nil {
		mode, err := ParseMode(*fd.Mode)
		if err != nil {
			return err
		}
		c.Mode = mode
	}
	if fd.Quality != nil {
		c.Quality = *fd.Quality
	}
	if fd.Threads != nil {
		c.Threads = *fd.Threads
	}
	if fd.KeepMetadata != nil {
		c.KeepMetadata = *fd.KeepMetadata
	}
	if fd.Overwrite != nil {
		c.Overwrite = *fd.Overwrite
	}
	if fd.NoProgress != nil {
		c.NoProgress = *fd.NoProgress
	}
	if fd.Zopfli != nil {
		c.Zopfli = *fd.Zopfli
	}
	return nil
}

// OutputSuffix is the mode-specific suffix inserted before the .png
// extension of output files.
func (c Config) OutputSuffix() string {
	if c.Mode == ModeCompress {
		return "_compressed.png"
	}
	return "_optimized.png"
}
