package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	cfg := Default()
	cfg.Inputs = []string{"a.png"}
	return cfg
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	cfg := validConfig()
	cfg.Inputs = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty inputs should fail validation")
	}

	for _, q := range []int{0, -3, 101} {
		cfg := validConfig()
		cfg.Quality = q
		if err := cfg.Validate(); err == nil {
			t.Fatalf("quality %d should fail validation", q)
		}
	}

	cfg = validConfig()
	cfg.Threads = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero threads should fail validation")
	}
}

func TestParseMode(t *testing.T) {
	for s, want := range map[string]Mode{"optimize": ModeOptimize, "compress": ModeCompress} {
		got, err := ParseMode(s)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %v, %v", s, got, err)
		}
	}
	if _, err := ParseMode("shrink"); err == nil {
		t.Fatal("unknown mode should error")
	}
}

func TestOutputSuffix(t *testing.T) {
	cfg := validConfig()
	if got := cfg.OutputSuffix(); got != "_optimized.png" {
		t.Fatalf("optimize suffix = %q", got)
	}
	cfg.Mode = ModeCompress
	if got := cfg.OutputSuffix(); got != "_compressed.png" {
		t.Fatalf("compress suffix = %q", got)
	}
}

func TestLoadDefaultsApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turbopng.yaml")
	contents := "mode: compress\nquality: 75\nkeep_metadata: true\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	fd, err := LoadDefaults(path)
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}

	cfg := validConfig()
	if err := fd.Apply(&cfg); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Mode != ModeCompress || cfg.Quality != 75 || !cfg.KeepMetadata {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	// Fields absent from the file stay at their prior values.
	if cfg.Threads != Default().Threads || cfg.Overwrite {
		t.Fatalf("absent fields changed: %+v", cfg)
	}
}

func TestLoadDefaultsErrors(t *testing.T) {
	if _, err := LoadDefaults(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("missing file should error")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("mode: [not, a, string"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadDefaults(path); err == nil {
		t.Fatal("malformed YAML should error")
	}
}

func TestApplyRejectsInvalidMode(t *testing.T) {
	bad := "shrink"
	cfg := validConfig()
	if err := (FileDefaults{Mode: &bad}).Apply(&cfg); err == nil {
		t.Fatal("invalid mode in defaults file should error")
	}
}
