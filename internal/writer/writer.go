// Package writer computes destination paths and performs atomic,
// all-or-nothing output writes.
package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Outcome classifies what Write did.
type Outcome int

const (
	// Written means the destination now holds the new bytes.
	Written Outcome = iota
	// SkippedExists means the destination existed and overwrite was off;
	// the filesystem was not touched.
	SkippedExists
	// SkippedDryRun means the write was only simulated.
	SkippedDryRun
)

// DerivePath inserts suffix in place of the input's extension:
// dir/name.png with "_optimized.png" becomes dir/name_optimized.png.
func DerivePath(input, suffix string) string {
	dir := filepath.Dir(input)
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+suffix)
}

// DestinationExists reports whether the derived output path is already
// occupied. Used to skip work before the codec runs.
func DestinationExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Write places data at the destination derived from input and suffix.
// With overwrite off an existing destination is left untouched. With
// dryRun the destination is only computed. Otherwise the bytes go to a
// temporary file in the destination directory, are synced, and the file
// is renamed over the destination, so observers never see a partial file
// and a mid-write crash leaves the prior state intact.
func Write(input string, data []byte, suffix string, overwrite, dryRun bool) (string, Outcome, error) {
	dest := DerivePath(input, suffix)

	if DestinationExists(dest) && !overwrite {
		return dest, SkippedExists, nil
	}
	if dryRun {
		return dest, SkippedDryRun, nil
	}

	if err := writeAtomic(dest, data); err != nil {
		return dest, Written, err
	}
	return dest, Written, nil
}

func writeAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".turbopng-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temporary output for %s: %w", dest, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temporary output for %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary output for %s: %w", dest, err)
	}

	if err := replaceFile(tmpPath, dest); err != nil {
		return fmt.Errorf("replacing %s: %w", dest, err)
	}
	return nil
}

// replaceFile renames tmp over dest, falling back to remove-then-rename
// on platforms where rename does not replace.
func replaceFile(tmpPath, dest string) error {
	if err := os.Rename(tmpPath, dest); err == nil {
		return nil
	}
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, dest)
}
