// Package resolve expands user-supplied paths into the deduplicated,
// ordered list of PNG files a run will process.
package resolve

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Problem records a path that could not be resolved. Problems never abort
// resolution of the remaining inputs.
type Problem struct {
	Path string
	Err  error
}

// Files expands each input: regular PNG files are taken directly,
// directories are walked recursively in lexicographic order without
// following symlinked directories. Entries are deduplicated by canonical
// (symlink-resolved) path, keeping the first occurrence, so the output
// order is deterministic for a given filesystem state.
func Files(inputs []string) ([]string, []Problem) {
	var files []string
	var problems []Problem
	seen := make(map[string]struct{})

	add := func(path string) {
		canonical := canonicalize(path)
		if _, dup := seen[canonical]; dup {
			return
		}
		seen[canonical] = struct{}{}
		files = append(files, canonical)
	}

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			problems = append(problems, Problem{Path: input, Err: err})
			continue
		}

		if !info.IsDir() {
			if !isPNG(input) {
				problems = append(problems, Problem{Path: input, Err: fmt.Errorf("not a PNG file")})
				continue
			}
			add(input)
			continue
		}

		root, err := filepath.Abs(input)
		if err != nil {
			problems = append(problems, Problem{Path: input, Err: err})
			continue
		}
		walkErr := fs.WalkDir(os.DirFS(root), ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				problems = append(problems, Problem{Path: filepath.Join(root, path), Err: err})
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			full := filepath.Join(root, path)
			if d.Type()&fs.ModeSymlink != 0 {
				// Symlinked files are followed; symlinked directories are
				// not (cycle avoidance), which WalkDir already guarantees.
				if target, statErr := os.Stat(full); statErr != nil || !target.Mode().IsRegular() {
					return nil
				}
			} else if !d.Type().IsRegular() {
				return nil
			}
			if isPNG(full) {
				add(full)
			}
			return nil
		})
		if walkErr != nil {
			problems = append(problems, Problem{Path: input, Err: walkErr})
		}
	}

	return files, problems
}

// canonicalize resolves symlinks and relative segments so the same file
// reached through different strings dedupes to one entry.
func canonicalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs
	}
	return resolved
}

func isPNG(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".png")
}
