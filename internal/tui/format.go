package tui

import (
	"fmt"
	"time"
)

// FormatBytes returns a human-readable size (B, KiB, MiB, GiB).
func FormatBytes(bytes int64) string {
	const unit = 1024.0
	v := float64(bytes)
	neg := ""
	if v < 0 {
		neg = "-"
		v = -v
	}
	switch {
	case v >= unit*unit*unit:
		return fmt.Sprintf("%s%.2f GiB", neg, v/(unit*unit*unit))
	case v >= unit*unit:
		return fmt.Sprintf("%s%.2f MiB", neg, v/(unit*unit))
	case v >= unit:
		return fmt.Sprintf("%s%.2f KiB", neg, v/unit)
	default:
		return fmt.Sprintf("%s%.0f B", neg, v)
	}
}

// FormatSavings describes the delta between original and output sizes,
// with a saved percentage when the output shrank.
func FormatSavings(original, output int64) string {
	if original == 0 || output >= original {
		return "+" + FormatBytes(output-original)
	}
	saved := original - output
	percent := float64(saved) / float64(original) * 100
	return fmt.Sprintf("-%s (%.1f%% saved)", FormatBytes(saved), percent)
}

// FormatDuration renders sub-second durations in milliseconds and longer
// ones in seconds.
func FormatDuration(d time.Duration) string {
	if d >= time.Second {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return fmt.Sprintf("%d ms", d.Milliseconds())
}
