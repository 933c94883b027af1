package tui

import (
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.00 KiB"},
		{1536, "1.50 KiB"},
		{1048576, "1.00 MiB"},
		{1073741824, "1.00 GiB"},
		{-2048, "-2.00 KiB"},
	}
	for _, c := range cases {
		if got := FormatBytes(c.in); got != c.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatSavings(t *testing.T) {
	if got := FormatSavings(2048, 1024); got != "-1.00 KiB (50.0% saved)" {
		t.Errorf("shrunk file = %q", got)
	}
	if got := FormatSavings(100, 100); got != "+0 B" {
		t.Errorf("unchanged file = %q", got)
	}
	if got := FormatSavings(100, 150); got != "+50 B" {
		t.Errorf("grown file = %q", got)
	}
	if got := FormatSavings(0, 0); got != "+0 B" {
		t.Errorf("empty file = %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(250 * time.Millisecond); got != "250 ms" {
		t.Errorf("sub-second = %q", got)
	}
	if got := FormatDuration(1500 * time.Millisecond); got != "1.50s" {
		t.Errorf("seconds = %q", got)
	}
	if got := FormatDuration(0); got != "0 ms" {
		t.Errorf("zero = %q", got)
	}
}
