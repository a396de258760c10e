package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/rewired-gh/donation-analytics/internal/analytics"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{90 * time.Minute, "1h30m"},
		{2 * time.Hour, "2h0m"},
		{125 * time.Second, "2m5s"},
		{1500 * time.Millisecond, "1.5s"},
		{250 * time.Millisecond, "250ms"},
	}

	for _, tt := range tests {
		result := formatDuration(tt.duration)
		if result != tt.expected {
			t.Errorf("formatDuration(%v) = %s, expected %s", tt.duration, result, tt.expected)
		}
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	got := escapeMarkdownV2("repeat_donors.txt (v1)")
	want := `repeat\_donors\.txt \(v1\)`
	if got != want {
		t.Errorf("escapeMarkdownV2() = %s, want %s", got, want)
	}
}

func TestFormatSummary(t *testing.T) {
	stats := &analytics.Stats{
		RunID:     "3f2c-run",
		Lines:     12345,
		Emitted:   42,
		Donors:    1000,
		Groups:    17,
		Skipped:   map[string]int{"other id present": 3, "transaction date is invalid": 1},
		StartedAt: time.Date(2017, 1, 3, 10, 0, 0, 0, time.UTC),
		Duration:  2 * time.Second,
	}

	msg := formatSummary(stats, "./output/repeat_donors.txt")

	for _, want := range []string{
		"12,345",
		"Skipped: 4",
		"other id present: 3",
		`repeat\_donors\.txt`,
		`3f2c\-run`,
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("Summary missing %q:\n%s", want, msg)
		}
	}
}
