package analytics

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rewired-gh/donation-analytics/internal/logger"
	"github.com/rewired-gh/donation-analytics/internal/models"
)

// maxLineSize bounds a single input line
const maxLineSize = 1024 * 1024

// ResultSink receives every emitted result after it has been written
type ResultSink interface {
	AddResult(runID string, lineNo int, result *models.Result) error
}

// Stats summarizes one run
type Stats struct {
	RunID     string
	Lines     int
	Emitted   int
	NonRepeat int
	Skipped   map[string]int // keyed by skip reason
	Donors    int
	Groups    int
	StartedAt time.Time
	Duration  time.Duration
}

// SkippedTotal returns the number of malformed lines
func (s *Stats) SkippedTotal() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}

// Summary returns a one-line human-readable description of the run
func (s *Stats) Summary() string {
	return fmt.Sprintf("%s lines read, %s emitted, %s non-repeat, %s skipped, %s donors, %s groups in %v",
		humanize.Comma(int64(s.Lines)),
		humanize.Comma(int64(s.Emitted)),
		humanize.Comma(int64(s.NonRepeat)),
		humanize.Comma(int64(s.SkippedTotal())),
		humanize.Comma(int64(s.Donors)),
		humanize.Comma(int64(s.Groups)),
		s.Duration.Round(time.Millisecond),
	)
}

// Run reads contribution lines from r and writes one output line to w per
// repeat-donor contribution, in input order. Malformed lines are skipped.
// Sink failures are logged and do not stop the run.
func (p *Processor) Run(ctx context.Context, r io.Reader, w io.Writer, sinks ...ResultSink) (*Stats, error) {
	stats := &Stats{
		RunID:     p.runID,
		Skipped:   make(map[string]int),
		StartedAt: time.Now(),
	}
	defer func() {
		stats.Donors = p.Donors()
		stats.Groups = p.Groups()
		stats.Duration = time.Since(stats.StartedAt)
	}()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	out := bufio.NewWriter(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			_ = out.Flush()
			return stats, err
		}
		stats.Lines++

		result, err := p.Process(scanner.Text())
		if err != nil {
			if errors.Is(err, models.ErrEmptyLine) {
				continue
			}
			stats.Skipped[err.Error()]++
			logger.Debug("Skipping line %d: %v", stats.Lines, err)
			continue
		}
		if result == nil {
			stats.NonRepeat++
			continue
		}

		if _, err := out.WriteString(result.String() + "\n"); err != nil {
			return stats, fmt.Errorf("failed to write result: %w", err)
		}
		stats.Emitted++

		for _, sink := range sinks {
			if err := sink.AddResult(stats.RunID, stats.Lines, result); err != nil {
				logger.Warn("Failed to archive result for line %d: %v", stats.Lines, err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		_ = out.Flush()
		return stats, fmt.Errorf("failed to read input: %w", err)
	}

	if err := out.Flush(); err != nil {
		return stats, fmt.Errorf("failed to flush output: %w", err)
	}
	return stats, nil
}
