package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rewired-gh/donation-analytics/internal/models"
)

func mustStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func result(recipient string, count int) *models.Result {
	return &models.Result{
		Key:        models.GroupKey{Recipient: recipient, Zone: "12345", Year: 2017},
		Percentile: 10,
		Total:      float64(10 * count),
		Count:      count,
	}
}

func TestStorage_RunLifecycle(t *testing.T) {
	s := mustStorage(t)
	started := time.Now()

	if err := s.BeginRun("run-1", 0.3, started); err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	for i := 1; i <= 3; i++ {
		if err := s.AddResult("run-1", i*2, result("C1", i)); err != nil {
			t.Fatalf("AddResult failed: %v", err)
		}
	}
	if err := s.FinishRun("run-1", RunSummary{Lines: 6, Emitted: 3, Skipped: 1}, started.Add(time.Second)); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	run, err := s.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Lines != 6 || run.Emitted != 3 || run.Skipped != 1 {
		t.Errorf("Unexpected run counters: %+v", run)
	}
	if run.Percentile != 0.3 {
		t.Errorf("Unexpected percentile: %v", run.Percentile)
	}
	if !run.FinishedAt.After(run.StartedAt) {
		t.Errorf("Expected finished after started: %v / %v", run.StartedAt, run.FinishedAt)
	}

	results, err := s.GetResults("run-1")
	if err != nil {
		t.Fatalf("GetResults failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Count != i+1 {
			t.Errorf("Result %d out of order: count %d", i, r.Count)
		}
	}
}

func TestStorage_BatchFlush(t *testing.T) {
	s := mustStorage(t)
	if err := s.BeginRun("run-batch", 0.5, time.Now()); err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}

	n := batchSize + 7
	for i := 1; i <= n; i++ {
		if err := s.AddResult("run-batch", i, result("C1", i)); err != nil {
			t.Fatalf("AddResult %d failed: %v", i, err)
		}
	}
	if len(s.pending) != 7 {
		t.Errorf("Expected 7 pending results after automatic flush, got %d", len(s.pending))
	}

	results, err := s.GetResults("run-batch")
	if err != nil {
		t.Fatalf("GetResults failed: %v", err)
	}
	if len(results) != n {
		t.Errorf("Expected %d results, got %d", n, len(results))
	}
}

func TestStorage_InvalidResult(t *testing.T) {
	s := mustStorage(t)
	if err := s.AddResult("run-1", 1, &models.Result{}); err == nil {
		t.Error("Expected error for invalid result")
	}
}

func TestStorage_RunNotFound(t *testing.T) {
	s := mustStorage(t)

	if _, err := s.GetRun("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
	if err := s.FinishRun("missing", RunSummary{}, time.Now()); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
}

func TestStorage_FilePersistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "archive.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := s.BeginRun("run-file", 0.3, time.Now()); err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	if err := s.AddResult("run-file", 1, result("C9", 1)); err != nil {
		t.Fatalf("AddResult failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s2, err := New(dbPath)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer func() { _ = s2.Close() }()

	results, err := s2.GetResults("run-file")
	if err != nil {
		t.Fatalf("GetResults failed: %v", err)
	}
	if len(results) != 1 || results[0].Key.Recipient != "C9" {
		t.Errorf("Unexpected results after reopen: %+v", results)
	}
}

func TestStorage_Runs(t *testing.T) {
	s := mustStorage(t)
	base := time.Now()

	for i, id := range []string{"run-a", "run-b"} {
		if err := s.BeginRun(id, 0.3, base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("BeginRun failed: %v", err)
		}
	}

	runs, err := s.Runs()
	if err != nil {
		t.Fatalf("Runs failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-a" || runs[1].ID != "run-b" {
		t.Errorf("Runs out of order: %s, %s", runs[0].ID, runs[1].ID)
	}
	if !runs[0].FinishedAt.IsZero() {
		t.Errorf("Unfinished run should have zero FinishedAt, got %v", runs[0].FinishedAt)
	}
}
