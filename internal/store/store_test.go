package store

import (
	"path/filepath"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "tracker.db"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndFinishRun(t *testing.T) {
	s := testStore(t)

	started := time.Now()
	id, err := s.CreateRun("job-1", "/tmp/tracker.xlsx", started)
	if err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if id == 0 {
		t.Fatal("CreateRun returned id 0")
	}

	if err := s.FinishRun(id, "completed", 5, 5, "", time.Now()); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	runs, err := s.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}

	r := runs[0]
	if r.JobID != "job-1" || r.Status != "completed" || r.Total != 5 || r.Processed != 5 {
		t.Errorf("run = %+v", r)
	}
	if r.FinishedAt == nil {
		t.Error("FinishedAt should be set after FinishRun")
	}
}

func TestListRunsNewestFirstAndLimited(t *testing.T) {
	s := testStore(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		if _, err := s.CreateRun("job", "/tmp/w.xlsx", base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("CreateRun %d failed: %v", i, err)
		}
	}

	runs, err := s.ListRuns(3)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("len(runs) = %d, want 3", len(runs))
	}
	for i := 1; i < len(runs); i++ {
		if runs[i].StartedAt.After(runs[i-1].StartedAt) {
			t.Errorf("runs out of order: %v after %v", runs[i].StartedAt, runs[i-1].StartedAt)
		}
	}
}

func TestRunWithErrorMessage(t *testing.T) {
	s := testStore(t)

	id, err := s.CreateRun("job-err", "/tmp/w.xlsx", time.Now())
	if err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := s.FinishRun(id, "error", 3, 3, "workbook config: missing key", time.Now()); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	runs, err := s.ListRuns(1)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if runs[0].Status != "error" || runs[0].ErrorMessage == "" {
		t.Errorf("run = %+v, want error status with message", runs[0])
	}
}
