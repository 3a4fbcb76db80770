package job

import (
	"sync"
	"testing"

	"github.com/mdherunjalal99/ShopeeTracker/internal/model"
)

func testRows(n int) []*model.ProductRow {
	rows := make([]*model.ProductRow, n)
	for i := range rows {
		rows[i] = &model.ProductRow{SheetRow: i + 3, Link: "https://shopee.vn/x-i.1.2"}
	}
	return rows
}

func TestStatusLifecycle(t *testing.T) {
	s := NewStatus("job-1")
	if got := s.Snapshot().State; got != model.JobQueued {
		t.Errorf("initial state = %s, want queued", got)
	}

	s.Start(testRows(3))
	snap := s.Snapshot()
	if snap.State != model.JobRunning || snap.Total != 3 || snap.Progress != 0 {
		t.Errorf("after Start: %+v", snap)
	}
	if len(snap.Results) != 3 {
		t.Fatalf("results seeded = %d, want 3", len(snap.Results))
	}
	for i, r := range snap.Results {
		if r.Price != nil {
			t.Errorf("result %d price should be nil before fetch", i)
		}
	}

	price := int64(100000)
	s.RecordRow(1, &price)
	snap = s.Snapshot()
	if snap.Progress != 1 {
		t.Errorf("progress = %d, want 1", snap.Progress)
	}
	if snap.Results[1].Price == nil || *snap.Results[1].Price != 100000 {
		t.Errorf("result 1 = %+v, want price 100000", snap.Results[1])
	}

	s.Complete("/tmp/out.xlsx")
	snap = s.Snapshot()
	if snap.State != model.JobCompleted || snap.OutputPath != "/tmp/out.xlsx" {
		t.Errorf("after Complete: %+v", snap)
	}
}

func TestStatusTerminalStatesStick(t *testing.T) {
	s := NewStatus("job-1")
	s.Start(testRows(1))
	s.Fail("boom")

	s.Complete("/tmp/out.xlsx")
	if got := s.Snapshot().State; got != model.JobError {
		t.Errorf("state = %s, want error (terminal states never transition)", got)
	}

	s.Start(testRows(5))
	if got := s.Snapshot().Total; got != 1 {
		t.Errorf("total = %d, Start after a terminal state must be a no-op", got)
	}
}

func TestStatusProgressNeverExceedsTotal(t *testing.T) {
	s := NewStatus("job-1")
	s.Start(testRows(2))
	s.RecordRow(0, nil)
	s.RecordRow(1, nil)
	s.RecordRow(1, nil)
	if got := s.Snapshot().Progress; got != 2 {
		t.Errorf("progress = %d, want 2", got)
	}
}

func TestStatusConcurrentRecordRow(t *testing.T) {
	const n = 200
	s := NewStatus("job-1")
	s.Start(testRows(n))

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			price := int64(idx)
			s.RecordRow(idx, &price)
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot()
	if snap.Progress != n {
		t.Errorf("progress = %d, want %d (no lost updates)", snap.Progress, n)
	}
	for i, r := range snap.Results {
		if r.Price == nil || *r.Price != int64(i) {
			t.Errorf("result %d = %+v", i, r)
		}
	}
}

func TestStatusSnapshotIsACopy(t *testing.T) {
	s := NewStatus("job-1")
	s.Start(testRows(1))

	snap := s.Snapshot()
	bogus := int64(1)
	snap.Results[0].Price = &bogus

	if s.Snapshot().Results[0].Price != nil {
		t.Error("mutating a snapshot must not affect the live status")
	}
}
