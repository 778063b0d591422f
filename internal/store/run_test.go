package store

import (
	"testing"
	"time"

	"github.com/healink/healink/internal/model"
)

func TestRunRecordAndLatest(t *testing.T) {
	db := setupTestDB(t)
	rs := NewRunStore(db)

	if latest, err := rs.Latest(); err != nil || latest != nil {
		t.Fatalf("latest on empty table = %+v, %v; want nil, nil", latest, err)
	}

	started := time.Now().UTC().Truncate(time.Second)
	finished := started.Add(3 * time.Second)

	recorded, err := rs.Record(model.Run{
		StartedAt:      started,
		FinishedAt:     &finished,
		Processed:      12,
		EmailsSent:     4,
		PushesSent:     9,
		PhotoReminders: 2,
		Success:        true,
	})
	if err != nil {
		t.Fatalf("record run: %v", err)
	}
	if recorded.ID == 0 {
		t.Error("expected non-zero run id")
	}

	latest, err := rs.Latest()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Processed != 12 || latest.EmailsSent != 4 || latest.PushesSent != 9 || latest.PhotoReminders != 2 {
		t.Errorf("counters = %d/%d/%d/%d", latest.Processed, latest.EmailsSent, latest.PushesSent, latest.PhotoReminders)
	}
	if !latest.Success {
		t.Error("expected success")
	}
	if latest.FinishedAt == nil {
		t.Error("expected finished_at")
	}
}

func TestRunRecordFailure(t *testing.T) {
	db := setupTestDB(t)
	rs := NewRunStore(db)

	_, err := rs.Record(model.Run{
		StartedAt: time.Now(),
		Success:   false,
		Error:     "list eligible clients: disk I/O error",
	})
	if err != nil {
		t.Fatalf("record failed run: %v", err)
	}

	latest, _ := rs.Latest()
	if latest.Success {
		t.Error("expected failure recorded")
	}
	if latest.Error == "" {
		t.Error("expected error message recorded")
	}
}

func TestRunList(t *testing.T) {
	db := setupTestDB(t)
	rs := NewRunStore(db)

	for i := 0; i < 3; i++ {
		rs.Record(model.Run{StartedAt: time.Now(), Processed: i, Success: true})
	}

	runs, err := rs.List(2)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len = %d, want 2", len(runs))
	}
	// Newest first
	if runs[0].Processed != 2 {
		t.Errorf("first run processed = %d, want 2", runs[0].Processed)
	}
}
