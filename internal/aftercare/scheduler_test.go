package aftercare

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func newTestScheduler(t *testing.T, loc *time.Location, hour int) *Scheduler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewRunner(nil, nil, nil, nil, nil, nil, Config{Location: loc, RunHour: hour}, logger)
	return NewScheduler(r, logger)
}

func TestNextRunBeforeHour(t *testing.T) {
	s := newTestScheduler(t, time.UTC, 9)

	now := time.Date(2024, time.January, 8, 6, 30, 0, 0, time.UTC)
	next := s.NextRun(now)

	want := time.Date(2024, time.January, 8, 9, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next run = %v, want %v", next, want)
	}
}

func TestNextRunAfterHour(t *testing.T) {
	s := newTestScheduler(t, time.UTC, 9)

	now := time.Date(2024, time.January, 8, 9, 0, 1, 0, time.UTC)
	next := s.NextRun(now)

	want := time.Date(2024, time.January, 9, 9, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next run = %v, want %v", next, want)
	}
}

func TestNextRunExactlyAtHour(t *testing.T) {
	s := newTestScheduler(t, time.UTC, 9)

	// Firing exactly at 09:00 schedules the following day, not an
	// immediate re-fire.
	now := time.Date(2024, time.January, 8, 9, 0, 0, 0, time.UTC)
	next := s.NextRun(now)

	want := time.Date(2024, time.January, 9, 9, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next run = %v, want %v", next, want)
	}
}

func TestNextRunInServiceTimezone(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Dublin")
	if err != nil {
		t.Skipf("load location: %v", err)
	}
	s := newTestScheduler(t, loc, 9)

	// 07:45 UTC in winter is 07:45 in Dublin: the 09:00 local fire is
	// still ahead that day.
	now := time.Date(2024, time.January, 8, 7, 45, 0, 0, time.UTC)
	next := s.NextRun(now)

	want := time.Date(2024, time.January, 8, 9, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Errorf("next run = %v, want %v", next, want)
	}
}
