package store

import (
	"database/sql"
	"fmt"

	"github.com/healink/healink/internal/model"
)

type RunStore struct {
	db *sql.DB
}

func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

const runCols = `id, started_at, finished_at, processed, emails_sent, pushes_sent, photo_reminders_sent, success, error`

func scanRun(scanner interface{ Scan(...any) error }) (*model.Run, error) {
	var r model.Run
	var successInt int
	var finishedAt sql.NullTime

	err := scanner.Scan(
		&r.ID, &r.StartedAt, &finishedAt, &r.Processed, &r.EmailsSent,
		&r.PushesSent, &r.PhotoReminders, &successInt, &r.Error,
	)
	if err != nil {
		return nil, err
	}

	r.Success = successInt != 0
	if finishedAt.Valid {
		r.FinishedAt = &finishedAt.Time
	}
	return &r, nil
}

// Record persists a completed run summary.
func (s *RunStore) Record(run model.Run) (*model.Run, error) {
	var successInt int
	if run.Success {
		successInt = 1
	}
	var finishedAt sql.NullTime
	if run.FinishedAt != nil {
		finishedAt = sql.NullTime{Time: run.FinishedAt.UTC(), Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO runs (started_at, finished_at, processed, emails_sent, pushes_sent, photo_reminders_sent, success, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.StartedAt.UTC(), finishedAt, run.Processed, run.EmailsSent,
		run.PushesSent, run.PhotoReminders, successInt, run.Error,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+runCols+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// Latest returns the most recent run summary, or nil if no run has
// completed yet.
func (s *RunStore) Latest() (*model.Run, error) {
	row := s.db.QueryRow(`SELECT ` + runCols + ` FROM runs ORDER BY id DESC LIMIT 1`)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest run: %w", err)
	}
	return r, nil
}

// List returns up to limit recent run summaries, newest first.
func (s *RunStore) List(limit int) ([]model.Run, error) {
	rows, err := s.db.Query(`SELECT `+runCols+` FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}
