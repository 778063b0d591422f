package model

import "time"

// Run is a persisted summary of one daily aftercare execution.
type Run struct {
	ID             int64      `json:"id"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	Processed      int        `json:"processed"`
	EmailsSent     int        `json:"emails_sent"`
	PushesSent     int        `json:"pushes_sent"`
	PhotoReminders int        `json:"photo_reminders_sent"`
	Success        bool       `json:"success"`
	Error          string     `json:"error,omitempty"`
}
