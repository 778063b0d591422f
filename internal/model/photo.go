package model

import "time"

// Photo is one healing check-in photo stored in object storage.
// ObjectKey addresses the blob; the bytes themselves never touch SQLite.
type Photo struct {
	ID         int64     `json:"id"`
	ClientID   string    `json:"client_id"`
	DayOffset  int       `json:"day_offset"`
	ObjectKey  string    `json:"object_key"`
	UploadedAt time.Time `json:"uploaded_at"`
}
