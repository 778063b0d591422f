package store

import (
	"database/sql"
	"fmt"

	"github.com/healink/healink/internal/model"
)

type PhotoStore struct {
	db *sql.DB
}

func NewPhotoStore(db *sql.DB) *PhotoStore {
	return &PhotoStore{db: db}
}

func (s *PhotoStore) Create(clientID string, dayOffset int, objectKey string) (*model.Photo, error) {
	result, err := s.db.Exec(
		`INSERT INTO photos (client_id, day_offset, object_key) VALUES (?, ?, ?)`,
		clientID, dayOffset, objectKey,
	)
	if err != nil {
		return nil, fmt.Errorf("insert photo: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var p model.Photo
	err = s.db.QueryRow(
		`SELECT id, client_id, day_offset, object_key, uploaded_at FROM photos WHERE id = ?`, id,
	).Scan(&p.ID, &p.ClientID, &p.DayOffset, &p.ObjectKey, &p.UploadedAt)
	if err != nil {
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return &p, nil
}

// ListByClient returns the healing photo timeline, oldest first.
func (s *PhotoStore) ListByClient(clientID string) ([]model.Photo, error) {
	rows, err := s.db.Query(
		`SELECT id, client_id, day_offset, object_key, uploaded_at
		 FROM photos WHERE client_id = ? ORDER BY day_offset, uploaded_at`,
		clientID,
	)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	var photos []model.Photo
	for rows.Next() {
		var p model.Photo
		if err := rows.Scan(&p.ID, &p.ClientID, &p.DayOffset, &p.ObjectKey, &p.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}
