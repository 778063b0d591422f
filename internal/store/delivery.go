package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/healink/healink/internal/model"
)

type DeliveryStore struct {
	db *sql.DB
}

func NewDeliveryStore(db *sql.DB) *DeliveryStore {
	return &DeliveryStore{db: db}
}

// WasSent checks whether a communication was already dispatched for this
// client, channel, and day offset.
func (s *DeliveryStore) WasSent(clientID, channel string, dayOffset int) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM deliveries WHERE client_id = ? AND channel = ? AND day_offset = ?`,
		clientID, channel, dayOffset,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check delivery: %w", err)
	}
	return count > 0, nil
}

// MarkSent records a successful dispatch. The unique index makes this a
// no-op when the marker already exists, so concurrent same-day runs cannot
// create duplicate markers.
func (s *DeliveryStore) MarkSent(clientID, channel string, dayOffset int, sentAt time.Time) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO deliveries (client_id, channel, day_offset, sent_at) VALUES (?, ?, ?, ?)`,
		clientID, channel, dayOffset, sentAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("mark delivery sent: %w", err)
	}
	return nil
}

// ListByClient returns the delivery history for the dashboard timeline.
func (s *DeliveryStore) ListByClient(clientID string) ([]model.Delivery, error) {
	rows, err := s.db.Query(
		`SELECT id, client_id, channel, day_offset, sent_at
		 FROM deliveries WHERE client_id = ? ORDER BY day_offset, channel`,
		clientID,
	)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []model.Delivery
	for rows.Next() {
		var d model.Delivery
		if err := rows.Scan(&d.ID, &d.ClientID, &d.Channel, &d.DayOffset, &d.SentAt); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}
