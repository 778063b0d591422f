package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/healink/healink/internal/model"
)

type ClientStore struct {
	db *sql.DB
}

func NewClientStore(db *sql.DB) *ClientStore {
	return &ClientStore{db: db}
}

const clientCols = `id, artist_id, name, email, role, setup_complete, tattoo_date, push_endpoint, push_p256dh, push_auth, created_at`

func scanClient(scanner interface{ Scan(...any) error }) (*model.Client, error) {
	var c model.Client
	var setupInt int
	var tattooDate sql.NullString

	err := scanner.Scan(
		&c.ID, &c.ArtistID, &c.Name, &c.Email, &c.Role, &setupInt,
		&tattooDate, &c.PushEndpoint, &c.PushP256dh, &c.PushAuth, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.SetupComplete = setupInt != 0
	if tattooDate.Valid && tattooDate.String != "" {
		d, err := time.Parse(time.DateOnly, tattooDate.String)
		if err != nil {
			return nil, fmt.Errorf("parse tattoo date %q: %w", tattooDate.String, err)
		}
		c.TattooDate = &d
	}
	return &c, nil
}

func (s *ClientStore) Create(artistID, name, email string, tattooDate *time.Time) (*model.Client, error) {
	id := uuid.NewString()

	var dateStr sql.NullString
	if tattooDate != nil {
		dateStr = sql.NullString{String: tattooDate.Format(time.DateOnly), Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO clients (id, artist_id, name, email, tattoo_date) VALUES (?, ?, ?, ?, ?)`,
		id, artistID, name, email, dateStr,
	)
	if err != nil {
		return nil, fmt.Errorf("insert client: %w", err)
	}
	return s.GetByID(id)
}

func (s *ClientStore) GetByID(id string) (*model.Client, error) {
	row := s.db.QueryRow(`SELECT `+clientCols+` FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

func (s *ClientStore) ListByArtist(artistID string) ([]model.Client, error) {
	rows, err := s.db.Query(
		`SELECT `+clientCols+` FROM clients WHERE artist_id = ? ORDER BY created_at DESC`,
		artistID,
	)
	if err != nil {
		return nil, fmt.Errorf("list clients by artist: %w", err)
	}
	defer rows.Close()
	return scanClients(rows)
}

// ListEligible returns every client eligible for the daily aftercare run:
// role "client" with completed setup. Clients missing a tattoo date are
// included so the run can surface the data-integrity warning.
func (s *ClientStore) ListEligible() ([]model.Client, error) {
	rows, err := s.db.Query(
		`SELECT ` + clientCols + ` FROM clients WHERE role = 'client' AND setup_complete = 1 ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list eligible clients: %w", err)
	}
	defer rows.Close()
	return scanClients(rows)
}

// MarkSetupComplete records that the client finished onboarding.
func (s *ClientStore) MarkSetupComplete(id string) error {
	_, err := s.db.Exec(`UPDATE clients SET setup_complete = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark setup complete: %w", err)
	}
	return nil
}

// SavePushSubscription stores the client's push endpoint and keys.
// Only the three push columns are touched.
func (s *ClientStore) SavePushSubscription(id, endpoint, p256dh, auth string) error {
	_, err := s.db.Exec(
		`UPDATE clients SET push_endpoint = ?, push_p256dh = ?, push_auth = ? WHERE id = ?`,
		endpoint, p256dh, auth, id,
	)
	if err != nil {
		return fmt.Errorf("save push subscription: %w", err)
	}
	return nil
}

// ClearPushSubscription removes a dead push subscription so future runs
// stop retrying it. The rest of the client row is left alone.
func (s *ClientStore) ClearPushSubscription(id string) error {
	_, err := s.db.Exec(
		`UPDATE clients SET push_endpoint = '', push_p256dh = '', push_auth = '' WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("clear push subscription: %w", err)
	}
	return nil
}

func (s *ClientStore) Delete(id, artistID string) error {
	_, err := s.db.Exec(`DELETE FROM clients WHERE id = ? AND artist_id = ?`, id, artistID)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return nil
}

func scanClients(rows *sql.Rows) ([]model.Client, error) {
	var clients []model.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}
