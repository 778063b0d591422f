package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/healink/healink/internal/model"
)

type ArtistStore struct {
	db *sql.DB
}

func NewArtistStore(db *sql.DB) *ArtistStore {
	return &ArtistStore{db: db}
}

const artistCols = `id, name, studio_name, email, created_at`

func scanArtist(scanner interface{ Scan(...any) error }) (*model.Artist, error) {
	var a model.Artist
	err := scanner.Scan(&a.ID, &a.Name, &a.StudioName, &a.Email, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *ArtistStore) Create(name, studioName, email, tokenHash string) (*model.Artist, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO artists (id, name, studio_name, email, token_hash) VALUES (?, ?, ?, ?, ?)`,
		id, name, studioName, email, tokenHash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert artist: %w", err)
	}
	return s.GetByID(id)
}

func (s *ArtistStore) GetByID(id string) (*model.Artist, error) {
	row := s.db.QueryRow(`SELECT `+artistCols+` FROM artists WHERE id = ?`, id)
	a, err := scanArtist(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get artist: %w", err)
	}
	return a, nil
}

// GetByTokenHash resolves an artist from the hash of an API token.
func (s *ArtistStore) GetByTokenHash(tokenHash string) (*model.Artist, error) {
	row := s.db.QueryRow(`SELECT `+artistCols+` FROM artists WHERE token_hash = ?`, tokenHash)
	a, err := scanArtist(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get artist by token: %w", err)
	}
	return a, nil
}
