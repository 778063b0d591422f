package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/healink/healink/internal/auth"
	"github.com/healink/healink/internal/database"
	"github.com/healink/healink/internal/store"
)

func setupAuthTest(t *testing.T) (*store.ArtistStore, string) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	artists := store.NewArtistStore(db)
	token := "artist-token-abc"
	if _, err := artists.Create("Maria", "Ink Haven", "maria@inkhaven.test", HashToken(token)); err != nil {
		t.Fatalf("create artist: %v", err)
	}
	return artists, token
}

func TestRequireArtistValidToken(t *testing.T) {
	artists, token := setupAuthTest(t)

	var gotArtistID string
	handler := RequireArtist(artists)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotArtistID = auth.ArtistID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/clients", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotArtistID == "" {
		t.Error("expected artist id in context")
	}
}

func TestRequireArtistRejectsBadToken(t *testing.T) {
	artists, _ := setupAuthTest(t)

	handler := RequireArtist(artists)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/api/clients", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireArtistRejectsMissingHeader(t *testing.T) {
	artists, _ := setupAuthTest(t)

	handler := RequireArtist(artists)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/api/clients", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHashTokenStable(t *testing.T) {
	if HashToken("a") != HashToken("a") {
		t.Error("hash must be deterministic")
	}
	if HashToken("a") == HashToken("b") {
		t.Error("different tokens must hash differently")
	}
}
