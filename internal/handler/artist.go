package handler

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/healink/healink/internal/auth"
	"github.com/healink/healink/internal/middleware"
	"github.com/healink/healink/internal/store"
)

// ArtistHandler manages studio accounts. Registration returns the API
// token exactly once; only its hash is stored.
type ArtistHandler struct {
	artists *store.ArtistStore
	logger  *slog.Logger
}

func NewArtistHandler(artists *store.ArtistStore, logger *slog.Logger) *ArtistHandler {
	return &ArtistHandler{artists: artists, logger: logger}
}

// Register handles POST /api/artists.
func (h *ArtistHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name"`
		StudioName string `json:"studio_name"`
		Email      string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "valid email is required"})
		return
	}

	token, err := newAPIToken()
	if err != nil {
		h.logger.Error("generate api token", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "registration failed"})
		return
	}

	artist, err := h.artists.Create(req.Name, req.StudioName, req.Email, middleware.HashToken(token))
	if err != nil {
		h.logger.Error("create artist", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "registration failed"})
		return
	}

	h.logger.Info("artist registered", "artist", artist.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"artist":    artist,
		"api_token": token,
	})
}

// Me handles GET /api/artists/me.
func (h *ArtistHandler) Me(w http.ResponseWriter, r *http.Request) {
	artist, err := h.artists.GetByID(auth.ArtistID(r.Context()))
	if err != nil {
		h.logger.Error("get artist", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load account"})
		return
	}
	if artist == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "account not found"})
		return
	}
	writeJSON(w, http.StatusOK, artist)
}

func newAPIToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return "hlk_" + hex.EncodeToString(buf), nil
}
