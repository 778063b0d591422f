package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/healink/healink/internal/model"
	"github.com/healink/healink/internal/photos"
	"github.com/healink/healink/internal/plan"
	"github.com/healink/healink/internal/setup"
	"github.com/healink/healink/internal/store"
	ws "github.com/healink/healink/internal/websocket"
)

const maxPhotoBytes = 10 << 20 // 10 MB

// PhotoHandler manages healing check-in photos. Clients upload via their
// setup token; artists browse the timeline from the dashboard.
type PhotoHandler struct {
	clients *store.ClientStore
	photos  *store.PhotoStore
	storage *photos.Storage
	tokens  *setup.Tokens
	hub     *ws.Hub
	logger  *slog.Logger
}

func NewPhotoHandler(clients *store.ClientStore, photoStore *store.PhotoStore, storage *photos.Storage, tokens *setup.Tokens, hub *ws.Hub, logger *slog.Logger) *PhotoHandler {
	return &PhotoHandler{
		clients: clients,
		photos:  photoStore,
		storage: storage,
		tokens:  tokens,
		hub:     hub,
		logger:  logger,
	}
}

// Upload handles POST /api/photos. Authenticated by the client's setup
// token in the Authorization header; the body is the raw image.
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !h.storage.Configured() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "photo storage not configured"})
		return
	}

	clientID, ok := h.clientFromToken(w, r)
	if !ok {
		return
	}

	client, err := h.clients.GetByID(clientID)
	if err != nil {
		h.logger.Error("get client for photo upload", "client", clientID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "upload failed"})
		return
	}
	if client == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "client not found"})
		return
	}
	if client.TattooDate == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no tattoo date on record"})
		return
	}

	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body must be an image"})
		return
	}

	day := plan.DayOffset(*client.TattooDate, time.Now())
	if day < 0 {
		day = 0
	}

	body := http.MaxBytesReader(w, r.Body, maxPhotoBytes)
	key, err := h.storage.Upload(r.Context(), clientID, day, contentType, body)
	if err != nil {
		h.logger.Error("upload photo", "client", clientID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "upload failed"})
		return
	}

	photo, err := h.photos.Create(clientID, day, key)
	if err != nil {
		h.logger.Error("record photo", "client", clientID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "upload failed"})
		return
	}

	h.logger.Info("photo uploaded", "client", clientID, "day", day)
	h.hub.Broadcast(ws.Message{Type: ws.EventPhotoUploaded, ClientID: clientID, Day: day})

	writeJSON(w, http.StatusCreated, photo)
}

// List handles GET /api/clients/{id}/photos for the artist dashboard.
func (h *PhotoHandler) List(w http.ResponseWriter, r *http.Request) {
	client, ok := ownedClient(h.clients, h.logger, w, r)
	if !ok {
		return
	}

	list, err := h.photos.ListByClient(client.ID)
	if err != nil {
		h.logger.Error("list photos", "client", client.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list photos"})
		return
	}
	if list == nil {
		list = []model.Photo{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Download handles GET /api/clients/{id}/photos/{photoKey...} and streams
// the image to the artist.
func (h *PhotoHandler) Download(w http.ResponseWriter, r *http.Request) {
	client, ok := ownedClient(h.clients, h.logger, w, r)
	if !ok {
		return
	}

	key := r.PathValue("photoKey")
	// Object keys are namespaced per client; refuse keys outside the
	// requested client's prefix.
	if !strings.HasPrefix(key, "photos/"+client.ID+"/") {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "photo not found"})
		return
	}

	body, contentType, err := h.storage.Download(r.Context(), key)
	if err != nil {
		h.logger.Error("download photo", "key", key, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load photo"})
		return
	}
	defer body.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	io.Copy(w, body)
}

func (h *PhotoHandler) clientFromToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
		return "", false
	}
	clientID, err := h.tokens.Verify(token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
		return "", false
	}
	return clientID, true
}
