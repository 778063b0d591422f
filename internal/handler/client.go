package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/healink/healink/internal/aftercare"
	"github.com/healink/healink/internal/auth"
	"github.com/healink/healink/internal/model"
	"github.com/healink/healink/internal/setup"
	"github.com/healink/healink/internal/store"
	ws "github.com/healink/healink/internal/websocket"
)

type ClientHandler struct {
	clients    *store.ClientStore
	artists    *store.ArtistStore
	deliveries *store.DeliveryStore
	email      aftercare.EmailSender
	tokens     *setup.Tokens
	cfg        aftercare.Config
	baseURL    string
	hub        *ws.Hub
	logger     *slog.Logger
}

func NewClientHandler(clients *store.ClientStore, artists *store.ArtistStore, deliveries *store.DeliveryStore, email aftercare.EmailSender, tokens *setup.Tokens, cfg aftercare.Config, baseURL string, hub *ws.Hub, logger *slog.Logger) *ClientHandler {
	return &ClientHandler{
		clients:    clients,
		artists:    artists,
		deliveries: deliveries,
		email:      email,
		tokens:     tokens,
		cfg:        cfg,
		baseURL:    baseURL,
		hub:        hub,
		logger:     logger,
	}
}

// Create handles POST /api/clients. Registration is Day 0: the welcome
// email with the setup link goes out synchronously here, not from the
// daily run.
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	artistID := auth.ArtistID(r.Context())

	var req struct {
		Name       string `json:"name"`
		Email      string `json:"email"`
		TattooDate string `json:"tattoo_date"`
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

	var tattooDate *time.Time
	if req.TattooDate != "" {
		d, err := time.Parse(time.DateOnly, req.TattooDate)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tattoo_date must be YYYY-MM-DD"})
			return
		}
		tattooDate = &d
	}

	client, err := h.clients.Create(artistID, req.Name, req.Email, tattooDate)
	if err != nil {
		h.logger.Error("create client", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create client"})
		return
	}

	welcomed := h.sendWelcomeEmail(r, client)

	h.hub.Broadcast(ws.Message{Type: ws.EventClientChanged, ClientID: client.ID})

	writeJSON(w, http.StatusCreated, map[string]any{
		"client":             client,
		"welcome_email_sent": welcomed,
	})
}

func (h *ClientHandler) sendWelcomeEmail(r *http.Request, client *model.Client) bool {
	alias, ok := h.cfg.EmailTemplates[0]
	if !ok || alias == "" {
		h.logger.Warn("no welcome email template configured")
		return false
	}

	artist, err := h.artists.GetByID(client.ArtistID)
	if err != nil || artist == nil {
		h.logger.Error("resolve artist for welcome email", "client", client.ID, "error", err)
		return false
	}

	token, err := h.tokens.Generate(client.ID)
	if err != nil {
		h.logger.Error("generate setup token", "client", client.ID, "error", err)
		return false
	}
	setupLink := h.baseURL + "/setup?token=" + url.QueryEscape(token)

	params := map[string]any{
		"client_name": client.Name,
		"studio_name": artist.DisplayName(),
		"setup_link":  setupLink,
	}
	if err := h.email.SendTemplate(r.Context(), client.Email, alias, params); err != nil {
		// The artist can re-send from the dashboard; registration itself
		// already succeeded.
		h.logger.Error("send welcome email", "client", client.ID, "error", err)
		return false
	}

	if err := h.deliveries.MarkSent(client.ID, model.ChannelEmail, 0, time.Now()); err != nil {
		h.logger.Error("mark welcome email sent", "client", client.ID, "error", err)
	}
	return true
}

// List handles GET /api/clients.
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	artistID := auth.ArtistID(r.Context())

	clients, err := h.clients.ListByArtist(artistID)
	if err != nil {
		h.logger.Error("list clients", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list clients"})
		return
	}
	if clients == nil {
		clients = []model.Client{}
	}
	writeJSON(w, http.StatusOK, clients)
}

// Get handles GET /api/clients/{id}; the response includes the delivery
// timeline for the dashboard.
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	client, ok := ownedClient(h.clients, h.logger, w, r)
	if !ok {
		return
	}

	deliveries, err := h.deliveries.ListByClient(client.ID)
	if err != nil {
		h.logger.Error("list deliveries", "client", client.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load deliveries"})
		return
	}
	if deliveries == nil {
		deliveries = []model.Delivery{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"client":     client,
		"deliveries": deliveries,
	})
}

// Delete handles DELETE /api/clients/{id}.
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	client, ok := ownedClient(h.clients, h.logger, w, r)
	if !ok {
		return
	}

	if err := h.clients.Delete(client.ID, auth.ArtistID(r.Context())); err != nil {
		h.logger.Error("delete client", "client", client.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete client"})
		return
	}

	h.hub.Broadcast(ws.Message{Type: ws.EventClientChanged, ClientID: client.ID})
	w.WriteHeader(http.StatusNoContent)
}

// ownedClient loads the client from the path and checks the requesting
// artist owns it.
func ownedClient(clients *store.ClientStore, logger *slog.Logger, w http.ResponseWriter, r *http.Request) (*model.Client, bool) {
	client, err := clients.GetByID(r.PathValue("id"))
	if err != nil {
		logger.Error("get client", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load client"})
		return nil, false
	}
	if client == nil || client.ArtistID != auth.ArtistID(r.Context()) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "client not found"})
		return nil, false
	}
	return client, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
