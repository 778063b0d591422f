package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/healink/healink/internal/push"
	"github.com/healink/healink/internal/setup"
	"github.com/healink/healink/internal/store"
	ws "github.com/healink/healink/internal/websocket"
)

// SetupHandler completes client onboarding from the setup link in the
// welcome email. The endpoint is unauthenticated; the signed token in
// the request body proves the client was invited.
type SetupHandler struct {
	clients *store.ClientStore
	tokens  *setup.Tokens
	pushSvc *push.Service
	hub     *ws.Hub
	logger  *slog.Logger
}

func NewSetupHandler(clients *store.ClientStore, tokens *setup.Tokens, pushSvc *push.Service, hub *ws.Hub, logger *slog.Logger) *SetupHandler {
	return &SetupHandler{clients: clients, tokens: tokens, pushSvc: pushSvc, hub: hub, logger: logger}
}

// VAPIDKey handles GET /api/setup/vapid-key. The browser needs the
// public key before it can create a push subscription.
func (h *SetupHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.pushSvc.VAPIDPublicKey()})
}

// Complete handles POST /api/setup.
func (h *SetupHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token        string `json:"token"`
		Subscription *struct {
			Endpoint string `json:"endpoint"`
			P256dh   string `json:"p256dh"`
			Auth     string `json:"auth"`
		} `json:"subscription"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	clientID, err := h.tokens.Verify(req.Token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired setup link"})
		return
	}

	client, err := h.clients.GetByID(clientID)
	if err != nil {
		h.logger.Error("get client for setup", "client", clientID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "setup failed"})
		return
	}
	if client == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "client not found"})
		return
	}

	if req.Subscription != nil && req.Subscription.Endpoint != "" {
		if err := h.clients.SavePushSubscription(clientID, req.Subscription.Endpoint, req.Subscription.P256dh, req.Subscription.Auth); err != nil {
			h.logger.Error("save push subscription", "client", clientID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "setup failed"})
			return
		}
	}

	if err := h.clients.MarkSetupComplete(clientID); err != nil {
		h.logger.Error("mark setup complete", "client", clientID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "setup failed"})
		return
	}

	h.logger.Info("client setup complete", "client", clientID, "push", req.Subscription != nil)
	h.hub.Broadcast(ws.Message{Type: ws.EventClientChanged, ClientID: clientID})

	writeJSON(w, http.StatusOK, map[string]string{"client_id": clientID})
}
