package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/healink/healink/internal/aftercare"
	"github.com/healink/healink/internal/email"
	"github.com/healink/healink/internal/handler"
	"github.com/healink/healink/internal/middleware"
	"github.com/healink/healink/internal/model"
	"github.com/healink/healink/internal/photos"
	"github.com/healink/healink/internal/push"
	"github.com/healink/healink/internal/setup"
	"github.com/healink/healink/internal/store"
	ws "github.com/healink/healink/internal/websocket"
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	artistH     *handler.ArtistHandler
	clientH     *handler.ClientHandler
	setupH      *handler.SetupHandler
	photoH      *handler.PhotoHandler
	runH        *handler.RunHandler
	artistStore *store.ArtistStore
	runner      *aftercare.Runner
	scheduler   *aftercare.Scheduler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

// Config holds the server-level settings that do not belong to a single
// component.
type Config struct {
	BaseURL     string
	SetupSecret string
	SetupTTL    time.Duration
}

func New(db *sql.DB, emailClient *email.Client, pushSvc *push.Service, storage *photos.Storage, runCfg aftercare.Config, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	artistStore := store.NewArtistStore(db)
	clientStore := store.NewClientStore(db)
	deliveryStore := store.NewDeliveryStore(db)
	runStore := store.NewRunStore(db)
	photoStore := store.NewPhotoStore(db)

	tokens := setup.NewTokens(cfg.SetupSecret, cfg.SetupTTL)

	runner := aftercare.NewRunner(
		clientStore, artistStore, deliveryStore, runStore,
		emailClient, pushSvc, runCfg,
		logger.With("component", "aftercare"),
	)
	runner.OnComplete(func(run model.Run) {
		hub.Broadcast(ws.RunCompleted(run))
	})
	runner.OnDelivery(func(clientID, channel string, day int) {
		hub.Broadcast(ws.Message{
			Type:     ws.EventDeliverySent,
			ClientID: clientID,
			Channel:  channel,
			Day:      day,
		})
	})

	return &Server{
		db:          db,
		hub:         hub,
		artistH:     handler.NewArtistHandler(artistStore, logger.With("component", "artist")),
		clientH:     handler.NewClientHandler(clientStore, artistStore, deliveryStore, emailClient, tokens, runCfg, cfg.BaseURL, hub, logger.With("component", "client")),
		setupH:      handler.NewSetupHandler(clientStore, tokens, pushSvc, hub, logger.With("component", "setup")),
		photoH:      handler.NewPhotoHandler(clientStore, photoStore, storage, tokens, hub, logger.With("component", "photo")),
		runH:        handler.NewRunHandler(runner, runStore, logger.With("component", "run")),
		artistStore: artistStore,
		runner:      runner,
		scheduler:   aftercare.NewScheduler(runner, logger.With("component", "scheduler")),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// Scheduler returns the daily run scheduler so main can start and stop
// it with the server lifecycle.
func (s *Server) Scheduler() *aftercare.Scheduler {
	return s.scheduler
}

// Runner returns the aftercare runner, used by the one-shot CLI.
func (s *Server) Runner() *aftercare.Runner {
	return s.runner
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes. Registration and setup are rate limited since both
	// are reachable without credentials.
	outerMux.HandleFunc("POST /api/artists", s.rateLimitedHandler(s.artistH.Register))
	outerMux.HandleFunc("POST /api/setup", s.rateLimitedHandler(s.setupH.Complete))
	outerMux.HandleFunc("GET /api/setup/vapid-key", s.setupH.VAPIDKey)
	outerMux.HandleFunc("POST /api/photos", s.photoH.Upload)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Artist routes behind bearer-token auth.
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireArtist(s.artistStore)
	outerMux.Handle("/api/", authMiddleware(protectedMux))
	outerMux.Handle("GET /ws", authMiddleware(http.HandlerFunc(ws.HandleWebSocket(s.hub))))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/artists/me", s.artistH.Me)

	mux.HandleFunc("POST /api/clients", s.clientH.Create)
	mux.HandleFunc("GET /api/clients", s.clientH.List)
	mux.HandleFunc("GET /api/clients/{id}", s.clientH.Get)
	mux.HandleFunc("DELETE /api/clients/{id}", s.clientH.Delete)

	mux.HandleFunc("GET /api/clients/{id}/photos", s.photoH.List)
	mux.HandleFunc("GET /api/clients/{id}/photos/{photoKey...}", s.photoH.Download)

	mux.HandleFunc("POST /api/runs", s.runH.Trigger)
	mux.HandleFunc("GET /api/runs", s.runH.List)
	mux.HandleFunc("GET /api/runs/latest", s.runH.Latest)
}
