package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/healink/healink/internal/aftercare"
	"github.com/healink/healink/internal/model"
	"github.com/healink/healink/internal/store"
)

// RunHandler exposes the daily aftercare run: trigger one manually and
// inspect past summaries.
type RunHandler struct {
	runner *aftercare.Runner
	runs   *store.RunStore
	logger *slog.Logger
}

func NewRunHandler(runner *aftercare.Runner, runs *store.RunStore, logger *slog.Logger) *RunHandler {
	return &RunHandler{runner: runner, runs: runs, logger: logger}
}

// Trigger handles POST /api/runs. The run executes synchronously;
// markers make an extra run on an already-processed day a no-op.
func (h *RunHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	summary, err := h.runner.Run(r.Context())
	if err != nil {
		h.logger.Error("manual aftercare run", "error", err)
		writeJSON(w, http.StatusInternalServerError, summary)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Latest handles GET /api/runs/latest.
func (h *RunHandler) Latest(w http.ResponseWriter, r *http.Request) {
	run, err := h.runs.Latest()
	if err != nil {
		h.logger.Error("get latest run", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load run"})
		return
	}
	if run == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no runs yet"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// List handles GET /api/runs.
func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 30
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 365 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be 1-365"})
			return
		}
		limit = n
	}

	runs, err := h.runs.List(limit)
	if err != nil {
		h.logger.Error("list runs", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list runs"})
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}
