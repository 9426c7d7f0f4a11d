package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/your-org/fib-swing-bot/internal/engine"
)

// SnapshotProvider serves the engine state the status endpoint renders.
type SnapshotProvider interface {
	Snapshot() engine.Snapshot
}

// StatusHandler serves the live engine snapshot.
type StatusHandler struct {
	provider SnapshotProvider
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(provider SnapshotProvider) *StatusHandler {
	return &StatusHandler{provider: provider}
}

// RegisterRoutes registers the status routes on the chi router.
func (h *StatusHandler) RegisterRoutes(r chi.Router) {
	r.Get("/status", h.GetStatus)
}

// GetStatus returns the current engine snapshot as JSON.
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	snap := h.provider.Snapshot()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		http.Error(w, "Failed to encode status to JSON", http.StatusInternalServerError)
	}
}
