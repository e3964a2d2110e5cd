// Package health exposes the orchestrator's aggregate state over HTTP in
// server mode. The surface is read-only: nothing here mutates the pool.
package health

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/camofleet/camofleet/pkg/orchestrator"
)

// Pool is the read-only view of the worker pool the endpoints report on.
type Pool interface {
	Snapshot() orchestrator.Health
}

type statusResponse struct {
	Status           string `json:"status"`
	BrowserInstances int    `json:"browser_instances"`
	RunningInstances int    `json:"running_instances"`
	RunMode          string `json:"run_mode,omitempty"`
	Message          string `json:"message"`
}

// NewRouter builds the health router over the given pool.
func NewRouter(pool Pool) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		snap := pool.Snapshot()
		writeJSON(w, statusResponse{
			Status:           "healthy",
			BrowserInstances: snap.Launched,
			RunningInstances: snap.Alive,
			Message:          fmt.Sprintf("Application is running with %d active browser instances", snap.Alive),
		})
	})

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		snap := pool.Snapshot()
		writeJSON(w, statusResponse{
			Status:           "running",
			BrowserInstances: snap.Launched,
			RunningInstances: snap.Alive,
			RunMode:          "server",
			Message:          "camofleet is running in server mode",
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, body statusResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
