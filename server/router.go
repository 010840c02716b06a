package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

var Version = "dev"

// SetupMux handles all data serving:
// - Prometheus metric endpoint
// - Websocket snapshot feed and editor commands
// - One-shot state fetch for clients that do not hold a socket open
// - Version and health for programmatic use
func (h *Hub) SetupMux() *mux.Router {
	r := mux.NewRouter()

	r.Handle("/metrics", h.stats.Handler())
	r.HandleFunc("/ws", h.WebsocketHandler)
	r.HandleFunc("/api/state", h.StateHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/version", h.VersionHandler).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthHandler).Methods(http.MethodGet)

	return r
}

// StateHandler serves the current snapshot as one JSON document
func (h *Hub) StateHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(buildSnapshot(h.world))
}

func (h *Hub) VersionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"version": Version})
}

func (h *Hub) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"time":   h.world.Time(),
	})
}
