// Package handlers serves the operational HTTP endpoints of runbridge.
package handlers

import (
	"net/http"

	"github.com/telhawk-systems/runbridge/internal/messaging"
	"github.com/telhawk-systems/runbridge/internal/runner"
)

// StatusProvider reports the tick history of a sensor runner.
type StatusProvider interface {
	Status() runner.Status
}

// Handler serves health, readiness and status endpoints.
type Handler struct {
	status    StatusProvider
	publisher messaging.Publisher
}

// NewHandler creates a handler. publisher may be nil when NATS is disabled.
func NewHandler(status StatusProvider, publisher messaging.Publisher) *Handler {
	return &Handler{status: status, publisher: publisher}
}

// Health reports that the process is up.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether the latest tick succeeded and the broker is reachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	status := h.status.Status()
	if !status.Healthy() {
		reason := "no tick completed yet"
		if status.LastError != "" {
			reason = status.LastError
		}
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "reason": reason})
		return
	}

	if h.publisher != nil {
		if health := messaging.CheckPublisherHealth(h.publisher); !health.Connected {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "reason": health.Error})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Status returns the runner's tick history.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.status.Status())
}
