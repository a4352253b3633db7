package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/telhawk-systems/runbridge/internal/handlers"
)

// NewRouter constructs a ServeMux with the operational routes registered.
func NewRouter(h *handlers.Handler) http.Handler {
	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/readyz", h.Ready)

	// Sensor status
	mux.HandleFunc("/api/v1/status", h.Status)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return RequestID(mux)
}
