package service

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/log"
	"github.com/rs/cors"
)

// Run phases reported by /healthz.
const (
	PhaseStarting = "starting"
	PhaseRunning  = "running"
	PhaseDone     = "done"
)

// HealthStatus is the /healthz response body.
type HealthStatus struct {
	Phase string `json:"phase"`
	RunID string `json:"run_id,omitempty"`
}

// HealthzServer answers liveness probes with the current run phase.
type HealthzServer struct {
	status atomic.Pointer[HealthStatus]
}

// NewHealthzServer returns a server reporting PhaseStarting.
func NewHealthzServer() *HealthzServer {
	h := &HealthzServer{}
	h.SetStatus(HealthStatus{Phase: PhaseStarting})
	return h
}

// SetStatus replaces the reported status.
func (h *HealthzServer) SetStatus(s HealthStatus) {
	h.status.Store(&s)
}

// Status returns the reported status.
func (h *HealthzServer) Status() HealthStatus {
	if s := h.status.Load(); s != nil {
		return *s
	}
	return HealthStatus{Phase: PhaseStarting}
}

// Handler returns the CORS-wrapped /healthz mux.
func (h *HealthzServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.Handle)
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	})
	return c.Handler(mux)
}

func (h *HealthzServer) Handle(w http.ResponseWriter, r *http.Request) {
	log.Debug("Received health check request", "path", r.URL.Path)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.Status()); err != nil {
		log.Warn("Failed to write health status", "err", err)
	}
}
