// Package service runs the auxiliary HTTP endpoints (healthz, metrics) for
// the duration of a casekit run.
package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum-optimism/infra/op-casekit/metrics"
	"github.com/ethereum/go-ethereum/log"
)

const shutdownTimeout = 5 * time.Second

// Config holds listen addresses. An empty address disables the server.
type Config struct {
	HealthzAddr string
	MetricsAddr string
}

type Service struct {
	cfg     Config
	Healthz *HealthzServer

	mu      sync.Mutex
	servers []*http.Server
}

func New(cfg Config) *Service {
	return &Service{
		cfg:     cfg,
		Healthz: NewHealthzServer(),
	}
}

// Start launches the configured servers in the background. Listen errors
// are logged and counted; they never stop the run.
func (s *Service) Start(ctx context.Context) {
	log.Info("service starting")
	if s.cfg.HealthzAddr != "" {
		s.serve(ctx, "healthz", s.cfg.HealthzAddr, s.Healthz.Handler())
	}
	if s.cfg.MetricsAddr != "" {
		s.serve(ctx, "metrics", s.cfg.MetricsAddr, MetricsHandler())
	}
	log.Info("service started")
}

func (s *Service) serve(ctx context.Context, name, addr string, handler http.Handler) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	s.servers = append(s.servers, srv)
	s.mu.Unlock()

	go func() {
		log.Info("starting server", "server", name, "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("error starting server", "server", name, "err", err)
			metrics.RecordErrorDetails("error starting "+name+" server", err)
		}
	}()
}

// SetStatus updates what /healthz reports.
func (s *Service) SetStatus(st HealthStatus) {
	s.Healthz.SetStatus(st)
}

func (s *Service) Shutdown() {
	log.Info("service shutting down")

	s.mu.Lock()
	servers := s.servers
	s.servers = nil
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn("error shutting down server", "addr", srv.Addr, "err", err)
		}
	}
	log.Info("service stopped")
}
