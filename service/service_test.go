package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum-optimism/infra/op-casekit/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthzHandle(t *testing.T) {
	h := NewHealthzServer()
	get := func() HealthStatus {
		rec := httptest.NewRecorder()
		h.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		var st HealthStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
		return st
	}

	assert.Equal(t, HealthStatus{Phase: PhaseStarting}, get())
	h.SetStatus(HealthStatus{Phase: PhaseRunning})
	assert.Equal(t, PhaseRunning, get().Phase)
	h.SetStatus(HealthStatus{Phase: PhaseDone, RunID: "run-1"})
	assert.Equal(t, HealthStatus{Phase: PhaseDone, RunID: "run-1"}, get())
}

func TestHealthzCORS(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	NewHealthzServer().Handler().ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsHandler(t *testing.T) {
	metrics.RecordError("service_test")
	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "casekit_errors_total")
}

func TestShutdownWithoutServers(t *testing.T) {
	svc := New(Config{})
	svc.Start(context.Background())
	svc.SetStatus(HealthStatus{Phase: PhaseRunning})
	assert.Equal(t, PhaseRunning, svc.Healthz.Status().Phase)
	require.NotPanics(t, svc.Shutdown)
}

func TestStartAndShutdown(t *testing.T) {
	svc := New(Config{HealthzAddr: "127.0.0.1:0", MetricsAddr: "127.0.0.1:0"})
	svc.Start(context.Background())
	require.Len(t, svc.servers, 2)
	svc.Shutdown()
	assert.Empty(t, svc.servers)
}
