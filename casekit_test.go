package casekit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-casekit/logging"
	"github.com/ethereum-optimism/infra/op-casekit/registry"
	"github.com/ethereum-optimism/infra/op-casekit/runner"
	"github.com/ethereum-optimism/infra/op-casekit/service"
	"github.com/ethereum-optimism/infra/op-casekit/suites/selftest"
	"github.com/ethereum-optimism/infra/op-casekit/types"
)

type mockRunner struct {
	mock.Mock
}

// RunAllTests implements the runner.TestRunner interface
func (m *mockRunner) RunAllTests(ctx context.Context) (*runner.RunnerResult, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*runner.RunnerResult)
	return res, args.Error(1)
}

func testLogger() log.Logger {
	return log.NewLogger(log.DiscardHandler())
}

func setupTest(t *testing.T, r runner.TestRunner) (*CaseKit, chan error) {
	t.Helper()
	shutdown := make(chan error, 1)
	return &CaseKit{
		config:   &Config{Log: testLogger()},
		version:  "test",
		registry: registry.NewRegistry(registry.Config{Log: testLogger()}),
		runner:   r,
		service:  service.New(service.Config{}),
		shutdownCallback: func(err error) {
			shutdown <- err
		},
	}, shutdown
}

func TestNewValidation(t *testing.T) {
	reg := registry.NewRegistry(registry.Config{Log: testLogger()})
	_, err := New(nil, reg, "v", nil)
	require.Error(t, err)
	_, err = New(&Config{Log: testLogger()}, nil, "v", nil)
	require.Error(t, err)

	_, err = New(&Config{Log: testLogger(), PlanFile: filepath.Join(t.TempDir(), "missing.yaml")}, reg, "v", nil)
	require.ErrorContains(t, err, "failed to load plan")
}

func TestStartPassingRun(t *testing.T) {
	m := &mockRunner{}
	m.On("RunAllTests", mock.Anything).Return(&runner.RunnerResult{
		RunID:  "run-1",
		Status: types.StatusPass,
	}, nil)
	ck, shutdown := setupTest(t, m)

	require.NoError(t, ck.Start(context.Background()))
	assert.False(t, ck.Stopped())
	select {
	case err := <-shutdown:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("shutdown callback was not called")
	}
	assert.Equal(t, "run-1", ck.Result().RunID)
	assert.Equal(t, service.HealthStatus{Phase: service.PhaseDone, RunID: "run-1"}, ck.service.Healthz.Status())

	require.NoError(t, ck.Stop(context.Background()))
	assert.True(t, ck.Stopped())
	require.NoError(t, ck.Stop(context.Background()))
	m.AssertExpectations(t)
}

func TestStartFailingRun(t *testing.T) {
	m := &mockRunner{}
	m.On("RunAllTests", mock.Anything).Return(&runner.RunnerResult{
		RunID:  "run-2",
		Status: types.StatusFail,
	}, nil)
	ck, shutdown := setupTest(t, m)

	err := ck.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsTestFailureError(err))
	assert.False(t, IsRuntimeError(err))
	assert.Empty(t, shutdown)
}

func TestStartRuntimeError(t *testing.T) {
	m := &mockRunner{}
	m.On("RunAllTests", mock.Anything).Return(nil, errors.New("no groups selected"))
	ck, _ := setupTest(t, m)

	err := ck.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsRuntimeError(err))
	assert.Nil(t, ck.Result())
}

func TestSelfTestRun(t *testing.T) {
	reg := registry.NewRegistry(registry.Config{Log: testLogger()})
	require.NoError(t, selftest.Register(reg))

	logDir := t.TempDir()
	ck, err := New(&Config{
		Log:         testLogger(),
		Concurrency: 4,
		Iterations:  1,
		LogDir:      logDir,
		ShowCases:   true,
	}, reg, "test", nil)
	require.NoError(t, err)

	require.NoError(t, ck.Start(context.Background()))
	defer func() {
		require.NoError(t, ck.Stop(context.Background()))
	}()

	result := ck.Result()
	require.NotNil(t, result)
	assert.Equal(t, 0, result.Stats.Failed)
	assert.Positive(t, result.Stats.Skipped)
	assert.Positive(t, result.Stats.Warned)

	runDir := filepath.Join(logDir, logging.RunDirectoryPrefix+result.RunID)
	summary, err := os.ReadFile(filepath.Join(runDir, SummaryFilename))
	require.NoError(t, err)
	assert.Contains(t, string(summary), selftest.ArithGroup)
	assert.NotContains(t, string(summary), "\x1b[")
	assert.FileExists(t, filepath.Join(runDir, logging.ResultsFilename))
}

func TestSelfTestPlan(t *testing.T) {
	reg := registry.NewRegistry(registry.Config{Log: testLogger()})
	require.NoError(t, selftest.Register(reg))

	planPath := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(planPath, []byte("groups:\n  - name: "+selftest.LifecycleGroup+"\n"), 0644))

	ck, err := New(&Config{Log: testLogger(), PlanFile: planPath, Iterations: 1}, reg, "test", nil)
	require.NoError(t, err)
	require.NoError(t, ck.Start(context.Background()))

	result := ck.Result()
	require.Len(t, result.Groups, 1)
	assert.Equal(t, selftest.LifecycleGroup, result.Groups[0].Name)
	assert.Equal(t, types.StatusPass, result.Status)
}
