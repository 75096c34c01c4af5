// Package casekit wires a registry of case groups to the runner and
// reporting as a cliapp.Lifecycle service.
package casekit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/ethereum-optimism/infra/op-casekit/logging"
	"github.com/ethereum-optimism/infra/op-casekit/registry"
	"github.com/ethereum-optimism/infra/op-casekit/reporting"
	"github.com/ethereum-optimism/infra/op-casekit/runner"
	"github.com/ethereum-optimism/infra/op-casekit/service"
	"github.com/ethereum-optimism/infra/op-casekit/types"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
)

// SummaryFilename is the plain-text results table written to the run directory.
const SummaryFilename = "summary.txt"

// casekit implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = (*CaseKit)(nil)

// CaseKit runs every selected case once and reports the results.
type CaseKit struct {
	config   *Config
	version  string
	registry *registry.Registry
	runner   runner.TestRunner
	service  *service.Service
	result   *runner.RunnerResult

	running atomic.Bool

	shutdownCallback func(error) // Callback to signal application shutdown
}

// New creates the service. The registry is owned by the caller and must be
// fully populated before Start.
func New(config *Config, reg *registry.Registry, version string, shutdownCallback func(error)) (*CaseKit, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if reg == nil {
		return nil, errors.New("registry is required")
	}

	config.Log.Debug("Creating casekit with config",
		"plan", config.PlanFile,
		"concurrency", config.Concurrency,
		"timeout", config.Timeout,
		"iterations", config.Iterations)

	var plan *registry.Plan
	if config.PlanFile != "" {
		var err error
		plan, err = registry.LoadPlan(config.PlanFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load plan: %w", err)
		}
	}

	testRunner, err := runner.NewTestRunner(runner.Config{
		Registry:    reg,
		Plan:        plan,
		Log:         config.Log,
		Concurrency: config.Concurrency,
		Timeout:     config.Timeout,
		Debug:       config.Debug,
		Iterations:  config.Iterations,
		LogDir:      config.LogDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create test runner: %w", err)
	}

	if shutdownCallback == nil {
		shutdownCallback = func(error) {}
	}
	return &CaseKit{
		config:   config,
		version:  version,
		registry: reg,
		runner:   testRunner,
		service: service.New(service.Config{
			HealthzAddr: config.HealthzAddr,
			MetricsAddr: config.MetricsAddr,
		}),
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start runs the selected cases once.
// Start implements the cliapp.Lifecycle interface.
func (c *CaseKit) Start(ctx context.Context) error {
	c.running.Store(true)
	c.service.Start(ctx)
	c.service.SetStatus(service.HealthStatus{Phase: service.PhaseRunning})
	c.config.Log.Info("Starting casekit", "version", c.version, "groups", len(c.registry.Names()))

	result, err := c.runner.RunAllTests(ctx)
	if result != nil {
		c.service.SetStatus(service.HealthStatus{Phase: service.PhaseDone, RunID: result.RunID})
	}
	if err != nil {
		c.config.Log.Error("Runtime error running cases", "error", err)
		return NewRuntimeError(err)
	}
	c.result = result

	if err := c.report(result); err != nil {
		c.config.Log.Error("Failed to report results", "error", err)
	}
	c.config.Log.Info("Run completed", "run_id", result.RunID, "status", result.Status)

	if result.Status == types.StatusFail {
		c.config.Log.Warn("Run completed with failures, returning exit code 1")
		return NewTestFailureError(result)
	}

	go func() {
		c.shutdownCallback(nil)
	}()
	return nil
}

func (c *CaseKit) report(result *runner.RunnerResult) error {
	formatter := reporting.NewTableFormatter("Case Results", c.config.ShowCases)
	rendered, err := formatter.Format(result)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, rendered)
	fmt.Fprintln(os.Stdout, result.String())

	if c.config.LogDir == "" {
		return nil
	}
	runDir := filepath.Join(c.config.LogDir, logging.RunDirectoryPrefix+result.RunID)
	return reporting.WriteTextSummary(filepath.Join(runDir, SummaryFilename), rendered)
}

// Result returns the result of the last run, or nil.
func (c *CaseKit) Result() *runner.RunnerResult {
	return c.result
}

// Stop stops the casekit service.
// Stop implements the cliapp.Lifecycle interface.
func (c *CaseKit) Stop(ctx context.Context) error {
	if !c.running.Swap(false) {
		c.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}
	c.service.Shutdown()
	c.config.Log.Info("casekit stopped")
	return nil
}

// Stopped returns true if the casekit service is stopped.
// Stopped implements the cliapp.Lifecycle interface.
func (c *CaseKit) Stopped() bool {
	return !c.running.Load()
}
