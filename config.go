package casekit

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/op-casekit/flags"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
	"github.com/ethereum/go-ethereum/log"
)

// Config holds the application configuration
type Config struct {
	PlanFile    string        // Optional run plan; empty runs every registered group
	Concurrency int           // Cases run at once (0 or 1 = serial)
	Timeout     time.Duration // Default per-case deadline, 0 = none
	Debug       bool          // Run cases with debug logging retained
	Iterations  int           // Times every selected case is run
	LogDir      string        // Directory to store results; empty disables file output
	ShowCases   bool          // Show individual cases in the results table
	HealthzAddr string        // Address for /healthz, empty = disabled
	MetricsAddr string        // Address for /metrics, empty = disabled
	Log         log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	var planFile string
	if p := ctx.String(flags.Plan.Name); p != "" {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for plan '%s': %w", p, err)
		}
		planFile = abs
	}

	var logDir string
	if d := ctx.String(flags.LogDir.Name); d != "" {
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for log directory '%s': %w", d, err)
		}
		logDir = abs
	}

	iterations := ctx.Int(flags.Iterations.Name)
	if iterations < 1 {
		return nil, fmt.Errorf("iterations must be at least 1, got %d", iterations)
	}

	var metricsAddr string
	if metricsCfg := opmetrics.ReadCLIConfig(ctx); metricsCfg.Enabled {
		metricsAddr = net.JoinHostPort(metricsCfg.ListenAddr, strconv.Itoa(metricsCfg.ListenPort))
	}

	return &Config{
		PlanFile:    planFile,
		Concurrency: ctx.Int(flags.Concurrency.Name),
		Timeout:     ctx.Duration(flags.Timeout.Name),
		Debug:       ctx.Bool(flags.Debug.Name),
		Iterations:  iterations,
		LogDir:      logDir,
		ShowCases:   ctx.Bool(flags.ShowCases.Name),
		HealthzAddr: ctx.String(flags.HealthzAddr.Name),
		MetricsAddr: metricsAddr,
		Log:         log,
	}, nil
}
