package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	casekit "github.com/ethereum-optimism/infra/op-casekit"
	"github.com/ethereum-optimism/infra/op-casekit/exitcodes"
	"github.com/ethereum-optimism/infra/op-casekit/flags"
	"github.com/ethereum-optimism/infra/op-casekit/registry"
	"github.com/ethereum-optimism/infra/op-casekit/suites/selftest"
	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "casekit"
	app.Usage = "Parameterized test case runner"
	app.Description = "casekit runs registered case groups through the fixture lifecycle and reports the results"
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Action = cliapp.LifecycleCmd(run)
	app.ExitErrHandler = func(c *cli.Context, err error) {
		if err == nil {
			return
		}
		// RuntimeError and TestFailureError carry their own exit codes.
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(cli.Exit(err.Error(), exitErr.ExitCode()))
			return
		}
		cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
	}

	// Start telemetry
	ctx, shutdown, err := telemetry.SetupOpenTelemetry(
		context.Background(),
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer shutdown()

	ctx = ctxinterrupt.WithSignalWaiterMain(ctx)
	err = app.RunContext(ctx, os.Args)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func run(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	logCfg := oplog.ReadCLIConfig(ctx)
	log := oplog.NewLogger(oplog.AppOut(ctx), logCfg)
	oplog.SetGlobalLogHandler(log.Handler())
	oplog.SetupDefaults()

	cfg, err := casekit.NewConfig(ctx, log)
	if err != nil {
		return nil, casekit.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}
	cfg.Log.Debug("Config", "config", cfg)

	reg := registry.NewRegistry(registry.Config{Log: log})
	if err := selftest.Register(reg); err != nil {
		return nil, casekit.NewRuntimeError(fmt.Errorf("failed to register groups: %w", err))
	}

	svc, err := casekit.New(cfg, reg, Version, closeApp)
	if err != nil {
		return nil, casekit.NewRuntimeError(fmt.Errorf("failed to create casekit: %w", err))
	}
	return svc, nil
}
