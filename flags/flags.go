package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	opflags "github.com/ethereum-optimism/optimism/op-service/flags"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

const EnvVarPrefix = "OP_CASEKIT"

// MaxConcurrency bounds the concurrency flag.
const MaxConcurrency = 32

var (
	Plan = &cli.StringFlag{
		Name:    "plan",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PLAN"),
		Usage:   "Path to a run plan selecting groups and tests (eg. 'plan.yaml'). Runs every registered group if omitted.",
	}
	Concurrency = &cli.IntFlag{
		Name:    "concurrency",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONCURRENCY"),
		Usage:   fmt.Sprintf("Number of cases to run at once (0 or 1 runs serially, max %d)", MaxConcurrency),
		Action: func(_ *cli.Context, v int) error {
			return validateConcurrency(v)
		},
	}
	Timeout = &cli.DurationFlag{
		Name:    "timeout",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TIMEOUT"),
		Usage:   "Default per-case deadline (e.g. '30s'). 0 disables deadlines.",
	}
	Debug = &cli.BoolFlag{
		Name:    "debug",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "DEBUG"),
		Usage:   "Run cases in debug mode, retaining debug log entries on results",
	}
	Iterations = &cli.IntFlag{
		Name:    "iterations",
		Value:   1,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "ITERATIONS"),
		Usage:   "Number of times to run every selected case",
	}
	LogDir = &cli.StringFlag{
		Name:    "logdir",
		Value:   "logs",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LOGDIR"),
		Usage:   "Directory to store case results and failure logs",
	}
	HealthzAddr = &cli.StringFlag{
		Name:    "healthz-addr",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "HEALTHZ_ADDR"),
		Usage:   "Address to serve /healthz on while the run is active (e.g. '0.0.0.0:8080'). Disabled if empty.",
	}
	ShowCases = &cli.BoolFlag{
		Name:    "show-cases",
		Value:   true,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SHOW_CASES"),
		Usage:   "Show individual cases in the results table",
	}
)

var requiredFlags = []cli.Flag{}

var optionalFlags = []cli.Flag{
	Plan,
	Concurrency,
	Timeout,
	Debug,
	Iterations,
	LogDir,
	ShowCases,
	HealthzAddr,
}
var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

func validateConcurrency(v int) error {
	if v < 0 || v > MaxConcurrency {
		return fmt.Errorf("concurrency must be between 0 and %d, got %d", MaxConcurrency, v)
	}
	return nil
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return opflags.CheckRequiredXor(ctx)
}
