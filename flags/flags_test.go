package flags

import (
	"strings"
	"testing"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// TestOptionalFlagsDontSetRequired asserts that all flags deemed optional set
// the Required field to false.
func TestOptionalFlagsDontSetRequired(t *testing.T) {
	for _, flag := range optionalFlags {
		reqFlag, ok := flag.(cli.RequiredFlag)
		require.True(t, ok)
		require.False(t, reqFlag.IsRequired())
	}
}

// TestUniqueFlags asserts that all flag names are unique, to avoid accidental conflicts between the many flags.
func TestUniqueFlags(t *testing.T) {
	seenCLI := make(map[string]struct{})
	for _, flag := range Flags {
		name := flag.Names()[0]
		if _, ok := seenCLI[name]; ok {
			t.Errorf("duplicate flag %s", name)
			continue
		}
		seenCLI[name] = struct{}{}
	}
}

func TestEnvVarFormat(t *testing.T) {
	for _, flag := range Flags {
		flagName := flag.Names()[0]

		t.Run(flagName, func(t *testing.T) {
			envFlagGetter, ok := flag.(interface {
				GetEnvVars() []string
			})
			require.True(t, ok, "must be able to cast the flag to an EnvVar interface")
			envFlags := envFlagGetter.GetEnvVars()
			require.Equal(t, 1, len(envFlags), "flags should have exactly one env var")
			require.True(t, strings.HasPrefix(envFlags[0], EnvVarPrefix+"_"))
		})
	}
}

func TestOwnFlagEnvVarNames(t *testing.T) {
	for _, flag := range []cli.Flag{Plan, Concurrency, Timeout, Debug, Iterations, LogDir, ShowCases, HealthzAddr} {
		flagName := flag.Names()[0]
		envFlags := flag.(interface{ GetEnvVars() []string }).GetEnvVars()
		assert.Equal(t, opservice.FlagNameToEnvVarName(flagName, EnvVarPrefix), envFlags[0])
	}
}

func TestConcurrencyValidation(t *testing.T) {
	app := &cli.App{
		Flags: []cli.Flag{Concurrency},
		Action: func(ctx *cli.Context) error {
			return nil
		},
	}

	testCases := []struct {
		name        string
		args        []string
		shouldError bool
	}{
		{"serial", []string{"app", "--concurrency", "0"}, false},
		{"bounded", []string{"app", "--concurrency", "8"}, false},
		{"at max", []string{"app", "--concurrency", "32"}, false},
		{"negative", []string{"app", "--concurrency", "-1"}, true},
		{"above max", []string{"app", "--concurrency", "33"}, true},
		{"no flag uses default", []string{"app"}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := app.Run(tc.args)
			if tc.shouldError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPlanFlag(t *testing.T) {
	app := &cli.App{
		Flags: []cli.Flag{Plan},
		Action: func(ctx *cli.Context) error {
			assert.Equal(t, "plan.yaml", ctx.String(Plan.Name))
			return nil
		},
	}
	require.NoError(t, app.Run([]string{"app", "--plan", "plan.yaml"}))
}
