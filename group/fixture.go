package group

import (
	"context"

	"github.com/ethereum-optimism/infra/op-casekit/types"
)

// Fixture is the per-case setup/teardown contract. A fixture instance is
// created for exactly one case run and never reused.
type Fixture interface {
	// Init acquires whatever the case needs. If it fails, Finalize is not called.
	Init(ctx context.Context) error
	// Finalize releases what Init acquired. It is called exactly once after a
	// successful Init, whether or not the test function failed.
	Finalize(ctx context.Context) error
}

// Factory constructs a fixture from the case log and the case's full
// parameter mapping (empty for unparameterized tests).
type Factory[F Fixture] func(caseLog types.CaseLog, p types.Params) (F, error)

// TestFunc is the body of a test, run against an initialized fixture.
type TestFunc[F Fixture] func(ctx context.Context, f F) error
