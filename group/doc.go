// Package group implements test registration and the per-case lifecycle.
//
// A Group binds a fixture type to an ordered set of named Tests. Each Test
// is either unparameterized (one case) or carries a frozen list of parameter
// mappings (one case per mapping). Iterating a Group lazily yields fresh
// RunCase values in registration order; iterating twice yields the same
// identities in the same order.
//
// Running a case follows a fixed protocol:
//
//	construct + Init -> test function -> Finalize -> seal
//
// Finalize runs if and only if Init succeeded, whatever the test function
// did. Errors and panics from any phase are recorded on the case log with
// the phase they came from; Run itself never fails.
//
// Registration errors are returned synchronously and are meant to abort
// suite construction:
//
//	g := group.New("webgpu:buffers", newBufferFixture)
//	t, err := g.Test("map_read", testMapRead)
//	if err != nil {
//	    return err
//	}
//	err = t.Params(params.New().Combine("size", 4, 16, 64).Iter())
package group
