package group

import (
	"context"

	"github.com/ethereum-optimism/infra/op-casekit/types"
)

// State is the lifecycle position of a RunCase.
type State int

const (
	StateNotStarted State = iota
	StateStarted
	StateInitFailed
	StateInitOK
	StateExecuted
	StateFinalized
	StateSealed
)

// String provides a string representation of State
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateStarted:
		return "started"
	case StateInitFailed:
		return "init-failed"
	case StateInitOK:
		return "init-ok"
	case StateExecuted:
		return "executed"
	case StateFinalized:
		return "finalized"
	case StateSealed:
		return "sealed"
	default:
		return "unknown"
	}
}

var _ types.Runnable = (*RunCase[Fixture])(nil)

// RunCase is one executable case of a Test. A RunCase is meant to be run
// once; the harness creates a new one (by iterating again) to re-attempt a case.
type RunCase[F Fixture] struct {
	id      types.CaseID
	params  types.Params
	factory Factory[F]
	fn      TestFunc[F]
	rec     types.Recorder
	state   State
}

// ID returns the case identity: test name and public params.
func (c *RunCase[F]) ID() types.CaseID {
	return c.id
}

// Params returns a copy of the full parameter mapping, private keys
// included, or nil for an unparameterized case.
func (c *RunCase[F]) Params() types.Params {
	return c.params.Clone()
}

// State returns the current lifecycle state.
func (c *RunCase[F]) State() State {
	return c.state
}

// Run executes the case and returns its sealed result. Failures in any
// phase, panics included, are recorded on the result and never returned.
func (c *RunCase[F]) Run(ctx context.Context, debug bool) *types.CaseResult {
	caseLog, res := c.rec.Record(c.id.Test, c.id.Params)
	caseLog.Start(debug)
	c.state = StateStarted

	defer func() {
		caseLog.Seal()
		c.state = StateSealed
	}()

	fixture, ok := c.setUp(ctx, caseLog)
	if !ok {
		c.state = StateInitFailed
		return res
	}
	c.state = StateInitOK

	if err := protect(func() error { return c.fn(ctx, fixture) }); err != nil {
		recordErr(caseLog, types.PhaseTest, err)
	}
	c.state = StateExecuted

	if err := protect(func() error { return fixture.Finalize(ctx) }); err != nil {
		recordErr(caseLog, types.PhaseFinalize, err)
	}
	c.state = StateFinalized
	return res
}

// setUp constructs and initializes the fixture. It reports false when
// either step failed, in which case Finalize must not be called.
func (c *RunCase[F]) setUp(ctx context.Context, caseLog types.CaseLog) (F, bool) {
	var fixture F
	p := c.params.Clone()
	if p == nil {
		p = types.Params{}
	}
	err := protect(func() (err error) {
		fixture, err = c.factory(caseLog, p)
		return err
	})
	if err == nil {
		err = protect(func() error { return fixture.Init(ctx) })
	}
	if err != nil {
		recordErr(caseLog, types.PhaseInit, err)
		return fixture, false
	}
	return fixture, true
}

func recordErr(caseLog types.CaseLog, phase types.Phase, err error) {
	if reason, ok := types.SkipReason(err); ok && phase != types.PhaseFinalize {
		caseLog.Skip(reason)
		return
	}
	caseLog.RecordFailure(phase, err)
}
