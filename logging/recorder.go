// Package logging records case lifecycles: the per-case log handle handed to
// fixtures, status computation at seal time, and result sinks.
package logging

import (
	"sync"
	"time"

	"github.com/ethereum-optimism/infra/op-casekit/types"
	"github.com/ethereum/go-ethereum/log"
)

var _ types.Recorder = (*Recorder)(nil)

// ResultSink is an interface for different ways of consuming case results
type ResultSink interface {
	// Consume processes a single sealed case result
	Consume(result *types.CaseResult, runID string) error
	// Complete is called when all results have been consumed
	Complete(runID string) error
}

// Config contains recorder configuration
type Config struct {
	Log   log.Logger
	RunID string
	Sinks []ResultSink
	Now   func() time.Time // Defaults to time.Now
}

// Recorder opens a CaseLogger per executed case and publishes results to
// its sinks. Sealing a case does not publish it; the harness calls Emit with
// the result it settles on, so a case abandoned after a timeout never
// reaches the sinks. It is safe for concurrent use.
type Recorder struct {
	group string
	log   log.Logger
	runID string
	sinks []ResultSink
	now   func() time.Time
}

// NewRecorder creates a recorder for one run.
func NewRecorder(cfg Config) *Recorder {
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Recorder{
		log:   cfg.Log,
		runID: cfg.RunID,
		sinks: cfg.Sinks,
		now:   cfg.Now,
	}
}

// Scope returns a recorder that tags its results with the given group name.
func (r *Recorder) Scope(group string) *Recorder {
	scoped := *r
	scoped.group = group
	scoped.log = r.log.New("group", group)
	return &scoped
}

// Record implements types.Recorder. The result keeps its own copy of public.
func (r *Recorder) Record(test string, public types.Params) (types.CaseLog, *types.CaseResult) {
	res := &types.CaseResult{
		Group: r.group,
		ID:    types.CaseID{Test: test, Params: public.Clone()},
	}
	cl := &CaseLogger{
		log:    r.log.New("case", res.ID.String()),
		result: res,
		now:    r.now,
	}
	return cl, res
}

// Emit hands a settled result to every sink. Sink errors are logged.
func (r *Recorder) Emit(res *types.CaseResult) {
	for _, sink := range r.sinks {
		if err := sink.Consume(res, r.runID); err != nil {
			r.log.Error("Failed to consume case result", "case", res.Name(), "err", err)
		}
	}
}

// Complete notifies every sink that the run has finished.
func (r *Recorder) Complete() error {
	var firstErr error
	for _, sink := range r.sinks {
		if err := sink.Complete(r.runID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ types.CaseLog = (*CaseLogger)(nil)

// CaseLogger is the log handle of a single case. Entries are forwarded to
// the structured logger and retained on the result; debug entries are only
// retained when the case was started with debug enabled.
type CaseLogger struct {
	mu     sync.Mutex
	log    log.Logger
	result *types.CaseResult
	now    func() time.Time
	sealed bool
}

// Logger returns the structured logger scoped to this case.
func (c *CaseLogger) Logger() log.Logger {
	return c.log
}

// Start implements types.CaseLog.
func (c *CaseLogger) Start(debug bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result.Debug = debug
	c.result.StartTime = c.now()
	c.log.Debug("Case started", "debug", debug)
}

// Debug implements types.CaseLog.
func (c *CaseLogger) Debug(msg string, ctx ...any) {
	c.log.Debug(msg, ctx...)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result.Debug {
		c.retain("debug", msg, ctx)
	}
}

// Info implements types.CaseLog.
func (c *CaseLogger) Info(msg string, ctx ...any) {
	c.log.Info(msg, ctx...)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retain("info", msg, ctx)
}

// Warn implements types.CaseLog.
func (c *CaseLogger) Warn(msg string, ctx ...any) {
	c.log.Warn(msg, ctx...)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result.Warnings++
	c.retain("warn", msg, ctx)
}

// Skip implements types.CaseLog. The first reason wins.
func (c *CaseLogger) Skip(reason string) {
	if reason == "" {
		reason = "no reason given"
	}
	c.log.Info("Case skipped", "reason", reason)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result.SkipReason == "" {
		c.result.SkipReason = reason
	}
	c.retain("skip", reason, nil)
}

// RecordFailure implements types.CaseLog.
func (c *CaseLogger) RecordFailure(phase types.Phase, err error) {
	c.log.Error("Case failed", "phase", phase, "err", err)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result.Failures = append(c.result.Failures, types.Failure{Phase: phase, Err: err})
	c.retain("error", err.Error(), []any{"phase", phase})
}

// Seal implements types.CaseLog. Calls after the first are ignored.
func (c *CaseLogger) Seal() {
	c.mu.Lock()
	if c.sealed {
		c.mu.Unlock()
		return
	}
	c.sealed = true
	res := c.result
	if !res.StartTime.IsZero() {
		res.Duration = c.now().Sub(res.StartTime)
	}
	res.Status = statusOf(res)
	res.Sealed = true
	c.mu.Unlock()

	c.log.Debug("Case sealed", "status", res.Status, "duration", res.Duration)
}

func (c *CaseLogger) retain(level, msg string, ctx []any) {
	c.result.Logs = append(c.result.Logs, types.LogEntry{
		Time:  c.now(),
		Level: level,
		Msg:   msg,
		Ctx:   ctx,
	})
}

// statusOf applies the precedence fail > skip > warn > pass.
func statusOf(res *types.CaseResult) types.Status {
	switch {
	case len(res.Failures) > 0:
		return types.StatusFail
	case res.SkipReason != "":
		return types.StatusSkip
	case res.Warnings > 0:
		return types.StatusWarn
	default:
		return types.StatusPass
	}
}
