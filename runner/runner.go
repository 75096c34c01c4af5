package runner

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ethereum-optimism/infra/op-casekit/logging"
	"github.com/ethereum-optimism/infra/op-casekit/metrics"
	"github.com/ethereum-optimism/infra/op-casekit/registry"
	"github.com/ethereum-optimism/infra/op-casekit/types"
	"github.com/ethereum/go-ethereum/log"
)

// MaxReasonableConcurrency caps the number of cases run at once.
const MaxReasonableConcurrency = 32

// TestRunner defines the interface for running registered groups
type TestRunner interface {
	RunAllTests(ctx context.Context) (*RunnerResult, error)
}

// Config contains runner configuration
type Config struct {
	Registry    *registry.Registry
	Plan        *registry.Plan // Nil runs every registered group
	Log         log.Logger
	Concurrency int           // Cases run at once; 0 or 1 runs serially
	Timeout     time.Duration // Default per-case deadline; 0 disables it
	Debug       bool          // Retain debug log entries on results
	Iterations  int           // Times every selected case is run; defaults to 1
	LogDir      string        // If set, results are written under this directory
}

type runner struct {
	registry    *registry.Registry
	plan        *registry.Plan
	log         log.Logger
	concurrency int
	timeout     time.Duration
	debug       bool
	iterations  int
	logDir      string
	tracer      trace.Tracer
}

var _ TestRunner = (*runner)(nil)

// NewTestRunner creates a new test runner instance
func NewTestRunner(cfg Config) (TestRunner, error) {
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if cfg.Concurrency < 0 {
		return nil, fmt.Errorf("concurrency cannot be negative: %d", cfg.Concurrency)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout cannot be negative: %s", cfg.Timeout)
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	concurrency := max(cfg.Concurrency, 1)
	if concurrency > MaxReasonableConcurrency {
		cfg.Log.Warn("Capping concurrency", "requested", concurrency, "max", MaxReasonableConcurrency)
		concurrency = MaxReasonableConcurrency
	}

	return &runner{
		registry:    cfg.Registry,
		plan:        cfg.Plan,
		log:         cfg.Log,
		concurrency: concurrency,
		timeout:     cfg.Timeout,
		debug:       cfg.Debug,
		iterations:  max(cfg.Iterations, 1),
		logDir:      cfg.LogDir,
		tracer:      otel.Tracer("case runner"),
	}, nil
}

// RunAllTests runs every selected group. Case failures are reported in the
// result; the returned error is reserved for problems running the suite.
func (r *runner) RunAllTests(ctx context.Context) (*RunnerResult, error) {
	selections, err := r.registry.Select(r.plan)
	if err != nil {
		return nil, fmt.Errorf("selecting groups: %w", err)
	}
	if len(selections) == 0 {
		return nil, errors.New("no groups selected")
	}

	start := time.Now()
	runID := uuid.New().String()
	r.log.Info("Starting run", "run_id", runID, "groups", len(selections), "concurrency", r.concurrency)

	var sinks []logging.ResultSink
	if r.logDir != "" {
		sink, err := logging.NewFileSink(r.logDir, runID)
		if err != nil {
			return nil, fmt.Errorf("creating result sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	rec := logging.NewRecorder(logging.Config{
		Log:   r.log,
		RunID: runID,
		Sinks: sinks,
	})

	result := &RunnerResult{
		RunID: runID,
		Stats: ResultStats{StartTime: start},
	}
	for _, sel := range selections {
		if err := ctx.Err(); err != nil {
			break
		}
		gr := r.runGroup(ctx, rec.Scope(sel.Name()), sel)
		result.Groups = append(result.Groups, gr)
		for _, c := range gr.Cases {
			result.Stats.add(c)
		}
	}
	if err := rec.Complete(); err != nil {
		r.log.Error("Failed to complete result sinks", "err", err)
		metrics.RecordErrorDetails("sink_complete", err)
	}

	result.Duration = time.Since(start)
	result.Stats.EndTime = time.Now()
	result.Status = result.Stats.Status()
	metrics.RecordRun(runID, result.Status, result.Stats.Counts(), result.Duration)
	r.log.Info("Run finished", "run_id", runID, "status", result.Status, "cases", result.Stats.Total, "duration", result.Duration)

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("run interrupted: %w", context.Cause(ctx))
	}
	return result, nil
}

func (r *runner) runGroup(ctx context.Context, rec *logging.Recorder, sel registry.Selection) *GroupResult {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("group %s", sel.Name()))
	defer span.End()

	start := time.Now()
	gr := &GroupResult{
		Name:  sel.Name(),
		Stats: ResultStats{StartTime: start},
	}
	timeout := r.timeout
	if sel.Timeout > 0 {
		timeout = sel.Timeout
	}

	for i := range r.iterations {
		// Every iteration draws fresh cases from the group.
		cases := slices.Collect(sel.Cases(rec))
		r.log.Debug("Running group", "group", sel.Name(), "cases", len(cases), "iteration", i+1)

		results := make([]*types.CaseResult, len(cases))
		var g errgroup.Group
		g.SetLimit(r.concurrency)
		for j, c := range cases {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				results[j] = r.runCase(ctx, rec, sel.Name(), c, timeout)
				return nil
			})
		}
		_ = g.Wait()

		for _, res := range results {
			if res != nil {
				gr.add(res)
			}
		}
	}

	gr.Duration = time.Since(start)
	gr.Stats.EndTime = time.Now()
	gr.Status = gr.Stats.Status()
	span.SetAttributes(attribute.String("status", string(gr.Status)), attribute.Int("cases", gr.Stats.Total))
	if gr.Status == types.StatusFail {
		span.SetStatus(codes.Error, "group failed")
	}
	return gr
}

// runCase runs one case and publishes the result it settles on, timed out
// or not, to the recorder's sinks.
func (r *runner) runCase(ctx context.Context, rec *logging.Recorder, group string, c types.Runnable, timeout time.Duration) *types.CaseResult {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("case %s", c.ID()))
	defer span.End()

	res := r.runWithDeadline(ctx, group, c, timeout)
	rec.Emit(res)
	metrics.RecordCase(res)
	span.SetAttributes(attribute.String("status", string(res.Status)), attribute.Bool("timed_out", res.TimedOut))
	if res.Status == types.StatusFail {
		span.SetStatus(codes.Error, "case failed")
	}
	return res
}

// runWithDeadline races the case against its deadline. On expiry it returns
// a timed-out result without waiting; the case sees a cancelled context and
// its own result is discarded.
// When the parent context is cancelled instead, it waits for the case so
// that teardown completes.
func (r *runner) runWithDeadline(ctx context.Context, group string, c types.Runnable, timeout time.Duration) *types.CaseResult {
	if timeout <= 0 {
		return c.Run(ctx, r.debug)
	}

	start := time.Now()
	caseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan *types.CaseResult, 1)
	go func() {
		done <- c.Run(caseCtx, r.debug)
	}()

	select {
	case res := <-done:
		return res
	case <-caseCtx.Done():
		if ctx.Err() != nil {
			return <-done
		}
		r.log.Warn("Case timed out", "group", group, "case", c.ID().String(), "timeout", timeout)
		return &types.CaseResult{
			Group:     group,
			ID:        c.ID(),
			Status:    types.StatusFail,
			TimedOut:  true,
			StartTime: start,
			Duration:  time.Since(start),
			Sealed:    true,
		}
	}
}
