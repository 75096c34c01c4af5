package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-casekit/types"
)

// memorySink collects results in memory.
type memorySink struct {
	results   []*types.CaseResult
	completed []string
	err       error
}

func (m *memorySink) Consume(res *types.CaseResult, runID string) error {
	m.results = append(m.results, res)
	return m.err
}

func (m *memorySink) Complete(runID string) error {
	m.completed = append(m.completed, runID)
	return m.err
}

// fakeClock advances by one second on every reading.
func fakeClock() func() time.Time {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func newRecorder(sinks ...ResultSink) *Recorder {
	return NewRecorder(Config{
		Log:   log.NewLogger(log.DiscardHandler()),
		RunID: "run-1",
		Sinks: sinks,
		Now:   fakeClock(),
	})
}

func TestRecordIdentity(t *testing.T) {
	rec := newRecorder().Scope("buffers")
	cl, res := rec.Record("map_read", types.Params{"size": 4})
	require.NotNil(t, cl)
	assert.Equal(t, "buffers", res.Group)
	assert.Equal(t, types.CaseID{Test: "map_read", Params: types.Params{"size": 4}}, res.ID)
	assert.Equal(t, "buffers:map_read:size=4", res.Name())
	assert.False(t, res.Sealed)
}

func TestStatusPrecedence(t *testing.T) {
	tests := []struct {
		name  string
		apply func(cl types.CaseLog)
		want  types.Status
	}{
		{"pass", func(cl types.CaseLog) {}, types.StatusPass},
		{"info only", func(cl types.CaseLog) { cl.Info("hello") }, types.StatusPass},
		{"warn", func(cl types.CaseLog) { cl.Warn("careful") }, types.StatusWarn},
		{"skip over warn", func(cl types.CaseLog) {
			cl.Warn("careful")
			cl.Skip("unsupported")
		}, types.StatusSkip},
		{"fail over skip", func(cl types.CaseLog) {
			cl.Skip("unsupported")
			cl.RecordFailure(types.PhaseFinalize, errors.New("leak"))
		}, types.StatusFail},
		{"fail over warn", func(cl types.CaseLog) {
			cl.Warn("careful")
			cl.RecordFailure(types.PhaseTest, errors.New("bad"))
		}, types.StatusFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl, res := newRecorder().Record("t", nil)
			cl.Start(false)
			tt.apply(cl)
			cl.Seal()
			assert.Equal(t, tt.want, res.Status)
			assert.True(t, res.Sealed)
		})
	}
}

func TestDebugRetention(t *testing.T) {
	for _, debug := range []bool{false, true} {
		cl, res := newRecorder().Record("t", nil)
		cl.Start(debug)
		cl.Debug("verbose", "k", 1)
		cl.Info("normal")
		cl.Seal()

		var levels []string
		for _, e := range res.Logs {
			levels = append(levels, e.Level)
		}
		if debug {
			assert.Equal(t, []string{"debug", "info"}, levels)
		} else {
			assert.Equal(t, []string{"info"}, levels)
		}
		assert.Equal(t, debug, res.Debug)
	}
}

func TestSkipReason(t *testing.T) {
	cl, res := newRecorder().Record("t", nil)
	cl.Start(false)
	cl.Skip("")
	cl.Skip("second")
	cl.Seal()
	assert.Equal(t, "no reason given", res.SkipReason)
}

func TestFailuresKeepOrder(t *testing.T) {
	cl, res := newRecorder().Record("t", nil)
	cl.Start(false)
	first := errors.New("first")
	cl.RecordFailure(types.PhaseTest, first)
	cl.RecordFailure(types.PhaseFinalize, errors.New("second"))
	cl.Seal()

	require.Len(t, res.Failures, 2)
	assert.Equal(t, types.PhaseTest, res.Failures[0].Phase)
	assert.Equal(t, types.PhaseFinalize, res.Failures[1].Phase)
	assert.Equal(t, first, res.Reason())
}

func TestSealOnce(t *testing.T) {
	sink := &memorySink{}
	cl, res := newRecorder(sink).Record("t", nil)
	cl.Start(false)
	cl.Seal()
	duration := res.Duration
	cl.Seal()

	assert.Equal(t, time.Second, duration)
	assert.Equal(t, duration, res.Duration)
	// Sealing does not publish.
	assert.Empty(t, sink.results)
}

func TestRecordCopiesPublicParams(t *testing.T) {
	public := types.Params{"a": 1, "seq": []int{1, 2}}
	_, res := newRecorder().Record("t", public)

	public["a"] = 2
	public["seq"].([]int)[0] = 9
	assert.Equal(t, types.Params{"a": 1, "seq": []int{1, 2}}, res.ID.Params)

	_, unparameterized := newRecorder().Record("t", nil)
	assert.Nil(t, unparameterized.ID.Params)
}

func TestSealWithoutStart(t *testing.T) {
	cl, res := newRecorder().Record("t", nil)
	cl.Seal()
	assert.Zero(t, res.Duration)
	assert.Equal(t, types.StatusPass, res.Status)
}

func TestEmitAndComplete(t *testing.T) {
	ok := &memorySink{}
	bad := &memorySink{err: errors.New("disk full")}
	rec := newRecorder(ok, bad)

	cl, res := rec.Record("t", nil)
	cl.Start(false)
	cl.Seal()
	rec.Emit(res)

	require.Len(t, ok.results, 1)
	assert.Same(t, res, ok.results[0])
	assert.Len(t, bad.results, 1)
	assert.EqualError(t, rec.Complete(), "disk full")
	assert.Equal(t, []string{"run-1"}, ok.completed)
	assert.Equal(t, []string{"run-1"}, bad.completed)
}

func TestLogger(t *testing.T) {
	cl, _ := newRecorder().Record("t", nil)
	assert.NotNil(t, cl.(*CaseLogger).Logger())
}
