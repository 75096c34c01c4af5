package logging

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-casekit/types"
)

func TestNewFileSinkValidation(t *testing.T) {
	_, err := NewFileSink("", "run")
	require.Error(t, err)
	_, err = NewFileSink(t.TempDir(), "")
	require.Error(t, err)
}

func TestFileSink(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir, "abc")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "testrun-abc"), sink.LogDir())

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	passed := &types.CaseResult{
		Group:     "g",
		ID:        types.CaseID{Test: "ok"},
		Status:    types.StatusPass,
		StartTime: start,
		Duration:  1500 * time.Millisecond,
		Sealed:    true,
	}
	failed := &types.CaseResult{
		Group:  "g",
		ID:     types.CaseID{Test: "bad", Params: types.Params{"size": 4}},
		Status: types.StatusFail,
		Failures: []types.Failure{
			{Phase: types.PhaseTest, Err: errors.New("mismatch")},
			{Phase: types.PhaseFinalize, Err: errors.New("leak")},
		},
		Logs:      []types.LogEntry{{Time: start, Level: "info", Msg: "checking", Ctx: []any{"n", 1}}},
		StartTime: start,
		Sealed:    true,
	}
	require.NoError(t, sink.Consume(passed, "abc"))
	require.NoError(t, sink.Consume(failed, "abc"))
	require.NoError(t, sink.Complete("abc"))
	require.NoError(t, sink.Complete("abc"))

	f, err := os.Open(filepath.Join(sink.LogDir(), ResultsFilename))
	require.NoError(t, err)
	defer f.Close()

	var records []CaseRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec CaseRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, records, 2)

	assert.Equal(t, "g:ok", records[0].Case)
	assert.Equal(t, types.StatusPass, records[0].Status)
	assert.Equal(t, int64(1500), records[0].DurationMs)
	assert.Empty(t, records[0].Failures)

	assert.Equal(t, "bad", records[1].Test)
	assert.Equal(t, `g:bad:size=4`, records[1].Case)
	require.Len(t, records[1].Failures, 2)
	assert.Equal(t, FailureRecord{Phase: types.PhaseFinalize, Error: "leak"}, records[1].Failures[1])

	logPath := filepath.Join(sink.LogDir(), FailedDirName, "g_bad_size_4.log")
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "CASE: g:bad:size=4")
	assert.Contains(t, string(data), "FAILURE [test]: mismatch")
	assert.Contains(t, string(data), "FAILURE [finalize]: leak")
	assert.Contains(t, string(data), "INFO  checking n=1")

	entries, err := os.ReadDir(filepath.Join(sink.LogDir(), FailedDirName))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	assert.Error(t, sink.Consume(passed, "abc"))
}

func TestFileSinkTimedOut(t *testing.T) {
	sink, err := NewFileSink(t.TempDir(), "run-1")
	require.NoError(t, err)
	require.NoError(t, sink.Consume(&types.CaseResult{
		Group:    "g",
		ID:       types.CaseID{Test: "hang"},
		Status:   types.StatusFail,
		TimedOut: true,
		Duration: 30 * time.Millisecond,
		Sealed:   true,
	}, "run-1"))
	require.NoError(t, sink.Complete("run-1"))

	data, err := os.ReadFile(filepath.Join(sink.LogDir(), ResultsFilename))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"timed_out":true`)

	failedLog, err := os.ReadFile(filepath.Join(sink.LogDir(), FailedDirName, "g_hang.log"))
	require.NoError(t, err)
	assert.Contains(t, string(failedLog), "TIMED OUT after 30ms")
}

func TestFileSinkWithRecorder(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir, "run-1")
	require.NoError(t, err)
	rec := newRecorder(sink).Scope("g")

	for _, name := range []string{"a", "b"} {
		cl, res := rec.Record(name, nil)
		cl.Start(false)
		cl.Seal()
		rec.Emit(res)
	}
	require.NoError(t, rec.Complete())

	data, err := os.ReadFile(filepath.Join(dir, "testrun-run-1", ResultsFilename))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"case":"g:a"`)
	assert.Contains(t, string(data), `"case":"g:b"`)
}
