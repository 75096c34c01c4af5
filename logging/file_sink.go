package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/ethereum-optimism/infra/op-casekit/types"
)

const (
	RunDirectoryPrefix = "testrun-" // Standardized prefix for run directories
	ResultsFilename    = "results.jsonl"
	FailedDirName      = "failed"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

var _ ResultSink = (*FileSink)(nil)

// FileSink writes one JSON line per sealed case to
// <baseDir>/testrun-<runID>/results.jsonl, plus a log file per failed case
// under failed/.
type FileSink struct {
	mu        sync.Mutex
	logDir    string
	failedDir string
	file      *os.File
	enc       *json.Encoder
}

// NewFileSink creates the run directory and opens the results file.
func NewFileSink(baseDir, runID string) (*FileSink, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("baseDir cannot be empty")
	}
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}

	logDir := filepath.Join(baseDir, RunDirectoryPrefix+runID)
	failedDir := filepath.Join(logDir, FailedDirName)
	if err := os.MkdirAll(failedDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", failedDir, err)
	}

	f, err := os.Create(filepath.Join(logDir, ResultsFilename))
	if err != nil {
		return nil, fmt.Errorf("failed to create results file: %w", err)
	}
	return &FileSink{
		logDir:    logDir,
		failedDir: failedDir,
		file:      f,
		enc:       json.NewEncoder(f),
	}, nil
}

// LogDir returns the run directory.
func (s *FileSink) LogDir() string {
	return s.logDir
}

// CaseRecord is the serialized form of a case result.
type CaseRecord struct {
	RunID      string          `json:"run_id"`
	Group      string          `json:"group,omitempty"`
	Test       string          `json:"test"`
	Case       string          `json:"case"`
	Params     map[string]any  `json:"params,omitempty"`
	Status     types.Status    `json:"status"`
	Failures   []FailureRecord `json:"failures,omitempty"`
	SkipReason string          `json:"skip_reason,omitempty"`
	Warnings   int             `json:"warnings,omitempty"`
	StartTime  time.Time       `json:"start_time"`
	DurationMs int64           `json:"duration_ms"`
	TimedOut   bool            `json:"timed_out,omitempty"`
}

// FailureRecord is the serialized form of a types.Failure.
type FailureRecord struct {
	Phase types.Phase `json:"phase"`
	Error string      `json:"error"`
}

// NewCaseRecord converts a result into its serialized form.
func NewCaseRecord(res *types.CaseResult, runID string) CaseRecord {
	rec := CaseRecord{
		RunID:      runID,
		Group:      res.Group,
		Test:       res.ID.Test,
		Case:       res.Name(),
		Params:     res.ID.Params,
		Status:     res.Status,
		SkipReason: res.SkipReason,
		Warnings:   res.Warnings,
		StartTime:  res.StartTime,
		DurationMs: res.Duration.Milliseconds(),
		TimedOut:   res.TimedOut,
	}
	for _, f := range res.Failures {
		rec.Failures = append(rec.Failures, FailureRecord{Phase: f.Phase, Error: f.Err.Error()})
	}
	return rec
}

// Consume implements ResultSink.
func (s *FileSink) Consume(res *types.CaseResult, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return fmt.Errorf("file sink is closed")
	}
	if err := s.enc.Encode(NewCaseRecord(res, runID)); err != nil {
		return fmt.Errorf("failed to write result for %s: %w", res.Name(), err)
	}
	if res.Status == types.StatusFail {
		return s.writeFailedLog(res)
	}
	return nil
}

func (s *FileSink) writeFailedLog(res *types.CaseResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "CASE: %s\n", res.Name())
	if res.TimedOut {
		fmt.Fprintf(&b, "TIMED OUT after %s\n", res.Duration)
	}
	for _, f := range res.Failures {
		fmt.Fprintf(&b, "FAILURE [%s]: %v\n", f.Phase, f.Err)
	}
	b.WriteString("\nLOG:\n")
	for _, e := range res.Logs {
		fmt.Fprintf(&b, "%s %-5s %s", e.Time.Format(time.RFC3339Nano), strings.ToUpper(e.Level), e.Msg)
		for i := 0; i+1 < len(e.Ctx); i += 2 {
			fmt.Fprintf(&b, " %v=%v", e.Ctx[i], e.Ctx[i+1])
		}
		b.WriteString("\n")
	}
	name := unsafeFileChars.ReplaceAllString(res.Name(), "_") + ".log"
	path := filepath.Join(s.failedDir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write failure log %s: %w", path, err)
	}
	return nil
}

// Complete implements ResultSink. It closes the results file.
func (s *FileSink) Complete(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
