package runner

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/op-casekit/types"
)

// ResultStats tracks case statistics at each level
type ResultStats struct {
	Total     int
	Passed    int
	Warned    int
	Skipped   int
	Failed    int
	TimedOut  int
	StartTime time.Time
	EndTime   time.Time
}

func (s *ResultStats) add(res *types.CaseResult) {
	s.Total++
	switch res.Status {
	case types.StatusPass:
		s.Passed++
	case types.StatusWarn:
		s.Warned++
	case types.StatusSkip:
		s.Skipped++
	case types.StatusFail:
		s.Failed++
	}
	if res.TimedOut {
		s.TimedOut++
	}
}

// Counts returns the per-status counts.
func (s ResultStats) Counts() map[types.Status]int {
	return map[types.Status]int{
		types.StatusPass: s.Passed,
		types.StatusWarn: s.Warned,
		types.StatusSkip: s.Skipped,
		types.StatusFail: s.Failed,
	}
}

// Status derives an aggregate status: fail if anything failed, skip if
// nothing ran or everything skipped, warn if anything warned, else pass.
func (s ResultStats) Status() types.Status {
	switch {
	case s.Failed > 0:
		return types.StatusFail
	case s.Total == 0 || s.Skipped == s.Total:
		return types.StatusSkip
	case s.Warned > 0:
		return types.StatusWarn
	default:
		return types.StatusPass
	}
}

// GroupResult captures aggregated results for a group
type GroupResult struct {
	Name     string
	Cases    []*types.CaseResult // In iteration order
	Status   types.Status
	Duration time.Duration // Wall clock time of the group
	Stats    ResultStats
}

func (g *GroupResult) add(res *types.CaseResult) {
	g.Cases = append(g.Cases, res)
	g.Stats.add(res)
}

// RunnerResult captures the complete run results
type RunnerResult struct {
	RunID    string
	Groups   []*GroupResult
	Status   types.Status
	Duration time.Duration
	Stats    ResultStats
}

// Failed returns every failed case across all groups.
func (r *RunnerResult) Failed() []*types.CaseResult {
	var out []*types.CaseResult
	for _, g := range r.Groups {
		for _, c := range g.Cases {
			if c.Status == types.StatusFail {
				out = append(out, c)
			}
		}
	}
	return out
}

// String summarizes the run with every failed case and its failures.
func (r *RunnerResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s: %s (%s)\n", r.RunID, r.Status, formatDuration(r.Duration))
	fmt.Fprintf(&b, "Total: %d, Passed: %d, Warned: %d, Skipped: %d, Failed: %d, Timed out: %d\n",
		r.Stats.Total, r.Stats.Passed, r.Stats.Warned, r.Stats.Skipped, r.Stats.Failed, r.Stats.TimedOut)
	for _, c := range r.Failed() {
		fmt.Fprintf(&b, "FAIL %s\n", c.Name())
		if c.TimedOut {
			b.WriteString("    timed out\n")
		}
		for _, f := range c.Failures {
			fmt.Fprintf(&b, "    [%s] %v\n", f.Phase, f.Err)
		}
	}
	return b.String()
}

// formatDuration formats the duration in seconds
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}
