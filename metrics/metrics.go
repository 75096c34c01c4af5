package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/op-casekit/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "casekit"
)

var (
	Debug                bool = true
	validResults              = []types.Status{types.StatusPass, types.StatusWarn, types.StatusSkip, types.StatusFail}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	casesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "cases_total",
		Help:      "Count of executed cases",
	}, []string{
		"group",
		"test",
		"status",
	})

	caseFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "case_failures_total",
		Help:      "Count of recorded case failures by lifecycle phase",
	}, []string{
		"group",
		"phase",
	})

	caseTimeoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "case_timeouts_total",
		Help:      "Count of cases that exceeded their deadline",
	}, []string{
		"group",
	})

	caseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Name:      "case_duration_seconds",
		Help:      "Duration of individual cases",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{
		"group",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Result of the last run",
	}, []string{
		"run_id",
		"result",
	})

	runCases = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_cases",
		Help:      "Number of cases in a run by status",
	}, []string{
		"run_id",
		"status",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of a run",
	}, []string{
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

// RecordCase records the outcome of a single sealed case.
func RecordCase(res *types.CaseResult) {
	if !isValidResult(res.Status) {
		log.Error("RecordCase - invalid status", "case", res.Name(), "status", res.Status)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "cases_total",
			"group", res.Group,
			"test", res.ID.Test,
			"status", res.Status)
	}
	casesTotal.WithLabelValues(res.Group, res.ID.Test, string(res.Status)).Inc()
	for _, f := range res.Failures {
		caseFailuresTotal.WithLabelValues(res.Group, string(f.Phase)).Inc()
	}
	if res.TimedOut {
		caseTimeoutsTotal.WithLabelValues(res.Group).Inc()
	}
	caseDuration.WithLabelValues(res.Group).Observe(res.Duration.Seconds())
}

// RecordRun records the aggregate outcome of a run.
func RecordRun(runID string, result types.Status, counts map[types.Status]int, duration time.Duration) {
	runResults.WithLabelValues(runID, string(result)).Set(1)
	for _, status := range validResults {
		runCases.WithLabelValues(runID, string(status)).Set(float64(counts[status]))
	}
	runDuration.WithLabelValues(runID).Set(duration.Seconds())
}

func isValidResult(result types.Status) bool {
	return slices.Contains(validResults, result)
}
