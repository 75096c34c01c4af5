// Package runner drives registered groups: it resolves the run plan against
// the registry, runs every selected case serially or with bounded
// concurrency, applies per-case deadlines, and aggregates the results.
//
// The runner sits above the case lifecycle. A deadline that expires is
// reported as a timed-out result produced by the runner; the case's own
// lifecycle keeps running with a cancelled context and seals on its own.
package runner
