// Package exitcodes defines the standard exit codes used by casekit.
package exitcodes

// Exit code constants used by casekit
//
// * Success (0): every selected case passed, warned or skipped
// * TestFailure (1): one or more cases failed or timed out
// * RuntimeErr (2): the run itself could not be completed (bad plan, registration errors, interrupts)
const (
	Success     = 0 // All cases pass
	TestFailure = 1 // Case failures
	RuntimeErr  = 2 // Runtime errors
)
