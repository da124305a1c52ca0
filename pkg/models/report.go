package models

// PlanState is a state of the plan executor
type PlanState string

const (
	// StatePlanned means the plan was computed and awaits confirmation
	StatePlanned PlanState = "planned"
	// StateConfirmed means the plan may be executed
	StateConfirmed PlanState = "confirmed"
	// StateExecuting means a backend is running the plan
	StateExecuting PlanState = "executing"
	// StateDone means the plan completed, possibly with nothing to do
	StateDone PlanState = "done"
	// StateFailed means a backend error stopped the plan
	StateFailed PlanState = "failed"
	// StateAborted means the plan was declined or was a dry run
	StateAborted PlanState = "aborted"
)

// Terminal reports whether no further transition is possible
func (s PlanState) Terminal() bool {
	switch s {
	case StateDone, StateFailed, StateAborted:
		return true
	default:
		return false
	}
}

// Status represents the overall result of a command
type Status string

const (
	// StatusSuccess indicates the command completed
	StatusSuccess Status = "success"
	// StatusFailed indicates an error stopped the command
	StatusFailed Status = "failed"
	// StatusRejected indicates a safety invariant refused the request
	StatusRejected Status = "rejected"
	// StatusCancelled indicates the user declined the plan
	StatusCancelled Status = "cancelled"
)

// ExitCode returns the appropriate exit code for the status
func (s Status) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusFailed:
		return 1
	case StatusRejected:
		return 2
	case StatusCancelled:
		return 3
	default:
		return 1
	}
}
