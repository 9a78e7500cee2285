package graph

// RunStatus is the lifecycle state of one run.
type RunStatus string

const (
	StatusReady     RunStatus = "ready"     // Created, no step taken yet
	StatusRunning   RunStatus = "running"   // Stepping
	StatusFinished  RunStatus = "finished"  // Reached End
	StatusFailed    RunStatus = "failed"    // Node or routing failure
	StatusCancelled RunStatus = "cancelled" // Cancellation observed between steps
)

var allowedRunStatusTransitions = map[RunStatus]map[RunStatus]struct{}{
	StatusReady: {
		StatusRunning:   {},
		StatusCancelled: {},
	},
	StatusRunning: {
		StatusFinished:  {},
		StatusFailed:    {},
		StatusCancelled: {},
	},
}

// Terminal reports whether no further transition is possible.
func (s RunStatus) Terminal() bool {
	switch s {
	case StatusFinished, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether moving to the target status is legal.
func (s RunStatus) CanTransition(to RunStatus) bool {
	targets, ok := allowedRunStatusTransitions[s]
	if !ok {
		return false
	}
	_, ok = targets[to]
	return ok
}
