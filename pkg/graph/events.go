package graph

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRunStart EventType = "run_start"
	EventStep     EventType = "step"
	EventRunEnd   EventType = "run_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// StepEvent is the unit of step-stream observability: one executed node and
// the partial update it returned, not the full accumulated state. The final
// element of a finished run names End and carries no update.
type StepEvent struct {
	EventBase
	Seq    int    `json:"seq"`
	Node   string `json:"node"`
	Update Update `json:"update,omitempty"`
}

// Terminal reports whether this event marks arrival at End.
func (e StepEvent) Terminal() bool {
	return e.Node == End
}

// RunEvent describes a run starting or ending.
type RunEvent struct {
	EventBase
	Graph    string        `json:"graph"`
	Status   RunStatus     `json:"status"`
	Steps    int           `json:"steps"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      string        `json:"error,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability. Hooks run
// synchronously between steps; heavy sinks should hand off internally.
type LifecycleHooks struct {
	OnRunStart func(context.Context, *RunEvent)
	OnStep     func(context.Context, *StepEvent)
	OnRunEnd   func(context.Context, *RunEvent)
}
