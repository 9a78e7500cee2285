package graph

import "time"

// TraceStep is one recorded step of a run.
type TraceStep struct {
	Seq    int            `json:"seq"`
	Node   string         `json:"node"`
	Update map[string]any `json:"update,omitempty"`
	At     time.Time      `json:"at"`
}

// Trace is the persisted record of one run, kept by a RunRecorder for
// diagnosis after the fact. The live run never reads it back; runs are not
// resumable mid-stream.
type Trace struct {
	ID        string         `json:"id"`
	Graph     string         `json:"graph"`
	Status    RunStatus      `json:"status"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   time.Time      `json:"ended_at,omitempty"`
	Steps     []TraceStep    `json:"steps,omitempty"`
	Final     map[string]any `json:"final,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Clone returns a deep copy sharing no mutable data with the receiver.
func (t *Trace) Clone() *Trace {
	out := *t
	out.Steps = make([]TraceStep, len(t.Steps))
	for i, s := range t.Steps {
		s.Update = copyUpdate(s.Update)
		out.Steps[i] = s
	}
	if t.Final != nil {
		out.Final = copyUpdate(t.Final)
	}
	return &out
}
