package graph

import (
	"errors"
	"fmt"
)

// ErrUnknownField is returned when an update or initial value references a
// field that the schema does not declare.
var ErrUnknownField = errors.New("unknown state field")

// ErrTraceNotFound is returned when a run ID cannot be found in a recorder.
var ErrTraceNotFound = errors.New("trace not found")

// ConfigurationError reports invalid graph or schema construction. It is
// raised eagerly while building (NewSchema, Compile, run start), never while a
// run is stepping.
type ConfigurationError struct {
	Detail string
}

func (e *ConfigurationError) Error() string {
	return "graph configuration: " + e.Detail
}

func configf(format string, args ...any) error {
	return &ConfigurationError{Detail: fmt.Sprintf(format, args...)}
}

func unknownFieldf(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// NodeExecutionError reports a transform failure during a run. It is fatal to
// that run and carries the last successfully merged state for diagnosis.
type NodeExecutionError struct {
	Node  string
	State *State
	Cause error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %q failed: %v", e.Node, e.Cause)
}

func (e *NodeExecutionError) Unwrap() error {
	return e.Cause
}

// RoutingError reports a router returning a label that its edge table does not
// declare. The label is only known once the router has run on live state, so
// this is a run-time failure, fatal to that run.
type RoutingError struct {
	Node  string
	Label string
	State *State
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("no route labeled %q from node %q", e.Label, e.Node)
}
