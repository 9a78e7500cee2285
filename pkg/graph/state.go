package graph

import (
	"bytes"
	"encoding/json"
	"time"
)

// Update is the partial delta a node returns: a mapping from declared field
// names to new values, folded into the state by each field's reducer.
type Update map[string]any

// Clone returns a copy of the update, deep-copying JSON-shaped containers the
// same way State.Map does. A nil update clones to nil.
func (u Update) Clone() Update {
	return copyUpdate(u)
}

// State is one snapshot of the shared state. Snapshots are
// immutable-by-convention: the engine merges by building a new State, and
// hands nodes a Clone, so a snapshot observed at step N stays valid while
// later steps run.
type State struct {
	schema *Schema
	values map[string]any
}

// Schema returns the schema this state was built from.
func (s *State) Schema() *Schema {
	return s.schema
}

// Get returns the value of a field and whether it is set.
func (s *State) Get(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Keys returns the set fields in schema declaration order.
func (s *State) Keys() []string {
	out := make([]string, 0, len(s.values))
	for _, f := range s.schema.fields {
		if _, ok := s.values[f.Name]; ok {
			out = append(out, f.Name)
		}
	}
	return out
}

// Map returns a copied snapshot of the set fields. JSON-shaped containers
// (nested map[string]any plus any, string, int, float64 and byte slices) are
// deep-copied; values outside those shapes are passed through and stay shared
// if they are reference types.
func (s *State) Map() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = copyValue(v)
	}
	return out
}

// Clone returns a copy of the state under Map's copy semantics.
func (s *State) Clone() *State {
	return &State{schema: s.schema, values: s.Map()}
}

// MarshalJSON encodes the set fields as an object in schema declaration
// order.
func (s *State) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, f := range s.schema.fields {
		v, ok := s.values[f.Name]
		if !ok {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// copyValue deep-copies the mutable shapes that flow through states and
// updates (JSON-ish maps and slices); other values keep value semantics.
func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = copyValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = copyValue(t[i])
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []int:
		out := make([]int, len(t))
		copy(out, t)
		return out
	case []float64:
		out := make([]float64, len(t))
		copy(out, t)
		return out
	case []byte:
		out := make([]byte, len(t))
		copy(out, t)
		return out
	case time.Time:
		return t
	default:
		return v
	}
}

// copyUpdate deep-copies an update for events and traces, so observers cannot
// reach back into run-owned values.
func copyUpdate(u Update) Update {
	if u == nil {
		return nil
	}
	out := make(Update, len(u))
	for k, v := range u {
		out[k] = copyValue(v)
	}
	return out
}
