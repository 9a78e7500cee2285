package graph

import "reflect"

// Reducer folds a node's partial update into the current value of one field.
// It must not mutate prev; it returns the merged value.
type Reducer func(prev, next any) any

// Replace is the overwrite rule: the new value fully supersedes the old one.
// Last write wins within a step.
func Replace(prev, next any) any {
	return next
}

// Append is the accumulating rule: the update's elements are concatenated onto
// the existing sequence in call order. A non-slice update value is appended as
// a single element. The previous sequence is copied, never grown in place, so
// earlier snapshots keep their backing arrays.
func Append(prev, next any) any {
	head := sequenceOf(prev)
	tail := sequenceOf(next)
	out := make([]any, 0, len(head)+len(tail))
	out = append(out, head...)
	out = append(out, tail...)
	return out
}

// sequenceOf normalizes a value to []any. Slices of any element type are
// flattened element-wise ([]byte excepted, which stays one opaque value);
// scalars become a single-element sequence; nil becomes empty.
func sequenceOf(v any) []any {
	switch s := v.(type) {
	case nil:
		return nil
	case []any:
		return s
	case []byte:
		return []any{s}
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// Field declares one shared-state field and its merge rule.
type Field struct {
	// Name identifies the field. Must be unique within a schema.
	Name string

	// Reduce merges an update into the field. Nil means Replace.
	Reduce Reducer

	// Default seeds the field when the caller's initial values leave it
	// unset. Nil means the field starts absent.
	Default func() any
}

// Overwrite declares a field whose new value fully replaces the old one.
func Overwrite(name string) Field {
	return Field{Name: name}
}

// Accumulate declares a field holding an ordered sequence that updates append
// to. Unset, it starts as an empty sequence.
func Accumulate(name string) Field {
	return Field{
		Name:    name,
		Reduce:  Append,
		Default: func() any { return []any{} },
	}
}

// WithDefault returns a copy of the field with an explicit initial value.
func (f Field) WithDefault(fn func() any) Field {
	f.Default = fn
	return f
}

// Schema is the ordered set of field declarations for one graph's shared
// state. Immutable after NewSchema; safe to share across runs.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema builds a schema from field declarations. Field order is the
// declared order and defines state iteration order.
func NewSchema(fields ...Field) (*Schema, error) {
	s := &Schema{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f.Name == "" {
			return nil, configf("schema field with empty name")
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, configf("duplicate schema field %q", f.Name)
		}
		if f.Reduce == nil {
			f.Reduce = Replace
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// Fields returns the declarations in schema order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Has reports whether the schema declares the named field.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Len returns the number of declared fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Initialize builds the run's first state from caller-supplied values. Unset
// fields take their declared default (accumulating fields an empty sequence);
// values for undeclared fields are a ConfigurationError.
func (s *Schema) Initialize(initial Update) (*State, error) {
	for name := range initial {
		if !s.Has(name) {
			return nil, configf("initial value for undeclared field %q", name)
		}
	}
	values := make(map[string]any, len(s.fields))
	for _, f := range s.fields {
		if f.Default != nil {
			values[f.Name] = f.Default()
		}
	}
	st := &State{schema: s, values: values}
	if len(initial) == 0 {
		return st, nil
	}
	return s.Apply(st, initial)
}

// Apply folds an update into a state via each field's reducer and returns a
// new state. The input state is not mutated, so earlier snapshots held by
// step-stream consumers stay valid. Undeclared keys fail with ErrUnknownField.
func (s *Schema) Apply(st *State, update Update) (*State, error) {
	values := make(map[string]any, len(st.values)+len(update))
	for k, v := range st.values {
		values[k] = v
	}
	for _, f := range s.fields {
		next, ok := update[f.Name]
		if !ok {
			continue
		}
		values[f.Name] = f.Reduce(values[f.Name], next)
	}
	for name := range update {
		if !s.Has(name) {
			return nil, unknownFieldf(name)
		}
	}
	return &State{schema: s, values: values}, nil
}

// MergeUpdates combines two partial updates into one, following the same
// per-field rules as Apply: accumulating fields concatenate, overwrite fields
// keep the later value. Used to register a composed pipeline as a single node.
func (s *Schema) MergeUpdates(a, b Update) (Update, error) {
	out := make(Update, len(a)+len(b))
	for name, v := range a {
		if !s.Has(name) {
			return nil, unknownFieldf(name)
		}
		out[name] = v
	}
	for name, v := range b {
		idx, ok := s.index[name]
		if !ok {
			return nil, unknownFieldf(name)
		}
		if prev, set := out[name]; set {
			out[name] = s.fields[idx].Reduce(prev, v)
			continue
		}
		out[name] = v
	}
	return out, nil
}
