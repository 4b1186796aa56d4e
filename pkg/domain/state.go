package domain

import "encoding/json"

// State is an immutable, serializable mapping.
// It is used both for a schema's slice and for the global state tree.
// Transitions must return a new State instead of mutating their input.
type State map[string]any

// Reducer is a pure state transition.
type Reducer func(state State, action Action) State

// Clone returns a shallow copy of the state.
// A nil state clones to an empty, non-nil state.
func (s State) Clone() State {
	out := make(State, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	return out
}

// With returns a copy of the state with key set to value.
func (s State) With(key string, value any) State {
	out := s.Clone()
	out[key] = value
	return out
}

// Merge returns a copy of the state overlaid with the keys of other.
func (s State) Merge(other State) State {
	out := s.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Int reads a numeric key as an int. Missing or non-numeric values read as 0.
func (s State) Int(key string) int {
	n, _ := ToInt(s[key])
	return n
}

// ToInt converts a numeric value to an int.
// JSON-decoded snapshots and payloads carry numbers as float64, so it is accepted.
func ToInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}

// AsState converts a tree node into a State.
// Both State and plain map[string]any (as produced by decoders) are accepted.
func AsState(v any) (State, bool) {
	switch m := v.(type) {
	case State:
		return m, true
	case map[string]any:
		return State(m), true
	default:
		return nil, false
	}
}
