package domain

import "time"

// Snapshot is the persisted form of a session's global tree.
type Snapshot struct {
	SessionID string    `json:"session_id"`
	Namespace string    `json:"namespace,omitempty"`
	Tree      State     `json:"tree"`
	Revision  int64     `json:"revision"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSnapshot creates the first revision of a session snapshot.
func NewSnapshot(sessionID, namespace string, tree State) *Snapshot {
	return &Snapshot{
		SessionID: sessionID,
		Namespace: namespace,
		Tree:      tree,
		UpdatedAt: time.Now(),
	}
}

// Next returns the following revision holding tree.
func (s *Snapshot) Next(tree State) *Snapshot {
	return &Snapshot{
		SessionID: s.SessionID,
		Namespace: s.Namespace,
		Tree:      tree,
		Revision:  s.Revision + 1,
		UpdatedAt: time.Now(),
	}
}

// Copy returns a snapshot whose tree shares no mutable maps or slices with s.
func (s *Snapshot) Copy() *Snapshot {
	cp := *s
	cp.Tree = DeepCopy(s.Tree)
	return &cp
}

// DeepCopy copies every nested mapping and slice of a tree.
func DeepCopy(s State) State {
	if s == nil {
		return nil
	}
	out := make(State, len(s))
	for k, v := range s {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case State:
		return DeepCopy(t)
	case map[string]any:
		return map[string]any(DeepCopy(State(t)))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return v
	}
}
