package testutils

import (
	"context"
	"sync"

	"github.com/aretw0/reschema/pkg/domain"
)

// Recorder is a mock store: it records every plain action dispatched through it
// and runs deferred effects against itself. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	actions []domain.Action
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Dispatch implements domain.DispatchFunc.
func (r *Recorder) Dispatch(ctx context.Context, effect domain.Effect) *domain.Future {
	switch e := effect.(type) {
	case domain.Action:
		r.mu.Lock()
		r.actions = append(r.actions, e)
		r.mu.Unlock()
		return domain.Resolved(e)
	case *domain.Deferred:
		return e.Run(ctx, r.Dispatch)
	default:
		return domain.Resolved(nil)
	}
}

// Actions returns a copy of the recorded actions in dispatch order.
func (r *Recorder) Actions() []domain.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Action, len(r.actions))
	copy(out, r.actions)
	return out
}

// Types returns the recorded action types in dispatch order.
func (r *Recorder) Types() []string {
	actions := r.Actions()
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.Type
	}
	return out
}

// Reset clears the recorded actions.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = nil
}
