package domain

import (
	"context"
	"sync"
)

// Effect is the result of an action creator.
// It is either a plain Action or a *Deferred wrapping an asynchronous operation;
// dispatchers pattern-match on the concrete type.
type Effect interface {
	isEffect()
}

// DispatchFunc applies an effect to a store.
// Plain actions return an already settled Future.
type DispatchFunc func(ctx context.Context, effect Effect) *Future

// Deferred is an effect whose transitions happen over time.
// Running it is the dispatcher's job.
type Deferred struct {
	// Type is the base (pending) action type.
	Type    string
	Payload any

	run func(ctx context.Context, dispatch DispatchFunc) *Future
}

// NewDeferred creates a deferred effect.
func NewDeferred(actionType string, payload any, run func(ctx context.Context, dispatch DispatchFunc) *Future) *Deferred {
	return &Deferred{Type: actionType, Payload: payload, run: run}
}

// Run executes the deferred effect against dispatch.
func (d *Deferred) Run(ctx context.Context, dispatch DispatchFunc) *Future {
	if d.run == nil {
		return Resolved(nil)
	}
	return d.run(ctx, dispatch)
}

func (*Deferred) isEffect() {}

// Future is the eventual outcome of a dispatched effect. It settles exactly once.
type Future struct {
	once  sync.Once
	done  chan struct{}
	value any
	err   error
}

// NewFuture returns an unsettled future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolved returns a future already settled with v.
func Resolved(v any) *Future {
	f := NewFuture()
	f.Resolve(v)
	return f
}

// Rejected returns a future already settled with err.
func Rejected(err error) *Future {
	f := NewFuture()
	f.Reject(err)
	return f
}

// Resolve settles the future with a value. Later calls are ignored.
func (f *Future) Resolve(v any) {
	f.settle(v, nil)
}

// Reject settles the future with an error. Later calls are ignored.
func (f *Future) Reject(err error) {
	f.settle(nil, err)
}

func (f *Future) settle(v any, err error) {
	f.once.Do(func() {
		f.value = v
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future settles.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the future has settled.
func (f *Future) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the future settles or ctx is done.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
