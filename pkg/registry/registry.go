package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/reschema/pkg/action"
	"github.com/aretw0/reschema/pkg/domain"
)

// ErrRequestNotFound is returned when a named request was never registered.
var ErrRequestNotFound = errors.New("request not found")

// Registry maps names to async request implementations.
// Schemas can refer to a request by name and have it swapped at runtime,
// e.g. to stub remote calls in tests.
type Registry struct {
	mu       sync.RWMutex
	requests map[string]action.Request
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		requests: make(map[string]action.Request),
	}
}

// Register adds a request to the registry.
// If a request with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn action.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[name] = fn
}

// Names lists the registered requests, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.requests))
	for name := range r.requests {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Execute looks up a request by name and runs it.
func (r *Registry) Execute(ctx context.Context, name string, payload any, peers action.Bound, dispatch domain.DispatchFunc) (any, error) {
	r.mu.RLock()
	fn, ok := r.requests[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, name)
	}
	return fn(ctx, payload, peers, dispatch)
}

// Request returns an action.Request resolving name on every call.
func (r *Registry) Request(name string) action.Request {
	return func(ctx context.Context, payload any, peers action.Bound, dispatch domain.DispatchFunc) (any, error) {
		return r.Execute(ctx, name, payload, peers, dispatch)
	}
}
