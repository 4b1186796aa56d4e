// Package reducer builds pure dispatch tables from named transitions.
package reducer

import (
	"reflect"

	"github.com/aretw0/reschema/pkg/domain"
	"github.com/aretw0/reschema/pkg/tree"
)

// Handlers maps action types to transitions.
type Handlers map[string]domain.Reducer

// Option configures Create.
type Option func(*config)

type config struct {
	scope tree.Path
}

// WithScope makes the reducer read and write the slice at path of a larger tree.
func WithScope(path tree.Path) Option {
	return func(c *config) {
		c.scope = path
	}
}

// Create returns a reducer dispatching on action type.
//
// A missing state (or scoped slice) defaults to initial. When both are nil the
// input is returned unchanged. Unmatched types are the identity.
func Create(initial domain.State, handlers Handlers, opts ...Option) domain.Reducer {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	apply := func(state domain.State, a domain.Action) (domain.State, bool) {
		if state == nil {
			state = initial
		}
		if state == nil {
			return nil, false
		}
		if handle, ok := handlers[a.Type]; ok {
			return handle(state, a), true
		}
		return state, true
	}

	if cfg.scope == nil {
		return func(state domain.State, a domain.Action) domain.State {
			next, _ := apply(state, a)
			return next
		}
	}

	scope := cfg.scope
	return func(root domain.State, a domain.Action) domain.State {
		slice, found := tree.Get(root, scope)
		next, ok := apply(slice, a)
		if !ok {
			return root
		}
		// Nothing matched and the slice was already materialized.
		if found && sameState(slice, next) {
			return root
		}
		return tree.Set(root, scope, next)
	}
}

// Compose runs main and then secondary on the already-updated state.
// Either may be nil; both nil is the identity.
func Compose(main, secondary domain.Reducer) domain.Reducer {
	return func(state domain.State, a domain.Action) domain.State {
		next := state
		if main != nil {
			next = main(next, a)
		}
		if secondary != nil {
			next = secondary(next, a)
		}
		return next
	}
}

// Chain folds reducers over the state in order.
func Chain(reducers ...domain.Reducer) domain.Reducer {
	return func(state domain.State, a domain.Action) domain.State {
		for _, r := range reducers {
			if r != nil {
				state = r(state, a)
			}
		}
		return state
	}
}

// Identity returns the state unchanged.
func Identity(state domain.State, _ domain.Action) domain.State {
	return state
}

func sameState(a, b domain.State) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if len(a) != len(b) {
		return false
	}
	// Compared by identity: transitions return fresh maps.
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
