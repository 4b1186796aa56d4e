// Package store provides a minimal single-writer store that applies a reducer
// to dispatched effects.
package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/reschema/internal/logging"
	"github.com/aretw0/reschema/pkg/domain"
)

// Listener is notified after every reduction with the new state.
type Listener func(state domain.State, a domain.Action)

// Option configures a Store.
type Option func(*Store)

// WithHooks registers observability callbacks.
func WithHooks(hooks domain.Hooks) Option {
	return func(s *Store) {
		s.hooks = hooks
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store holds the global tree.
// Reductions are serialized. Listeners run outside the lock, in subscription order.
type Store struct {
	mu        sync.Mutex
	state     domain.State
	reducer   domain.Reducer
	listeners []subscription
	nextID    int
	hooks     domain.Hooks
	logger    *slog.Logger
}

type subscription struct {
	id       int
	listener Listener
}

// New creates a store with the given reducer and initial tree.
func New(reducer domain.Reducer, initial domain.State, opts ...Option) *Store {
	s := &Store{
		state:   initial,
		reducer: reducer,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	return s
}

// GetState returns the current tree.
func (s *Store) GetState() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers a listener. The returned function removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, subscription{id: id, listener: l})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Dispatch applies an effect.
// Plain actions are reduced immediately and return a future resolved with the
// action. Deferred effects run with this store's Dispatch.
func (s *Store) Dispatch(ctx context.Context, effect domain.Effect) *domain.Future {
	switch e := effect.(type) {
	case domain.Action:
		s.reduce(ctx, e)
		return domain.Resolved(e)
	case *domain.Deferred:
		return s.run(ctx, e)
	default:
		s.logger.Warn("ignoring unsupported effect", "effect", effect)
		return domain.Resolved(nil)
	}
}

func (s *Store) reduce(ctx context.Context, a domain.Action) {
	start := time.Now()

	s.mu.Lock()
	next := s.reducer(s.state, a)
	s.state = next
	listeners := s.listeners
	s.mu.Unlock()

	s.logger.Debug("action dispatched", "type", a.Type, "error", a.Error)
	if s.hooks.OnDispatch != nil {
		s.hooks.OnDispatch(ctx, &domain.DispatchEvent{
			Timestamp: start,
			Action:    a,
			Duration:  time.Since(start),
		})
	}

	for _, sub := range listeners {
		sub.listener(next, a)
	}
}

func (s *Store) run(ctx context.Context, d *domain.Deferred) *domain.Future {
	start := time.Now()
	if s.hooks.OnRequestStart != nil {
		s.hooks.OnRequestStart(ctx, &domain.RequestEvent{Timestamp: start, Type: d.Type, Payload: d.Payload})
	}

	future := d.Run(ctx, s.Dispatch)

	if s.hooks.OnRequestSettle != nil || s.logger.Enabled(ctx, slog.LevelDebug) {
		go func() {
			<-future.Done()
			_, err := future.Wait(context.Background())
			if err != nil {
				s.logger.Debug("request failed", "type", d.Type, "err", err)
			}
			if s.hooks.OnRequestSettle != nil {
				s.hooks.OnRequestSettle(ctx, &domain.RequestEvent{
					Timestamp: start,
					Type:      d.Type,
					Payload:   d.Payload,
					Duration:  time.Since(start),
					Err:       err,
				})
			}
		}()
	}
	return future
}
