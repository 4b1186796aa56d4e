package reschema

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/reschema/pkg/adapters/memory"
	"github.com/aretw0/reschema/pkg/compose"
	"github.com/aretw0/reschema/pkg/domain"
	"github.com/aretw0/reschema/pkg/schema"
	"github.com/aretw0/reschema/pkg/session"
	"github.com/aretw0/reschema/pkg/store"
	"golang.org/x/sync/singleflight"
)

// Engine hosts persistent sessions over one composition of schemas.
// Each session owns a live store hydrated from its snapshot and saved after
// every reduction.
type Engine struct {
	composition *compose.Composition
	sessions    *session.Manager
	opts        *options
	logger      *slog.Logger

	mu      sync.Mutex
	live    map[string]*Session
	opening singleflight.Group
}

// New combines schemas and prepares an engine.
func New(schemas []*schema.Schema, opts ...Option) (*Engine, error) {
	o := newOptions(opts)
	if o.snapshots == nil {
		o.snapshots = memory.NewStore()
	}

	c, err := combine(schemas, o)
	if err != nil {
		return nil, err
	}

	mopts := []session.Option{session.WithLogger(o.logger)}
	if o.locker != nil {
		mopts = append(mopts, session.WithLocker(o.locker))
	}
	if o.lockTTL > 0 {
		mopts = append(mopts, session.WithLockTTL(o.lockTTL))
	}

	return &Engine{
		composition: c,
		sessions:    session.NewManager(o.snapshots, mopts...),
		opts:        o,
		logger:      o.logger,
		live:        make(map[string]*Session),
	}, nil
}

// Composition returns the engine's schemas bound to its namespace.
func (e *Engine) Composition() *compose.Composition { return e.composition }

// Schemas returns the bound schemas in registration order.
func (e *Engine) Schemas() []*schema.Schema { return e.composition.Schemas() }

// Sessions lists persisted session IDs.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// Open returns the live session for id, loading or creating its snapshot.
// Concurrent opens of the same id share one load; other ids are not blocked.
func (e *Engine) Open(ctx context.Context, id string) (*Session, error) {
	if s, ok := e.liveSession(id); ok {
		return s, nil
	}

	v, err, _ := e.opening.Do(id, func() (any, error) {
		if s, ok := e.liveSession(id); ok {
			return s, nil
		}
		return e.open(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (e *Engine) liveSession(id string) (*Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.live[id]
	return s, ok
}

func (e *Engine) open(ctx context.Context, id string) (*Session, error) {
	snapshot, created, err := e.sessions.LoadOrInit(ctx, id, func() *domain.Snapshot {
		return domain.NewSnapshot(id, e.composition.Namespace(), e.composition.InitialTree(e.opts.preloaded))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session %q: %w", id, err)
	}

	s := &Session{
		id:       id,
		engine:   e,
		snapshot: snapshot,
		logger:   e.logger.With("session_id", id),
	}
	s.store = store.New(rootReducer(e.composition, e.opts), snapshot.Tree,
		store.WithHooks(e.opts.hooks),
		store.WithLogger(s.logger),
	)
	s.unsubscribe = s.store.Subscribe(func(domain.State, domain.Action) {
		if err := s.Flush(context.Background()); err != nil {
			s.logger.Error("failed to persist session", "err", err)
		}
	})

	e.mu.Lock()
	e.live[id] = s
	e.mu.Unlock()

	e.logger.Info("session opened", "session_id", id, "created", created, "revision", snapshot.Revision)
	return s, nil
}

// Lookup opens an existing session and fails with domain.ErrSessionNotFound
// instead of creating one.
func (e *Engine) Lookup(ctx context.Context, id string) (*Session, error) {
	if s, ok := e.liveSession(id); ok {
		return s, nil
	}

	if _, err := e.sessions.Load(ctx, id); err != nil {
		return nil, err
	}
	return e.Open(ctx, id)
}

// Close saves the session and releases its live store.
// Actions reduced after Close, such as late request results, are not persisted.
func (e *Engine) Close(ctx context.Context, id string) error {
	e.mu.Lock()
	s, ok := e.live[id]
	delete(e.live, id)
	e.mu.Unlock()

	if !ok {
		return nil
	}
	return s.detach(ctx, true)
}

// Delete drops the session and its snapshot.
func (e *Engine) Delete(ctx context.Context, id string) error {
	e.mu.Lock()
	s, ok := e.live[id]
	delete(e.live, id)
	e.mu.Unlock()

	if ok {
		if err := s.detach(ctx, false); err != nil {
			return err
		}
	}
	return e.sessions.Delete(ctx, id)
}

// Dispatch invokes an operation of a schema in a session.
// The returned future settles when the operation completes.
func (e *Engine) Dispatch(ctx context.Context, sessionID, schemaName, operation string, payload any) (*domain.Future, error) {
	sc, ok := e.composition.Schema(schemaName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSchema, schemaName)
	}
	create, ok := sc.Creator(operation)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", domain.ErrUnknownOperation, schemaName, operation)
	}

	s, err := e.Open(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.Dispatch(ctx, create(payload)), nil
}

// Session is a live store bound to a persisted snapshot.
type Session struct {
	id     string
	engine *Engine
	store  *store.Store
	logger *slog.Logger

	mu          sync.Mutex
	snapshot    *domain.Snapshot
	unsubscribe func()
	detached    bool
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// State returns the current global tree.
func (s *Session) State() domain.State { return s.store.GetState() }

// Select evaluates every schema's selectors against the current tree.
func (s *Session) Select(props any) map[string]map[string]any {
	return s.engine.composition.Select(s.store.GetState(), props)
}

// Dispatch applies an effect to the session's store.
func (s *Session) Dispatch(ctx context.Context, effect domain.Effect) *domain.Future {
	return s.store.Dispatch(ctx, effect)
}

// Subscribe registers a store listener.
func (s *Session) Subscribe(l store.Listener) (unsubscribe func()) {
	return s.store.Subscribe(l)
}

// Revision returns the revision of the last persisted snapshot.
func (s *Session) Revision() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Revision
}

// Flush persists the current tree as the next snapshot revision.
// It is a no-op once the session has been closed or deleted.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detached {
		return nil
	}
	return s.save(ctx)
}

// detach stops auto-persistence, optionally saving the tree one last time.
func (s *Session) detach(ctx context.Context, persist bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detached {
		return nil
	}
	s.detached = true
	s.unsubscribe()
	if !persist {
		return nil
	}
	return s.save(ctx)
}

func (s *Session) save(ctx context.Context) error {
	next := s.snapshot.Next(s.store.GetState())
	if err := s.engine.sessions.Save(ctx, s.id, next); err != nil {
		return err
	}
	s.snapshot = next
	return nil
}
