package reschema

import (
	"log/slog"
	"time"

	"github.com/aretw0/reschema/pkg/domain"
	"github.com/aretw0/reschema/pkg/ports"
)

// Option configures CreateSchemaStore and New.
type Option func(*options)

type options struct {
	namespace string
	strict    bool
	logger    *slog.Logger
	hooks     domain.Hooks
	extra     domain.Reducer
	preloaded domain.State
	snapshots ports.SnapshotStore
	locker    ports.DistributedLocker
	lockTTL   time.Duration
}

// WithNamespace sets the dotted namespace schemas are bound to (default "schemas").
func WithNamespace(namespace string) Option {
	return func(o *options) {
		o.namespace = namespace
	}
}

// WithStrictNames rejects schemas sharing a name instead of letting the last one win.
func WithStrictNames() Option {
	return func(o *options) {
		o.strict = true
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithHooks registers store observability callbacks.
func WithHooks(hooks domain.Hooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithReducer runs an extra reducer over the whole tree after the schema reducers.
func WithReducer(r domain.Reducer) Option {
	return func(o *options) {
		o.extra = r
	}
}

// WithPreloadedState overrides initial slices by schema name.
// Top-level keys replace the matching schema's declared initial state.
func WithPreloadedState(state domain.State) Option {
	return func(o *options) {
		o.preloaded = state
	}
}

// WithSnapshotStore persists engine sessions (default: in memory).
func WithSnapshotStore(store ports.SnapshotStore) Option {
	return func(o *options) {
		o.snapshots = store
	}
}

// WithLocker coordinates engine sessions across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(o *options) {
		o.locker = locker
	}
}

// WithLockTTL bounds how long a distributed session lock is held.
func WithLockTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.lockTTL = ttl
	}
}
