package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/reschema/internal/logging"
	"github.com/aretw0/reschema/pkg/domain"
	"github.com/aretw0/reschema/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// sessionLock serializes access to one session. holders counts goroutines
// holding or waiting for it; the entry is dropped when it reaches zero.
type sessionLock struct {
	sync.Mutex
	holders int
}

// Manager serializes snapshot access per session ID.
// Snapshot reads and writes of one session never interleave, in process or,
// with a DistributedLocker, across processes.
type Manager struct {
	store ports.SnapshotStore

	mu    sync.Mutex
	locks map[string]*sessionLock

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SnapshotStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*sessionLock),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// lock blocks until the in-process lock of sessionID is held.
func (m *Manager) lock(sessionID string) (unlock func()) {
	m.mu.Lock()
	l := m.locks[sessionID]
	if l == nil {
		l = &sessionLock{}
		m.locks[sessionID] = l
	}
	l.holders++
	m.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()

		m.mu.Lock()
		defer m.mu.Unlock()
		if l.holders--; l.holders == 0 {
			delete(m.locks, sessionID)
		}
	}
}

// Load retrieves an existing session snapshot.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	var snapshot *domain.Snapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		snapshot, err = m.store.Load(ctx, sessionID)
		return err
	})
	return snapshot, err
}

// LoadOrInit loads a session, creating it from init when it does not exist.
// Creation is atomic: concurrent callers observe the same first snapshot.
func (m *Manager) LoadOrInit(ctx context.Context, sessionID string, init func() *domain.Snapshot) (snapshot *domain.Snapshot, created bool, err error) {
	err = m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		snapshot, err = m.store.Load(ctx, sessionID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		snapshot = init()
		// Persist immediately to reserve the ID.
		if err := m.store.Save(ctx, sessionID, snapshot); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		created = true
		m.logger.Debug("session initialized", "session_id", sessionID)
		return nil
	})
	return snapshot, created, err
}

// Save persists the session snapshot.
func (m *Manager) Save(ctx context.Context, sessionID string, snapshot *domain.Snapshot) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, snapshot)
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// WithLock executes fn while holding the lock for the session.
// fn must use the store directly; calling Manager methods for the same
// session from fn deadlocks.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	unlock := m.lock(sessionID)
	defer unlock()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
