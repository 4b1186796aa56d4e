package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/reschema"
	"github.com/aretw0/reschema/internal/catalog"
	"github.com/aretw0/reschema/internal/config"
	"github.com/aretw0/reschema/pkg/adapters/file"
	"github.com/aretw0/reschema/pkg/adapters/memory"
	"github.com/aretw0/reschema/pkg/adapters/redis"
	"github.com/aretw0/reschema/pkg/domain"
	"github.com/aretw0/reschema/pkg/observability"
	"github.com/aretw0/reschema/pkg/persistence/middleware"
	"github.com/aretw0/reschema/pkg/ports"
)

// Backend is the persistence selected by configuration.
type Backend struct {
	Store  ports.SnapshotStore
	Locker ports.DistributedLocker
	close  func() error
}

// Close releases connections held by the backend.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// NewBackend builds the snapshot store, its middleware chain and the locker.
func NewBackend(cfg config.PersistenceConfig) (*Backend, error) {
	b := &Backend{}

	switch cfg.Driver {
	case config.DriverMemory, "":
		b.Store = memory.NewStore()
	case config.DriverFile:
		b.Store = file.New(cfg.Dir)
	case config.DriverRedis:
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		b.Store = rs
		b.Locker = redis.NewLocker(rs.Client(), cfg.Redis.Prefix)
		b.close = rs.Close
	default:
		return nil, fmt.Errorf("unknown persistence driver %q", cfg.Driver)
	}

	// Masking runs on the plain tree, compression before encryption.
	var mws []middleware.Middleware
	if len(cfg.MaskKeys) > 0 {
		pii, err := middleware.PII(cfg.MaskKeys)
		if err != nil {
			return nil, fmt.Errorf("invalid mask keys: %w", err)
		}
		mws = append(mws, pii)
	}
	if cfg.Compress {
		mws = append(mws, middleware.Compression())
	}
	if cfg.EncryptionKey != "" {
		keys, err := cfg.Keys()
		if err != nil {
			return nil, err
		}
		enc, err := middleware.Encryption(middleware.EncryptionConfig{ActiveKey: keys[0], FallbackKeys: keys[1:]})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	b.Store = middleware.Chain(b.Store, mws...)

	return b, nil
}

// NewEngine builds an engine over the demo catalog as configured.
// Extra hooks (e.g. metrics) are merged with debug logging hooks.
func NewEngine(cfg *config.Config, logger *slog.Logger, hooks ...domain.Hooks) (*reschema.Engine, *Backend, error) {
	backend, err := NewBackend(cfg.Persistence)
	if err != nil {
		return nil, nil, err
	}

	opts := []reschema.Option{
		reschema.WithNamespace(cfg.Namespace),
		reschema.WithLogger(logger),
		reschema.WithHooks(domain.MergeHooks(append(hooks, observability.Logging(logger))...)),
		reschema.WithSnapshotStore(backend.Store),
		reschema.WithLockTTL(cfg.Persistence.LockTTL),
	}
	if backend.Locker != nil {
		opts = append(opts, reschema.WithLocker(backend.Locker))
	}
	if cfg.StrictNames {
		opts = append(opts, reschema.WithStrictNames())
	}

	engine, err := reschema.New(catalog.Schemas(catalog.WithDelay(cfg.Catalog.MovieDelay)), opts...)
	if err != nil {
		_ = backend.Close()
		return nil, nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, backend, nil
}
