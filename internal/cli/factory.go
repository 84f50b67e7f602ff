// Package cli holds the wiring and output helpers behind the canvass command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/canvass"
	"github.com/aretw0/canvass/internal/config"
	"github.com/aretw0/canvass/internal/logging"
	"github.com/aretw0/canvass/pkg/adapters/definition"
	"github.com/aretw0/canvass/pkg/adapters/file"
	"github.com/aretw0/canvass/pkg/adapters/memory"
	"github.com/aretw0/canvass/pkg/adapters/redis"
	"github.com/aretw0/canvass/pkg/adapters/sqlstore"
	"github.com/aretw0/canvass/pkg/domain"
	"github.com/aretw0/canvass/pkg/observability"
	"github.com/aretw0/canvass/pkg/persistence/middleware"
	"github.com/aretw0/canvass/pkg/ports"
	"github.com/aretw0/canvass/surveys"
)

// Stack is a fully wired engine with the resources it owns.
type Stack struct {
	Engine  *canvass.Engine
	Catalog *domain.Catalog
	Store   ports.SessionStore
	Metrics *observability.Metrics

	closers []func() error
}

// Close releases store connections.
func (s *Stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewLogger builds the logger selected by cfg, writing to w.
func NewLogger(cfg config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.LogFormat == "json" {
		return logging.NewJSON(w, level), nil
	}
	return logging.NewText(w, level), nil
}

// LoadCatalog reads surveys from dir, or the built-in catalog when dir is empty.
func LoadCatalog(ctx context.Context, dir string) (*domain.Catalog, error) {
	var loader ports.CatalogLoader = surveys.Loader()
	if dir != "" {
		loader = definition.NewLoader(dir)
	}
	return loader.Load(ctx)
}

// Build wires catalog, store, middleware, locker and hooks into an Engine.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Stack, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cat, err := LoadCatalog(ctx, cfg.SurveysDir)
	if err != nil {
		return nil, fmt.Errorf("error loading surveys: %w", err)
	}

	stack := &Stack{Catalog: cat}
	base, locker, err := stack.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mws, err := storeMiddleware(cfg, cat)
	if err != nil {
		_ = stack.Close()
		return nil, err
	}
	stack.Store = middleware.Chain(base, mws...)

	hooks := []domain.LifecycleHooks{observability.AuditHooks(logger)}
	if cfg.Metrics {
		stack.Metrics, err = observability.NewMetrics(nil)
		if err != nil {
			_ = stack.Close()
			return nil, err
		}
		hooks = append(hooks, stack.Metrics.Hooks())
	}

	opts := []canvass.Option{
		canvass.WithCatalog(cat),
		canvass.WithStore(stack.Store),
		canvass.WithLogger(logger),
		canvass.WithLockTTL(cfg.LockTTL),
	}
	if locker != nil {
		opts = append(opts, canvass.WithLocker(locker))
	}
	for _, h := range hooks {
		opts = append(opts, canvass.WithLifecycleHooks(h))
	}

	stack.Engine, err = canvass.New(ctx, opts...)
	if err != nil {
		_ = stack.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	logger.Debug("engine ready", "store", cfg.StoreDriver, "surveys", cat.IDs())
	return stack, nil
}

func (s *Stack) openStore(ctx context.Context, cfg config.Config) (ports.SessionStore, ports.DistributedLocker, error) {
	dsn := cfg.DSN()
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return memory.NewStore(), nil, nil

	case config.StoreFile:
		return file.New(dsn), nil, nil

	case config.StoreRedis:
		var opts []redis.Option
		if cfg.SessionTTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.SessionTTL))
		}
		store, err := redis.NewFromURL(dsn, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("error configuring redis: %w", err)
		}
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("error connecting to redis: %w", err)
		}
		s.closers = append(s.closers, store.Close)
		return store, redis.NewLocker(store.Client(), redis.DefaultLockPrefix), nil

	case config.StoreSQLite, config.StorePostgres:
		driver, err := sqlstore.ParseDriver(cfg.StoreDriver)
		if err != nil {
			return nil, nil, err
		}
		if driver == sqlstore.DriverSQLite {
			if dir := sqliteDir(dsn); dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, nil, err
				}
			}
		}
		db, err := sqlstore.Open(ctx, driver, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("error opening %s store: %w", driver, err)
		}
		store := sqlstore.New(db, driver)
		s.closers = append(s.closers, store.Close)
		return store, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q", cfg.StoreDriver)
}

// sqliteDir returns the parent directory of a file DSN, if any.
func sqliteDir(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	path, _, _ = strings.Cut(path, "?")
	if path == "" || path == ":memory:" {
		return ""
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return ""
	}
	return dir
}

// storeMiddleware returns redaction before encryption, so masked values are what gets sealed.
func storeMiddleware(cfg config.Config, cat *domain.Catalog) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if cfg.RedactFreeText {
		var list []*domain.Survey
		for _, id := range cat.IDs() {
			s, _ := cat.Survey(id)
			list = append(list, s)
		}
		if patterns := middleware.FreeTextQuestions(list...); len(patterns) > 0 {
			mws = append(mws, middleware.NewRedactionMiddleware(patterns))
		}
	}
	if cfg.EncryptionKey != "" {
		active, err := middleware.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid encryption key: %w", err)
		}
		enc := middleware.EncryptionConfig{ActiveKey: active}
		for _, k := range cfg.FallbackKeys {
			fb, err := middleware.ParseKey(k)
			if err != nil {
				return nil, fmt.Errorf("invalid fallback key: %w", err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, fb)
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(enc))
	}
	return mws, nil
}
