package bootstrap

import (
	"context"
	"fmt"
	"io"

	"interviewer/config"
	"interviewer/storage"

	"go.uber.org/zap"
)

// StorageComponents holds the connected store and cache. Either may be nil
// when its URL is not configured.
type StorageComponents struct {
	Database *storage.Database
	Cache    *storage.Cache
}

// Closers returns the connected components in connection order
func (s *StorageComponents) Closers() []Closer {
	var closers []Closer
	if s.Database != nil {
		closers = append(closers, s.Database)
	}
	if s.Cache != nil {
		closers = append(closers, s.Cache)
	}
	return closers
}

// Disconnect releases every connected component in reverse order
func (s *StorageComponents) Disconnect(ctx context.Context) error {
	var firstErr error
	closers := s.Closers()
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Disconnect(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to disconnect %s: %w", closers[i].Name(), err)
		}
	}
	return firstErr
}

// InitDatabase connects the persistence store
func InitDatabase(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger, stderr io.Writer) (*storage.Database, error) {
	db, err := storage.ConnectDatabase(ctx, cfg.DatabaseURL, sugar)
	if err != nil {
		printFatal(stderr, "Database Connection Failed",
			ClassifyConnectionError(err, "database", config.MaskURL(cfg.DatabaseURL)))
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

// InitCache connects the cache
func InitCache(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger, stderr io.Writer) (*storage.Cache, error) {
	cache, err := storage.ConnectCache(ctx, cfg.RedisURL, sugar)
	if err != nil {
		printFatal(stderr, "Cache Connection Failed",
			ClassifyConnectionError(err, "redis", config.MaskURL(cfg.RedisURL)))
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	return cache, nil
}

// InitStorage connects whatever is configured. Startup fails on the first
// connection error; anything connected before it is disconnected again.
func InitStorage(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger, stderr io.Writer) (*StorageComponents, error) {
	components := &StorageComponents{}

	if cfg.DatabaseURL != "" {
		db, err := InitDatabase(ctx, cfg, sugar, stderr)
		if err != nil {
			return nil, err
		}
		components.Database = db
	} else {
		sugar.Info("DATABASE_URL not set, running without a persistence store")
	}

	if cfg.RedisURL != "" {
		cache, err := InitCache(ctx, cfg, sugar, stderr)
		if err != nil {
			if derr := components.Disconnect(ctx); derr != nil {
				sugar.Warnw("Cleanup after failed startup", "error", derr)
			}
			return nil, err
		}
		components.Cache = cache
	} else {
		sugar.Info("REDIS_URL not set, running without a cache")
	}

	return components, nil
}
