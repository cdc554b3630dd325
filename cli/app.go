// ABOUTME: Shared state for CLI commands: config, API client, response cache and output
// ABOUTME: Reads go through the cache so repeated commands reuse fresh snapshots
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/harperreed/crmview/api"
	"github.com/harperreed/crmview/cache"
	"github.com/harperreed/crmview/config"
	"github.com/harperreed/crmview/db"
)

// Store is a cache.Store that can also be listed and pruned.
type Store interface {
	cache.Store
	Keys(prefix string) ([]string, error)
	Prune(cutoff time.Time) (int, error)
}

// App is bound into every command's Run method.
type App struct {
	Config *config.Config
	Client *api.Client
	Cache  *cache.Manager
	Store  Store
	Logger zerolog.Logger

	Out  io.Writer
	JSON bool
	// MaxAge is how old cached data may be before a command refetches it.
	MaxAge time.Duration
}

type Options struct {
	JSON    bool
	Refresh bool
	Version string
	Out     io.Writer
}

// OpenStore opens the snapshot store selected by cfg.
func OpenStore(cfg *config.Config) (Store, error) {
	switch cfg.CacheBackend {
	case config.BackendBadger:
		return db.OpenBadger(cfg.StorePath(), false)
	case config.BackendMemory:
		return cache.NewMemoryStore(), nil
	}
	return db.OpenSnapshotStore(cfg.StorePath())
}

// NewApp wires a client and cache for cfg.
func NewApp(cfg *config.Config, store Store, logger zerolog.Logger, opts Options) (*App, error) {
	client, err := api.New(cfg.BaseURL,
		api.WithAPIKey(cfg.APIKey),
		api.WithTimeout(cfg.HTTPTimeout),
		api.WithLogger(logger),
		api.WithDebug(cfg.Debug),
		api.WithUserAgent("crmview/"+opts.Version),
	)
	if err != nil {
		return nil, err
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	maxAge := cfg.CacheMaxAge
	if opts.Refresh {
		maxAge = 0
	}

	return &App{
		Config: cfg,
		Client: client,
		Cache: cache.New(
			cache.WithStore(store),
			cache.WithLogger(logger),
			cache.WithDedupeInterval(cfg.DedupeInterval),
		),
		Store:  store,
		Logger: logger,
		Out:    out,
		JSON:   opts.JSON,
		MaxAge: maxAge,
	}, nil
}

// Close stops the cache, which also closes the store.
func (a *App) Close() error {
	return a.Cache.Close()
}

// fetch reads key through the cache, refetching when the snapshot is older than MaxAge.
func fetch[T any](ctx context.Context, a *App, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := a.Cache.Fetch(ctx, key, cache.LoaderFor(load), a.MaxAge)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cached %s has unexpected type %T", key, v)
	}
	return out, nil
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.Out, format, args...)
}
