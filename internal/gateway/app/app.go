// Package app wires configuration, the generation backend, the dispatcher
// and the search collaborator into a runnable gateway.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/lewa-backend/internal/gateway/config"
	"github.com/yungbote/lewa-backend/internal/gateway/dispatch"
	"github.com/yungbote/lewa-backend/internal/gateway/engine/provider"
	"github.com/yungbote/lewa-backend/internal/gateway/persona"
	"github.com/yungbote/lewa-backend/internal/gateway/search"
	lewahttp "github.com/yungbote/lewa-backend/internal/http"
	httpH "github.com/yungbote/lewa-backend/internal/http/handlers"
	"github.com/yungbote/lewa-backend/internal/observability"
	"github.com/yungbote/lewa-backend/internal/platform/logger"
)

const version = "1.0.0"

type App struct {
	Log        *logger.Logger
	Config     *config.Config
	Dispatcher *dispatch.Dispatcher
	Searcher   search.Searcher
	Messenger  *search.Messenger
	// Metrics is nil unless METRICS_ENABLED is set.
	Metrics *observability.Metrics

	closers []func(context.Context) error
}

// New loads configuration and builds every collaborator. Close must be
// called to release the tracer and the search cache.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return Build(ctx, cfg, log)
}

// Build wires an App from an already loaded configuration.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{Log: log, Config: cfg}
	a.closers = append(a.closers, observability.InitOTel(ctx, log, observability.OtelConfig{
		Environment: cfg.Env,
		Version:     version,
	}))

	reg, err := loadPersonas(cfg.Personas)
	if err != nil {
		return nil, errors.Join(err, a.Close(ctx))
	}

	backend, err := provider.New(ctx, cfg.Provider, log)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init provider: %w", err), a.Close(ctx))
	}
	if observability.Enabled() {
		a.Metrics = observability.NewMetrics()
	}
	a.Dispatcher = dispatch.New(reg, backend, log, dispatch.WithMetrics(a.Metrics))

	a.Searcher = a.buildSearcher(ctx)
	a.Messenger = search.NewMessenger(a.Searcher)

	log.Info("gateway ready",
		"env", cfg.Env,
		"backend", backend.Name(),
		"subjects", len(reg.Subjects()),
		"search_configured", strings.TrimSpace(cfg.Search.APIKey) != "",
		"metrics", a.Metrics != nil,
	)
	return a, nil
}

func loadPersonas(cfg config.PersonasConfig) (*persona.Registry, error) {
	if p := strings.TrimSpace(cfg.Path); p != "" {
		reg, err := persona.Load(p)
		if err != nil {
			return nil, fmt.Errorf("load personas from %s: %w", p, err)
		}
		return reg, nil
	}
	reg, err := persona.Default()
	if err != nil {
		return nil, fmt.Errorf("load embedded personas: %w", err)
	}
	return reg, nil
}

// buildSearcher puts the redis cache in front of SerpApi when configured. An
// unreachable redis only disables caching.
func (a *App) buildSearcher(ctx context.Context) search.Searcher {
	sc := a.Config.Search
	var s search.Searcher = search.NewSerpAPI(sc)
	if strings.TrimSpace(sc.RedisAddr) == "" {
		return s
	}
	store, closeStore, err := search.NewRedisStore(ctx, sc.RedisAddr, sc.RedisPassword, sc.RedisDB)
	if err != nil {
		a.Log.Warn("search cache disabled", "addr", sc.RedisAddr, "error", err)
		return s
	}
	a.closers = append(a.closers, func(context.Context) error { return closeStore() })
	a.Log.Info("search cache enabled", "addr", sc.RedisAddr, "ttl", sc.CacheTTL.Duration.String())
	return search.NewCached(s, store, sc.CacheTTL.Duration, a.Log)
}

// Server builds the HTTP server for this App.
func (a *App) Server() *lewahttp.Server {
	return lewahttp.NewServer(a.Config.HTTP, lewahttp.RouterConfig{
		Log:           a.Log,
		Metrics:       a.Metrics,
		TutorHandler:  httpH.NewTutorHandler(a.Dispatcher),
		SearchHandler: httpH.NewSearchHandler(a.Searcher, a.Messenger, a.Config.Search.DefaultNumResults, a.Metrics),
		HealthHandler: httpH.NewHealthHandler(a.Dispatcher),
	})
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	return a.Server().Run(ctx)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	a.Log.Sync()
	return errors.Join(errs...)
}
