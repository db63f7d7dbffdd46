package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/nst-content-backend/internal/content/cache"
	"github.com/yungbote/nst-content-backend/internal/content/config"
	"github.com/yungbote/nst-content-backend/internal/content/grounding"
	"github.com/yungbote/nst-content-backend/internal/content/httpapi"
	"github.com/yungbote/nst-content-backend/internal/content/keystore"
	"github.com/yungbote/nst-content-backend/internal/content/observability"
	"github.com/yungbote/nst-content-backend/internal/content/override"
	"github.com/yungbote/nst-content-backend/internal/content/resolver"
	"github.com/yungbote/nst-content-backend/internal/content/rotation"
	"github.com/yungbote/nst-content-backend/internal/content/settings"
	"github.com/yungbote/nst-content-backend/internal/content/storage"
	"github.com/yungbote/nst-content-backend/internal/content/upstream"
	"github.com/yungbote/nst-content-backend/internal/platform/logger"
	"github.com/yungbote/nst-content-backend/internal/platform/shutdown"
)

type App struct {
	Log      *logger.Logger
	Config   *config.Config
	Resolver *resolver.Resolver
	Handler  http.Handler

	server        *http.Server
	db            *gorm.DB
	closeCache    func() error
	shutdownTrace func(context.Context) error
}

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

// Build wires every component from an already loaded configuration.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	shutdownTrace := observability.InitOTel(ctx, log, cfg.Tracing, cfg.Env)

	db, err := storage.Open(cfg.Storage, log)
	if err != nil {
		return nil, err
	}
	overrides := override.NewGormStore(db, log)
	if err := overrides.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("migrate overrides: %w", err)
	}
	settingsStore := settings.NewStore(db, log, settings.Static{
		Keys:  cfg.Upstream.Keys,
		Style: cfg.Upstream.StyleInstruction,
	})
	if err := settingsStore.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("migrate settings: %w", err)
	}

	sessionCache, closeCache, err := cache.Open(ctx, cfg.Cache, log)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	eng, err := upstream.New(ctx, cfg.Upstream)
	if err != nil {
		_ = closeCache()
		return nil, err
	}

	keys := keystore.New(settingsStore, cfg.Upstream, log)
	res := resolver.New(resolver.Deps{
		Cache:     sessionCache,
		Overrides: overrides,
		Grounding: grounding.NewFinder(sessionCache, overrides, cfg.Grounding.MaxChars),
		Style:     settingsStore,
		Executor:  rotation.New(keys, log),
		Engine:    eng,
	}, cfg.Upstream, cfg.Pacing, log)

	var admin *httpapi.AdminHandler
	if cfg.Admin.JWTSecret != "" {
		admin = httpapi.NewAdminHandler(overrides, settingsStore, log)
	} else {
		log.Warn("admin.jwt_secret not set; admin routes disabled")
	}
	handler := httpapi.NewRouter(httpapi.RouterConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		AdminSecret:    cfg.Admin.JWTSecret,
		Log:            log,
		ContentHandler: httpapi.NewContentHandler(res),
		AdminHandler:   admin,
	})

	log.Info("content service wired",
		"engine", cfg.Upstream.Engine,
		"storage", cfg.Storage.Driver,
		"cache", cfg.Cache.Backend,
		"standard_model", cfg.Upstream.StandardModel,
		"advanced_model", cfg.Upstream.AdvancedModel,
	)

	return &App{
		Log:           log,
		Config:        cfg,
		Resolver:      res,
		Handler:       handler,
		server:        httpapi.NewServer(cfg.HTTP, handler),
		db:            db,
		closeCache:    closeCache,
		shutdownTrace: shutdownTrace,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Log.Info("http server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := shutdown.Drain(a.Config.HTTP.ShutdownTimeout)
		defer cancel()
		err := a.server.Shutdown(shutdownCtx)
		a.Close(shutdownCtx)
		return err
	})

	return g.Wait()
}

// Close releases the cache, the durable store and the tracer provider.
func (a *App) Close(ctx context.Context) {
	if a.closeCache != nil {
		if err := a.closeCache(); err != nil {
			a.Log.Warn("cache close failed", "error", err)
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.shutdownTrace != nil {
		if err := a.shutdownTrace(ctx); err != nil {
			a.Log.Warn("tracer shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}
