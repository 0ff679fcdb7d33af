package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/omex-backend/internal/http"
	"github.com/yungbote/omex-backend/internal/observability"
	"github.com/yungbote/omex-backend/internal/platform/envutil"
	"github.com/yungbote/omex-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics
	Server   *http.Server

	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.OtelEnabled,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
		Endpoint:    cfg.OtelEndpoint,
		Headers:     observability.ParseHeaders(cfg.OtelHeaders),
		Insecure:    cfg.OtelInsecure,
		SampleRatio: cfg.OtelSampleRatio,
	})
	metrics := observability.Init(log, cfg.MetricsEnabled)

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = otelShutdown(context.Background())
		log.Sync()
		return nil, err
	}
	if err := clients.Converter.AssertReady(ctx); err != nil {
		// Uploads fail with a conversion error until this is fixed; the rest of the API still works.
		log.Warn("Mindmap converter not ready", "command", cfg.ConverterCommand, "error", err)
	}

	reposet, err := wireRepos(log, cfg, clients)
	if err != nil {
		clients.Close(log)
		_ = otelShutdown(context.Background())
		log.Sync()
		return nil, err
	}
	serviceset, err := wireServices(log, cfg, clients, reposet)
	if err != nil {
		clients.Close(log)
		_ = otelShutdown(context.Background())
		log.Sync()
		return nil, err
	}

	server := http.NewServer(log, ":"+cfg.Port, wireRouterConfig(log, cfg, clients, serviceset, metrics))

	return &App{
		Log:          log,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Metrics:      metrics,
		Server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP (and /metrics when enabled) until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)
	if a.Cfg.MetricsEnabled {
		a.Metrics.StartServer(gctx, a.Log, a.Cfg.MetricsAddr)
	}
	g.Go(func() error {
		return a.Server.Run(gctx, a.Cfg.ShutdownTimeout)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close(a.Log)
	if a.otelShutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.otelShutdown(shutdownCtx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}
