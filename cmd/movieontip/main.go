package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/movieontip/movieontip/internal/api"
	"github.com/movieontip/movieontip/internal/catalog"
	"github.com/movieontip/movieontip/internal/config"
	"github.com/movieontip/movieontip/internal/health"
	"github.com/movieontip/movieontip/internal/logger"
	"github.com/movieontip/movieontip/internal/scheduler"
	"github.com/movieontip/movieontip/internal/scheduler/tasks"
	"github.com/movieontip/movieontip/internal/startup"
	"github.com/movieontip/movieontip/internal/views"
	"github.com/movieontip/movieontip/internal/websocket"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:           cfg.Logging.Level,
		Format:          cfg.Logging.Format,
		Path:            cfg.Logging.Path,
		MaxSizeMB:       cfg.Logging.MaxSizeMB,
		MaxBackups:      cfg.Logging.MaxBackups,
		MaxAgeDays:      cfg.Logging.MaxAgeDays,
		Compress:        cfg.Logging.Compress,
		EnableStreaming: true,
		BufferSize:      1000,
	})
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("backend", cfg.Backend.BaseURL).
		Str("logLevel", cfg.Logging.Level).
		Msg("starting MovieOnTip")

	hub := websocket.NewHub(log.Logger)
	go hub.Run()

	// Enable log streaming via WebSocket now that hub is available
	log.SetBroadcastHub(hub)

	client := catalog.NewClient(cfg.Backend, log.Logger)

	healthSvc := health.NewService(log.Logger)
	healthSvc.SetBroadcaster(hub)

	registry := views.NewRegistry(client, hub, views.Options{
		NotificationDelay: time.Duration(cfg.UI.NotificationDelayMs) * time.Millisecond,
		ImageBaseURL:      cfg.Backend.BaseURL,
	}, log.Logger)

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}

	server, err := api.NewServer(api.Deps{
		Config:    cfg,
		Registry:  registry,
		Catalog:   client,
		Hub:       hub,
		Health:    healthSvc,
		Scheduler: sched,
		Logs:      log,
		Logger:    log.Logger,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create API server")
	}

	maxIdle := time.Duration(cfg.UI.ViewIdleMinutes) * time.Minute
	if err := tasks.RegisterViewSweepTask(sched, registry, cfg.Scheduler.ViewSweepCron, maxIdle, log.Logger); err != nil {
		log.Fatal().Err(err).Msg("failed to register view sweep task")
	}
	if err := tasks.RegisterBackendHealthTask(sched, client, healthSvc, cfg.Scheduler.BackendHealthCron, log.Logger); err != nil {
		log.Fatal().Err(err).Msg("failed to register backend health task")
	}
	if err := tasks.RegisterRealtimeHealthTask(sched, hub, healthSvc, cfg.Scheduler.BackendHealthCron, log.Logger); err != nil {
		log.Fatal().Err(err).Msg("failed to register realtime health task")
	}
	if err := tasks.RegisterRateLimitCleanupTask(sched, server.Limiter(), cfg.Scheduler.RateLimitCleanupCron, log.Logger); err != nil {
		log.Fatal().Err(err).Msg("failed to register rate limit cleanup task")
	}

	// The backend may start after us; pages render the error state until it does.
	if err := startup.WaitForBackend(context.Background(), client, startup.DefaultRetryConfig(), log.Logger); err != nil {
		log.Warn().Err(err).Msg("catalog backend unreachable, continuing")
	}

	sched.Start()

	go func() {
		if err := server.Start(cfg.Server.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	registry.CloseAll()
	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown error")
	}
	hub.Stop()

	log.Info().Msg("server stopped")
}
