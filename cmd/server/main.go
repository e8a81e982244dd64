package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "coedit/server/internal/adapters/http"
	wssignal "coedit/server/internal/adapters/signal"
	"coedit/server/internal/app"
	"coedit/server/internal/cache"
	"coedit/server/internal/config"
	"coedit/server/internal/core"
	"coedit/server/internal/metrics"
	"coedit/server/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	if err := store.EnsureSchema(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("schema setup failed")
	}
	rooms := store.NewRoomStore(db)

	var codeCache *cache.CodeCache
	if cfg.RedisURL != "" {
		codeCache, err = cache.New(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer codeCache.Close()
		log.Info().Msg("document cache enabled")
	}

	m := metrics.New()
	presence := core.NewPresence()
	registry := app.NewRegistry()
	reconciler := app.NewReconciler(rooms)

	// The interface value must stay nil when the cache is disabled.
	var docCache app.DocumentCache
	if codeCache != nil {
		docCache = codeCache
	}
	synchronizer := app.NewSynchronizer(rooms, presence, docCache, m)

	orch := &app.Orchestrator{
		Registry:   registry,
		Presence:   presence,
		Reconciler: reconciler,
		Sync:       synchronizer,
		Metrics:    m,
	}

	ctl := wssignal.NewController(orch, cfg.ReadLimit, cfg.PingPeriod)
	handlers := &router.Handlers{
		Store:      rooms,
		Reconciler: reconciler,
		Cache:      docCache,
		DB:         rooms,
	}

	r := router.SetupRouter(ctx, cfg, ctl, handlers)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("coedit server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
