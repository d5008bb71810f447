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

	router "github.com/ekaraca/watchtogether/internal/adapters/http"
	"github.com/ekaraca/watchtogether/internal/app"
	"github.com/ekaraca/watchtogether/internal/config"
	"github.com/ekaraca/watchtogether/internal/core"
	"github.com/ekaraca/watchtogether/internal/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Mode == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	store, err := storage.New(cfg.VideoDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open video storage")
	}

	orch := app.NewOrchestrator(store, core.NewScheduler(), app.Options{
		MaxParticipants:   cfg.MaxParticipants,
		MaxStorageBytes:   cfg.MaxStorageBytes,
		MaxUploadBytes:    cfg.MaxUploadBytes,
		CallTimeout:       cfg.CallTimeout,
		BroadcastDebounce: cfg.BroadcastDebounce,
		ProgressInterval:  cfg.ProgressInterval,
		RetentionAge:      cfg.RetentionAge,
		SweepInterval:     cfg.SweepInterval,
	})
	go orch.Run(ctx)
	go orch.RunRetention(ctx)

	r := router.SetupRouter(ctx, cfg, orch, store)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("watchtogether server started")
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
