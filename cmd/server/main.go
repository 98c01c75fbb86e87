package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ravlin/whereabouts/internal/api"
	"github.com/ravlin/whereabouts/internal/config"
	"github.com/ravlin/whereabouts/internal/inference"
	"github.com/ravlin/whereabouts/internal/store"
	"github.com/ravlin/whereabouts/internal/zones"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	st, err := store.Open(cfg.Storage.Dir, log)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Storage.Dir).Msg("failed to open sighting store")
	}
	log.Info().Str("dir", cfg.Storage.Dir).Strs("labels", st.Labels()).Msg("sighting store opened")

	engine := inference.New(st, log,
		inference.WithFreshness(cfg.Inference.Freshness),
		inference.WithZoneConfig(zones.Config{
			Seeds:             cfg.Zones.Seeds,
			ZoneCount:         cfg.Zones.Count,
			MaxIterations:     cfg.Zones.MaxIterations,
			ConvergenceMeters: cfg.Zones.ConvergenceMeters,
		}),
	)

	router := api.SetupRouter(cfg, st, engine, log)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
