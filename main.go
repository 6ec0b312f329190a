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

	"github.com/transcript-relay/backend/internal/api"
	"github.com/transcript-relay/backend/internal/config"
	"github.com/transcript-relay/backend/internal/crypto"
	"github.com/transcript-relay/backend/internal/fal"
	"github.com/transcript-relay/backend/internal/tempfile"
	"github.com/transcript-relay/backend/internal/youtube"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	cipher := crypto.New(cfg.SecretKey)

	temp, err := tempfile.NewManager(cfg.TempDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize temp directory")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	temp.StartSweeper(ctx, cfg.SweepInterval, cfg.SweepMaxAge)

	falClient := fal.NewClient(cfg.FalQueueURL, cfg.FalRestURL)
	ytClient := youtube.NewClient(cfg.YouTubeBaseURL)

	router := api.NewRouter(cfg, cipher, temp, falClient, ytClient)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("shutting down")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Str("temp_dir", cfg.TempDir).Msg("starting server")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server failed")
	}
}
