package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/transcript-relay/backend/internal/api/handlers"
	"github.com/transcript-relay/backend/internal/api/middleware"
	"github.com/transcript-relay/backend/internal/config"
	"github.com/transcript-relay/backend/internal/crypto"
	"github.com/transcript-relay/backend/internal/tempfile"
)

func NewRouter(cfg *config.Config, cipher *crypto.Cipher, temp *tempfile.Manager, transcriber handlers.FileTranscriber, fetcher handlers.TranscriptFetcher) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(middleware.CORSHandler(cfg.CORSOrigins)))

	// Handlers
	transcribeHandler := handlers.NewTranscribeHandler(cipher, temp, transcriber, cfg.MaxFileSize, cfg.RequestTimeout)
	youtubeHandler := handlers.NewYouTubeHandler(cipher, fetcher, cfg.RequestTimeout)

	r.Get("/health", handlers.Health)
	r.Post("/transcribe/file", transcribeHandler.TranscribeFile)
	r.With(middleware.JSONBodyLimit).Post("/transcribe/youtube", youtubeHandler.Transcribe)

	return r
}
