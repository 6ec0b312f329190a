package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/transcript-relay/backend/internal/fal"
	"github.com/transcript-relay/backend/internal/ffmpeg"
	"github.com/transcript-relay/backend/internal/tempfile"
	"github.com/transcript-relay/backend/internal/youtube"
)

func jsonResponse(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	jsonResponse(w, map[string]string{"status": "error", "message": msg}, status)
}

// writeError maps adapter and pipeline errors to the uniform error JSON.
// Unrecognized errors become a generic 500; the detail stays in the server
// log and never reaches the caller.
func writeError(w http.ResponseWriter, err error) {
	var convErr *ffmpeg.ConversionError

	switch {
	case errors.Is(err, tempfile.ErrUnsupportedFormat):
		jsonError(w, "File format not accepted", http.StatusBadRequest)
	case errors.As(err, &convErr):
		log.Error().Err(err).Str("ffmpeg_output", convErr.Output).Msg("media conversion failed")
		jsonError(w, "Failed to convert file to mp3", http.StatusUnprocessableEntity)
	case errors.Is(err, fal.ErrAuth):
		jsonError(w, "Transcription service rejected the API key", http.StatusUnauthorized)
	case errors.Is(err, fal.ErrRejected):
		jsonError(w, "Transcription service rejected the audio", http.StatusUnprocessableEntity)
	case errors.Is(err, fal.ErrUnavailable):
		log.Error().Err(err).Msg("transcription service unavailable")
		jsonError(w, "Transcription service is unavailable, please try again", http.StatusBadGateway)
	case errors.Is(err, youtube.ErrNoTranscript):
		jsonError(w, "No transcript found for this video", http.StatusNotFound)
	case errors.Is(err, youtube.ErrVideoUnavailable):
		jsonError(w, "Video is unavailable", http.StatusNotFound)
	case errors.Is(err, youtube.ErrProxy):
		log.Error().Err(err).Msg("proxy failure on upstream call")
		jsonError(w, "Failed to connect through the configured proxy", http.StatusBadGateway)
	case errors.Is(err, youtube.ErrUnavailable):
		log.Error().Err(err).Msg("youtube unavailable")
		jsonError(w, "Failed to connect to YouTube, please try again", http.StatusBadGateway)
	default:
		log.Error().Err(err).Msg("unhandled request failure")
		jsonError(w, "Internal server error", http.StatusInternalServerError)
	}
}
