package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/transcript-relay/backend/internal/crypto"
	"github.com/transcript-relay/backend/internal/fal"
	"github.com/transcript-relay/backend/internal/ffmpeg"
	"github.com/transcript-relay/backend/internal/language"
	"github.com/transcript-relay/backend/internal/tempfile"
)

// FileTranscriber is the remote speech-to-text capability behind the file
// endpoint.
type FileTranscriber interface {
	Transcribe(ctx context.Context, audioPath, apiKey, lang string) (*fal.Result, error)
}

type TranscribeHandler struct {
	cipher      *crypto.Cipher
	temp        *tempfile.Manager
	transcriber FileTranscriber
	maxFileSize int64
	timeout     time.Duration
	convert     func(ctx context.Context, inputPath string) (string, error)
	probe       func(filePath string) (float64, error)
}

func NewTranscribeHandler(cipher *crypto.Cipher, temp *tempfile.Manager, transcriber FileTranscriber, maxFileSize int64, timeout time.Duration) *TranscribeHandler {
	return &TranscribeHandler{
		cipher:      cipher,
		temp:        temp,
		transcriber: transcriber,
		maxFileSize: maxFileSize,
		timeout:     timeout,
		convert:     ffmpeg.ToMP3,
		probe:       ffmpeg.Duration,
	}
}

type fileChunk struct {
	Text      string     `json:"text"`
	Timestamp [2]float64 `json:"timestamp"`
}

type fileResponse struct {
	Status         string      `json:"status"`
	Transcription  string      `json:"transcription"`
	Chunks         []fileChunk `json:"chunks"`
	Language       string      `json:"language"`
	ProcessingTime string      `json:"processing_time"`
}

// TranscribeFile handles POST /transcribe/file: multipart fields `file`,
// `fal_key` (encrypted) and optional `language`. Every temp artifact is
// released before the response is written, on every exit path.
func (h *TranscribeHandler) TranscribeFile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			jsonError(w, fmt.Sprintf("File too large, maximum size is %.1f GB",
				float64(h.maxFileSize)/(1024*1024*1024)), http.StatusBadRequest)
		default:
			jsonError(w, "No file provided", http.StatusBadRequest)
		}
		return
	}
	defer file.Close()

	if header.Filename == "" {
		jsonError(w, "No file selected", http.StatusBadRequest)
		return
	}
	if !tempfile.Allowed(header.Filename) {
		jsonError(w, "File format not accepted", http.StatusBadRequest)
		return
	}

	encryptedKey := r.FormValue("fal_key")
	if encryptedKey == "" {
		jsonError(w, "No FAL API key provided", http.StatusBadRequest)
		return
	}
	apiKey, err := h.cipher.Decrypt(encryptedKey)
	if err != nil || apiKey == "" {
		jsonError(w, "Failed to decrypt FAL API key", http.StatusBadRequest)
		return
	}

	lang := language.Resolve(r.FormValue("language"))

	staged, err := h.temp.Stage(header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}
	cleanup := []string{staged.Path}
	defer func() { h.temp.Release(cleanup...) }()

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	audioPath, err := h.convert(ctx, staged.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	cleanup = append(cleanup, audioPath)

	// A failed probe is not fatal; a confirmed zero-length track is.
	if seconds, err := h.probe(audioPath); err == nil {
		if seconds == 0 {
			jsonError(w, "Converted audio has no duration", http.StatusUnprocessableEntity)
			return
		}
		log.Debug().Float64("duration_sec", seconds).Str("kind", string(staged.Kind)).Msg("audio ready for transcription")
	}

	raw, err := h.transcriber.Transcribe(ctx, audioPath, apiKey, lang)
	if err != nil {
		writeError(w, err)
		return
	}

	jsonResponse(w, normalizeFileResult(raw, lang, time.Since(start)), http.StatusOK)
}

// normalizeFileResult maps the raw provider payload to the caller-facing
// shape. An empty chunk list serializes as [] rather than null.
func normalizeFileResult(raw *fal.Result, lang string, elapsed time.Duration) fileResponse {
	chunks := make([]fileChunk, 0, len(raw.Chunks))
	for _, c := range raw.Chunks {
		chunks = append(chunks, fileChunk{Text: c.Text, Timestamp: c.Timestamp})
	}
	return fileResponse{
		Status:         "success",
		Transcription:  raw.Text,
		Chunks:         chunks,
		Language:       lang,
		ProcessingTime: fmt.Sprintf("%.2f seconds", elapsed.Seconds()),
	}
}
