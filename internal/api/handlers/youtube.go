package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/transcript-relay/backend/internal/crypto"
	"github.com/transcript-relay/backend/internal/language"
	"github.com/transcript-relay/backend/internal/youtube"
)

// TranscriptFetcher is the remote transcript-retrieval capability behind the
// YouTube endpoint.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, req youtube.FetchRequest) (*youtube.Transcript, error)
}

type YouTubeHandler struct {
	cipher   *crypto.Cipher
	fetcher  TranscriptFetcher
	timeout  time.Duration
	validate *validator.Validate
}

func NewYouTubeHandler(cipher *crypto.Cipher, fetcher TranscriptFetcher, timeout time.Duration) *YouTubeHandler {
	return &YouTubeHandler{
		cipher:   cipher,
		fetcher:  fetcher,
		timeout:  timeout,
		validate: validator.New(),
	}
}

type youtubeRequest struct {
	VideoID            string `json:"videoId" validate:"required"`
	Language           string `json:"language"`
	Proxy              string `json:"proxy"`
	PreserveFormatting bool   `json:"preserveFormatting"`
}

type transcriptEntry struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

type youtubeResponse struct {
	Transcript  []transcriptEntry `json:"transcript"`
	Language    string            `json:"language"`
	IsGenerated bool              `json:"is_generated"`
	// Set only when the transcript was produced by translating another track.
	Translated       bool   `json:"translated,omitempty"`
	OriginalLanguage string `json:"original_language,omitempty"`
}

// Transcribe handles POST /transcribe/youtube. Unlike the file endpoint, an
// unsupported or missing transcript language is an error here, never a
// silent substitution.
func (h *YouTubeHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	var req youtubeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Missing JSON body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		jsonError(w, "Missing videoId in request body", http.StatusBadRequest)
		return
	}

	lang := req.Language
	if lang == "" {
		lang = language.Default
	}

	var proxy *youtube.ProxyConfig
	if req.Proxy != "" {
		proxyString, err := h.cipher.Decrypt(req.Proxy)
		if err != nil {
			jsonError(w, "Failed to decrypt proxy string", http.StatusBadRequest)
			return
		}
		proxy, err = youtube.ParseProxy(proxyString)
		if err != nil {
			jsonError(w, "Invalid proxy string format. Expected format: username:password@hostname:port", http.StatusBadRequest)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	transcript, err := h.fetcher.Fetch(ctx, youtube.FetchRequest{
		VideoID:            req.VideoID,
		Language:           lang,
		Proxy:              proxy,
		PreserveFormatting: req.PreserveFormatting,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	jsonResponse(w, normalizeTranscript(transcript), http.StatusOK)
}

// normalizeTranscript maps the raw adapter result to the caller-facing
// shape. An empty snippet list serializes as [] rather than null.
func normalizeTranscript(t *youtube.Transcript) youtubeResponse {
	entries := make([]transcriptEntry, 0, len(t.Snippets))
	for _, s := range t.Snippets {
		entries = append(entries, transcriptEntry{
			Text:     s.Text,
			Start:    s.Start,
			Duration: s.Duration,
		})
	}
	return youtubeResponse{
		Transcript:       entries,
		Language:         t.Language,
		IsGenerated:      t.IsGenerated,
		Translated:       t.Translated,
		OriginalLanguage: t.SourceLanguage,
	}
}
