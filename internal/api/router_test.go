package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/transcript-relay/backend/internal/config"
	"github.com/transcript-relay/backend/internal/crypto"
	"github.com/transcript-relay/backend/internal/fal"
	"github.com/transcript-relay/backend/internal/tempfile"
	"github.com/transcript-relay/backend/internal/youtube"
)

type stubTranscriber struct{}

func (stubTranscriber) Transcribe(ctx context.Context, audioPath, apiKey, lang string) (*fal.Result, error) {
	return &fal.Result{}, nil
}

type stubFetcher struct{}

func (stubFetcher) Fetch(ctx context.Context, req youtube.FetchRequest) (*youtube.Transcript, error) {
	return &youtube.Transcript{Language: req.Language}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	temp, err := tempfile.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	cfg := &config.Config{
		MaxFileSize:    config.DefaultMaxFileSize,
		RequestTimeout: time.Minute,
		CORSOrigins:    []string{"*"},
	}
	return NewRouter(cfg, crypto.New("router-test-secret"), temp, stubTranscriber{}, stubFetcher{})
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestYouTubeRouteWired(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/transcribe/youtube",
		strings.NewReader(`{"videoId":"abc123"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestUnknownRoute(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
