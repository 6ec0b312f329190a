package fal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// newWizperServer fakes the fal storage + queue API. statusSequence is
// consumed one entry per status poll.
func newWizperServer(t *testing.T, statusSequence []string, result *Result) *httptest.Server {
	t.Helper()

	polls := 0
	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/storage/upload/initiate", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Key test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"upload_url": server.URL + "/storage/put/abc",
			"file_url":   server.URL + "/files/abc.mp3",
		})
	})
	mux.HandleFunc("/storage/put/abc", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/fal-ai/wizper", func(w http.ResponseWriter, r *http.Request) {
		var args map[string]any
		if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if args["task"] != "transcribe" {
			t.Errorf("expected task=transcribe, got %v", args["task"])
		}
		json.NewEncoder(w).Encode(map[string]string{
			"request_id":   "req-1",
			"status_url":   server.URL + "/requests/req-1/status",
			"response_url": server.URL + "/requests/req-1",
		})
	})
	mux.HandleFunc("/requests/req-1/status", func(w http.ResponseWriter, r *http.Request) {
		status := statusSequence[len(statusSequence)-1]
		if polls < len(statusSequence) {
			status = statusSequence[polls]
		}
		polls++
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	})
	mux.HandleFunc("/requests/req-1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(result)
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func writeAudioFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.mp3")
	if err := os.WriteFile(path, []byte("fake mp3 bytes"), 0o600); err != nil {
		t.Fatalf("write audio file: %v", err)
	}
	return path
}

func newTestClient(url string) *Client {
	c := NewClient(url, url)
	c.pollInterval = time.Millisecond
	return c
}

func TestTranscribe(t *testing.T) {
	want := &Result{
		Text: "hello world",
		Chunks: []Chunk{
			{Timestamp: [2]float64{0, 1.5}, Text: "hello"},
			{Timestamp: [2]float64{1.5, 3}, Text: "world"},
		},
	}
	server := newWizperServer(t, []string{"IN_QUEUE", "IN_PROGRESS", "COMPLETED"}, want)

	got, err := newTestClient(server.URL).Transcribe(context.Background(), writeAudioFile(t), "test-key", "en")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if got.Text != want.Text {
		t.Errorf("text = %q, want %q", got.Text, want.Text)
	}
	if len(got.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got.Chunks))
	}
	if got.Chunks[0].Timestamp != [2]float64{0, 1.5} {
		t.Errorf("unexpected first chunk timestamp: %v", got.Chunks[0].Timestamp)
	}
}

func TestTranscribeBadKey(t *testing.T) {
	server := newWizperServer(t, []string{"COMPLETED"}, &Result{})

	_, err := newTestClient(server.URL).Transcribe(context.Background(), writeAudioFile(t), "wrong-key", "en")
	if !errors.Is(err, ErrAuth) {
		t.Errorf("expected ErrAuth, got %v", err)
	}
}

func TestTranscribeRejectedInput(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/storage/upload/initiate", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":"unsupported media"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	_, err := newTestClient(server.URL).Transcribe(context.Background(), writeAudioFile(t), "test-key", "en")
	if !errors.Is(err, ErrRejected) {
		t.Errorf("expected ErrRejected, got %v", err)
	}
}

func TestTranscribeUpstreamDown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	_, err := newTestClient(server.URL).Transcribe(context.Background(), writeAudioFile(t), "test-key", "en")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestTranscribeNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // immediately unreachable

	_, err := newTestClient(server.URL).Transcribe(context.Background(), writeAudioFile(t), "test-key", "en")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestTranscribeTimeoutWhilePolling(t *testing.T) {
	server := newWizperServer(t, []string{"IN_QUEUE"}, &Result{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(server.URL).Transcribe(ctx, writeAudioFile(t), "test-key", "en")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable on timeout, got %v", err)
	}
}
