// Package fal drives speech-to-text transcription through the fal.ai wizper
// model: upload the audio to fal storage, submit a queue request, poll until
// it completes, then fetch the result payload.
package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultQueueURL is the fal.ai queue API endpoint.
	DefaultQueueURL = "https://queue.fal.run"

	// DefaultRestURL is the fal.ai REST API endpoint (storage uploads).
	DefaultRestURL = "https://rest.alpha.fal.ai"

	// modelID is the wizper speech-to-text model.
	modelID = "fal-ai/wizper"
)

var (
	// ErrAuth means the API key was rejected upstream.
	ErrAuth = errors.New("fal: authentication failed")

	// ErrRejected means fal refused the request itself (unsupported input,
	// malformed arguments).
	ErrRejected = errors.New("fal: request rejected")

	// ErrUnavailable covers network failures, timeouts and upstream 5xx.
	ErrUnavailable = errors.New("fal: service unavailable")
)

// Chunk is one time-aligned segment of the wizper output. Timestamp holds
// [start, end] in seconds.
type Chunk struct {
	Timestamp [2]float64 `json:"timestamp"`
	Text      string     `json:"text"`
}

// Result is the raw wizper payload, untouched by normalization.
type Result struct {
	Text              string   `json:"text"`
	Chunks            []Chunk  `json:"chunks"`
	InferredLanguages []string `json:"inferred_languages,omitempty"`
}

// Client talks to fal.ai. The caller's API key travels with each call rather
// than living on the client, since every request may carry a different key.
type Client struct {
	queueURL     string
	restURL      string
	httpClient   *http.Client
	pollInterval time.Duration
}

func NewClient(queueURL, restURL string) *Client {
	if queueURL == "" {
		queueURL = DefaultQueueURL
	}
	if restURL == "" {
		restURL = DefaultRestURL
	}
	return &Client{
		queueURL: queueURL,
		restURL:  restURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute, // uploads and transcriptions can be long
		},
		pollInterval: 2 * time.Second,
	}
}

// Transcribe uploads the audio file and runs wizper on it.
func (c *Client) Transcribe(ctx context.Context, audioPath, apiKey, lang string) (*Result, error) {
	audioURL, err := c.uploadFile(ctx, audioPath, apiKey)
	if err != nil {
		return nil, fmt.Errorf("upload audio: %w", err)
	}

	queued, err := c.submit(ctx, apiKey, map[string]any{
		"audio_url":   audioURL,
		"task":        "transcribe",
		"language":    lang,
		"chunk_level": "segment",
		"version":     "3",
	})
	if err != nil {
		return nil, fmt.Errorf("submit request: %w", err)
	}

	log.Debug().Str("request_id", queued.RequestID).Msg("wizper request queued")

	if err := c.awaitCompletion(ctx, apiKey, queued.StatusURL); err != nil {
		return nil, err
	}

	return c.fetchResult(ctx, apiKey, queued.ResponseURL)
}

type initiateUploadResponse struct {
	UploadURL string `json:"upload_url"`
	FileURL   string `json:"file_url"`
}

// uploadFile pushes the audio to fal storage and returns its public URL.
func (c *Client) uploadFile(ctx context.Context, audioPath, apiKey string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"file_name":    filepath.Base(audioPath),
		"content_type": "audio/mpeg",
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.restURL+"/storage/upload/initiate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+apiKey)

	var initiated initiateUploadResponse
	if err := c.doJSON(req, &initiated); err != nil {
		return "", err
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	putReq, err := http.NewRequestWithContext(ctx, http.MethodPut, initiated.UploadURL, f)
	if err != nil {
		return "", err
	}
	putReq.ContentLength = info.Size()
	putReq.Header.Set("Content-Type", "audio/mpeg")

	resp, err := c.httpClient.Do(putReq)
	if err != nil {
		return "", classifyTransport(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp.StatusCode, "storage upload")
	}

	return initiated.FileURL, nil
}

type queuedRequest struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

func (c *Client) submit(ctx context.Context, apiKey string, args map[string]any) (*queuedRequest, error) {
	body, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.queueURL+"/"+modelID, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+apiKey)

	var queued queuedRequest
	if err := c.doJSON(req, &queued); err != nil {
		return nil, err
	}
	return &queued, nil
}

type queueStatus struct {
	Status string `json:"status"`
}

// awaitCompletion polls the status URL until the request completes or ctx
// expires.
func (c *Client) awaitCompletion(ctx context.Context, apiKey, statusURL string) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Key "+apiKey)

		var status queueStatus
		if err := c.doJSON(req, &status); err != nil {
			return fmt.Errorf("poll status: %w", err)
		}

		switch status.Status {
		case "COMPLETED":
			return nil
		case "IN_QUEUE", "IN_PROGRESS":
		default:
			return fmt.Errorf("%w: unexpected queue status %q", ErrRejected, status.Status)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Client) fetchResult(ctx context.Context, apiKey, responseURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, responseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Key "+apiKey)

	var result Result
	if err := c.doJSON(req, &result); err != nil {
		return nil, fmt.Errorf("fetch result: %w", err)
	}
	return &result, nil
}

// doJSON executes the request, classifies failures into the package error
// taxonomy, and decodes a 200 response into out.
func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return classifyStatus(resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}

func classifyStatus(status int, detail string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w (status %d)", ErrAuth, status)
	case status >= 400 && status < 500:
		return fmt.Errorf("%w (status %d): %s", ErrRejected, status, truncate(detail, 200))
	default:
		return fmt.Errorf("%w (status %d)", ErrUnavailable, status)
	}
}

func classifyTransport(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
