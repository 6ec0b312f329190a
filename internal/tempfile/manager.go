// Package tempfile manages the lifecycle of uploaded media on local disk:
// staging under unique names, guaranteed release, and periodic sweeping of
// anything left behind.
package tempfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrUnsupportedFormat is returned when an upload's extension is outside the
// audio/video allow-list. Checked before anything touches the disk.
var ErrUnsupportedFormat = errors.New("file format not accepted")

var audioExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".ogg": true, ".flac": true, ".m4a": true, ".aac": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".avi": true, ".mov": true, ".mkv": true,
	".webm": true, ".flv": true, ".wmv": true,
}

// unsafeChars matches everything that is stripped from original filenames
// before they are used as part of an on-disk name.
var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Kind classifies an upload by its declared extension.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// IsAudioFile reports whether the filename carries a supported audio extension.
func IsAudioFile(name string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(name))]
}

// IsVideoFile reports whether the filename carries a supported video extension.
func IsVideoFile(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}

// Allowed reports whether the filename is on the audio/video allow-list.
func Allowed(name string) bool {
	return IsAudioFile(name) || IsVideoFile(name)
}

// Staged is one materialized upload inside the manager's work directory.
type Staged struct {
	Path string
	Kind Kind
}

// Manager stages uploads inside a single work directory. Path generation is
// collision-free under concurrent requests: every staged file gets a fresh
// UUID prefix.
type Manager struct {
	dir string
}

func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	return &Manager{dir: dir}, nil
}

// Dir returns the manager's work directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Stage validates the declared extension and writes the upload to a uniquely
// named file. On ErrUnsupportedFormat nothing has been written.
func (m *Manager) Stage(filename string, r io.Reader) (*Staged, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	kind := KindAudio
	switch {
	case audioExtensions[ext]:
	case videoExtensions[ext]:
		kind = KindVideo
	default:
		return nil, ErrUnsupportedFormat
	}

	path := filepath.Join(m.dir, uuid.New().String()+"_"+sanitize(filename))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create staged file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write staged file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("close staged file: %w", err)
	}

	return &Staged{Path: path, Kind: kind}, nil
}

// Release deletes every given file. Missing files are ignored so it is safe
// to defer unconditionally with paths that may never have been created.
func (m *Manager) Release(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", p).Msg("failed to remove temp file")
		}
	}
}

// Sweep removes entries in the work directory older than maxAge and returns
// how many were deleted. It backstops Release for files orphaned by crashes.
func (m *Manager) Sweep(maxAge time.Duration) int {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read temp directory")
		return 0
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(m.dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to sweep temp entry")
			continue
		}
		removed++
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("temp directory swept")
	}
	return removed
}

// StartSweeper runs Sweep on a fixed interval until ctx is cancelled.
func (m *Manager) StartSweeper(ctx context.Context, interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Sweep(maxAge)
			}
		}
	}()
}

func sanitize(filename string) string {
	name := filepath.Base(filename)
	name = unsafeChars.ReplaceAllString(name, "_")
	// Base alone can degenerate to dots or nothing; the UUID prefix still
	// makes the final name valid and unique.
	return strings.Trim(name, ".")
}
