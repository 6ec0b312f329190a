package tempfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestStageAndRelease(t *testing.T) {
	m := newTestManager(t)

	staged, err := m.Stage("recording.mp3", strings.NewReader("audio bytes"))
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	if staged.Kind != KindAudio {
		t.Errorf("expected audio kind, got %s", staged.Kind)
	}

	data, err := os.ReadFile(staged.Path)
	if err != nil {
		t.Fatalf("staged file unreadable: %v", err)
	}
	if string(data) != "audio bytes" {
		t.Errorf("staged content mismatch: %q", data)
	}

	m.Release(staged.Path)
	if _, err := os.Stat(staged.Path); !os.IsNotExist(err) {
		t.Error("file still exists after Release")
	}
}

func TestStageVideoKind(t *testing.T) {
	m := newTestManager(t)

	staged, err := m.Stage("clip.MKV", strings.NewReader("video bytes"))
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	if staged.Kind != KindVideo {
		t.Errorf("expected video kind, got %s", staged.Kind)
	}
}

func TestStageRejectsUnsupportedExtension(t *testing.T) {
	m := newTestManager(t)

	tests := []string{"malware.exe", "notes.txt", "noextension", "archive.tar.gz"}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := m.Stage(name, strings.NewReader("x")); !errors.Is(err, ErrUnsupportedFormat) {
				t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
			}
		})
	}

	// Rejection must happen before anything is written.
	entries, err := os.ReadDir(m.Dir())
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty temp dir after rejections, found %d entries", len(entries))
	}
}

func TestConcurrentStagingSameFilename(t *testing.T) {
	m := newTestManager(t)

	const workers = 16
	paths := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			staged, err := m.Stage("same-name.wav", strings.NewReader("data"))
			if err != nil {
				t.Errorf("Stage failed: %v", err)
				return
			}
			paths[i] = staged.Path
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		if seen[p] {
			t.Fatalf("path collision: %s", p)
		}
		seen[p] = true
	}
	if len(seen) != workers {
		t.Errorf("expected %d distinct paths, got %d", workers, len(seen))
	}
}

func TestReleaseToleratesMissingFiles(t *testing.T) {
	m := newTestManager(t)
	// Must not panic or error on never-created paths.
	m.Release("", filepath.Join(m.Dir(), "never-existed.mp3"))
}

func TestSweep(t *testing.T) {
	m := newTestManager(t)

	staged, err := m.Stage("old.mp3", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(staged.Path, old, old); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	fresh, err := m.Stage("fresh.mp3", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	if removed := m.Sweep(24 * time.Hour); removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}
	if _, err := os.Stat(staged.Path); !os.IsNotExist(err) {
		t.Error("old file survived sweep")
	}
	if _, err := os.Stat(fresh.Path); err != nil {
		t.Error("fresh file removed by sweep")
	}
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a.mp3", true},
		{"a.FLAC", true},
		{"a.webm", true},
		{"a.exe", false},
		{"a", false},
	}
	for _, tc := range tests {
		if got := Allowed(tc.name); got != tc.want {
			t.Errorf("Allowed(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}
