// Package ffmpeg wraps the ffmpeg/ffprobe binaries for media conversion.
package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ConversionError reports a failed media conversion, carrying ffmpeg's
// combined output for server-side logging.
type ConversionError struct {
	Output string
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("ffmpeg conversion failed: %v", e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// ToMP3 converts an audio or video file to a single-track MP3 next to the
// input. No partial output is left behind on failure.
func ToMP3(ctx context.Context, inputPath string) (string, error) {
	ext := filepath.Ext(inputPath)
	outputPath := strings.TrimSuffix(inputPath, ext) + ".mp3"
	if outputPath == inputPath {
		outputPath = strings.TrimSuffix(inputPath, ext) + ".norm.mp3"
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner",
		"-loglevel", "error",
		"-i", inputPath,
		"-vn",
		"-acodec", "libmp3lame",
		"-q:a", "4",
		"-y",
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(outputPath)
		return "", &ConversionError{Output: string(output), Err: err}
	}

	return outputPath, nil
}
