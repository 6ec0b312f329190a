package ffmpeg

import (
	"encoding/json"
	"os/exec"
	"strconv"
)

type probeResult struct {
	Format probeFormat `json:"format"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

// Duration returns the media duration in seconds, or 0 if ffprobe cannot
// determine it.
func Duration(filePath string) (float64, error) {
	cmd := exec.Command("ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		filePath,
	)

	output, err := cmd.Output()
	if err != nil {
		return 0, err
	}

	var result probeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return 0, err
	}

	seconds, _ := strconv.ParseFloat(result.Format.Duration, 64)
	return seconds, nil
}
