package media

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"influencer/internal/services"
)

// Info is the subset of ffprobe output the pipeline needs.
type Info struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Format captures container-level metadata.
type Format struct {
	Filename string `json:"filename"`
	Duration string `json:"duration"`
	Size     string `json:"size"`
}

// Probe runs ffprobe against path.
func (t *Toolkit) Probe(ctx context.Context, path string) (Info, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Info{}, errors.New("ffprobe inspect: empty path")
	}
	output, err := t.run(ctx, t.FFprobe, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return Info{}, services.Wrap(services.ErrStorage, "media", "probe", path, err)
	}
	var info Info
	if err := json.Unmarshal(output, &info); err != nil {
		return Info{}, services.Wrap(services.ErrValidation, "media", "parse probe", path, err)
	}
	return info, nil
}

// AudioStreamCount returns the number of audio streams discovered.
func (i Info) AudioStreamCount() int {
	count := 0
	for _, stream := range i.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration, 0 when absent and NaN when
// unparseable.
func (i Info) DurationSeconds() float64 {
	cleaned := strings.TrimSpace(i.Format.Duration)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
