package stage

import (
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Marker is one recognised artifact.
type Marker uint16

const (
	Script Marker = 1 << iota
	Narration
	Transcript
	Video
	Thumbnail
	Approval
	Denial
	YouTube
	TikTok
	Translation
)

// Artifact file names inside a work item directory.
const (
	ScriptFile      = "text.txt"
	NarrationFile   = "audios/labs.mp3"
	TranscriptFile  = "flattened_transcription.json"
	VideoPattern    = "*.mp4"
	ThumbnailFile   = "thumbnail_vertical.jpg"
	ApprovalFile    = "approved.txt"
	DenialFile      = "denied.txt"
	YouTubeFile     = "youtube.txt"
	TikTokFile      = "tiktok.txt"
	TranslationFile = "english.txt"
)

var patterns = []struct {
	marker  Marker
	pattern string
}{
	{Script, ScriptFile},
	{Narration, NarrationFile},
	{Transcript, TranscriptFile},
	{Video, VideoPattern},
	{Thumbnail, ThumbnailFile},
	{Approval, ApprovalFile},
	{Denial, DenialFile},
	{YouTube, YouTubeFile},
	{TikTok, TikTokFile},
	{Translation, TranslationFile},
}

// platformMarkers are the per-platform upload confirmations.
var platformMarkers = []Marker{YouTube, TikTok}

// Set is a collection of markers.
type Set uint16

// Of builds a Set.
func Of(markers ...Marker) Set {
	var s Set
	for _, m := range markers {
		s |= Set(m)
	}
	return s
}

// Has reports whether every given marker is present.
func (s Set) Has(markers ...Marker) bool {
	for _, m := range markers {
		if s&Set(m) == 0 {
			return false
		}
	}
	return true
}

// With returns s plus m.
func (s Set) With(m Marker) Set { return s | Set(m) }

// Without returns s minus m.
func (s Set) Without(m Marker) Set { return s &^ Set(m) }

func (s Set) platforms() int {
	n := 0
	for _, m := range platformMarkers {
		if s.Has(m) {
			n++
		}
	}
	return n
}

func (s Set) String() string {
	var names []string
	for _, p := range patterns {
		if s.Has(p.marker) {
			names = append(names, p.pattern)
		}
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// Collect scans dir for marker artifacts. Only regular files count.
func Collect(dir string) (Set, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return 0, fmt.Errorf("stat item directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("item path %s is not a directory", dir)
	}
	fsys := os.DirFS(dir)
	var set Set
	for _, p := range patterns {
		matches, err := doublestar.Glob(fsys, p.pattern, doublestar.WithFilesOnly())
		if err != nil {
			return 0, fmt.Errorf("match %s: %w", p.pattern, err)
		}
		if len(matches) > 0 {
			set = set.With(p.marker)
		}
	}
	return set, nil
}
