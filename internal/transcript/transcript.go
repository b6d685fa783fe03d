// Package transcript holds word-level narration timings and the helpers that
// turn them into subtitle cues and script review reports.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"influencer/internal/fileutil"
	"influencer/internal/services"
	"influencer/internal/textutil"
)

// Word is one timed token of a transcription. Times are seconds.
type Word struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Load reads a flattened transcription file.
func Load(path string) ([]Word, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "transcript", "read", path, err)
	}
	var words []Word
	if err := json.Unmarshal(data, &words); err != nil {
		return nil, services.Wrap(services.ErrValidation, "transcript", "parse", path, err)
	}
	return words, nil
}

// Save writes words atomically as indented JSON.
func Save(path string, words []Word) error {
	if words == nil {
		words = []Word{}
	}
	data, err := json.MarshalIndent(words, "", "    ")
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrStorage, "transcript", "write", path, err)
	}
	return nil
}

// Text joins the word texts with single spaces.
func Text(words []Word) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		if t := strings.TrimSpace(w.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Review lists the words that differ between a script and its transcription.
type Review struct {
	// Missing words appear in the script but not in the subtitles.
	Missing []textutil.WordDelta
	// Extra words appear in the subtitles but not in the script.
	Extra      []textutil.WordDelta
	Similarity float64
}

// Compare diffs script against words by word frequency.
func Compare(script string, words []Word) Review {
	want := textutil.WordCounts(script)
	got := textutil.WordCounts(Text(words))
	missing, extra := textutil.DiffWords(want, got)
	return Review{Missing: missing, Extra: extra, Similarity: textutil.Similarity(want, got)}
}

// Clean reports whether script and subtitles agree.
func (r Review) Clean() bool { return len(r.Missing) == 0 && len(r.Extra) == 0 }

func (r Review) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subtitle corrections (similarity %.2f):\n", r.Similarity)
	b.WriteString("\nWords to add (in the script, missing in the subtitles): word : frequency\n")
	writeDeltas(&b, r.Missing)
	b.WriteString("\nWords to remove (in the subtitles, missing in the script): word : frequency\n")
	writeDeltas(&b, r.Extra)
	return b.String()
}

func writeDeltas(b *strings.Builder, deltas []textutil.WordDelta) {
	for _, d := range deltas {
		fmt.Fprintf(b, "%s: %d\n", d.Word, d.Count)
	}
}

// Cue is one subtitle line.
type Cue struct {
	Start float64
	End   float64
	Text  string
}

// Cues groups consecutive words into cues of at most perCue words.
func Cues(words []Word, perCue int) []Cue {
	if perCue < 1 {
		perCue = 1
	}
	var cues []Cue
	for i := 0; i < len(words); i += perCue {
		end := min(i+perCue, len(words))
		group := words[i:end]
		texts := make([]string, 0, len(group))
		for _, w := range group {
			if t := strings.TrimSpace(w.Text); t != "" {
				texts = append(texts, t)
			}
		}
		if len(texts) == 0 {
			continue
		}
		cues = append(cues, Cue{Start: group[0].Start, End: group[len(group)-1].End, Text: strings.Join(texts, " ")})
	}
	return cues
}

// SRT renders cues in SubRip format.
func SRT(cues []Cue) string {
	var b strings.Builder
	for i, c := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, srtTime(c.Start), srtTime(c.End), c.Text)
	}
	return b.String()
}

func srtTime(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Millisecond)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, d/time.Millisecond)
}

// Replace rewrites the text of the words at the given indexes. Out-of-range
// indexes are ignored. It returns the number of words changed.
func Replace(words []Word, replacements map[int]string) int {
	changed := 0
	for idx, text := range replacements {
		text = strings.TrimSpace(text)
		if idx < 0 || idx >= len(words) || text == "" || words[idx].Text == text {
			continue
		}
		words[idx].Text = text
		changed++
	}
	return changed
}
