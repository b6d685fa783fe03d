package production

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"influencer/internal/fileutil"
	"influencer/internal/services"
	"influencer/internal/workitem"
)

// ScriptSeparator splits the generated text into its five parts.
const ScriptSeparator = "$$$$"

// MaxKeywords bounds keywords.txt; YouTube rejects longer tag lists.
const MaxKeywords = 400

var (
	stripChars       = strings.NewReplacer(`"`, "", "{", "", "}", "", "<", "", ">", "")
	sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)
)

// Parts are the sections of a generated script.
type Parts struct {
	Script    string
	Title     string
	Thumbnail string
	Footer    string
	Keywords  string
}

// SplitScript separates raw model output laid out as
// script $$$$ title $$$$ thumbnail $$$$ footer $$$$ keywords.
func SplitScript(raw string) (Parts, error) {
	sections := strings.Split(stripChars.Replace(raw), ScriptSeparator)
	if len(sections) != 5 {
		return Parts{}, services.Wrap(services.ErrContentIncomplete, "script", "split",
			fmt.Sprintf("expected 5 sections, got %d", len(sections)), nil)
	}
	for i := range sections {
		sections[i] = strings.TrimSpace(sections[i])
	}
	p := Parts{
		Script:    strings.ReplaceAll(sections[0], "#", ""),
		Title:     sections[1],
		Thumbnail: sections[2],
		Footer:    footer(sections[3]),
		Keywords:  keywords(sections[4]),
	}
	if p.Script == "" || p.Title == "" {
		return Parts{}, services.Wrap(services.ErrContentIncomplete, "script", "split", "empty script or title", nil)
	}
	return p, nil
}

// footer keeps the footer's own hashtags and appends #shorts.
func footer(section string) string {
	pieces := strings.Split(section, "#")
	text := strings.TrimSpace(pieces[0])
	var tags []string
	for _, tag := range pieces[1:] {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, "#"+tag)
		}
	}
	tags = append(tags, "#shorts")
	return fmt.Sprintf("%s \n.\n %s", text, strings.Join(tags, " "))
}

func keywords(section string) string {
	section = strings.Join(strings.Fields(section), " ")
	if len(section) > MaxKeywords {
		section = section[:MaxKeywords]
		if cut := strings.LastIndex(section, ","); cut > 0 {
			section = section[:cut]
		}
	}
	return strings.TrimRight(section, ", ")
}

// Write stores the parts in dir.
func (p Parts) Write(dir string) error {
	files := []struct{ name, body string }{
		{workitem.ScriptFile, p.Script},
		{workitem.TitleFile, p.Title},
		{workitem.ThumbnailTextFile, p.Thumbnail},
		{workitem.FooterFile, p.Footer},
		{workitem.KeywordsFile, p.Keywords},
	}
	for _, f := range files {
		if err := fileutil.WriteFileAtomic(filepath.Join(dir, f.name), []byte(f.body), 0o644); err != nil {
			return services.Wrap(services.ErrStorage, "script", "write parts", f.name, err)
		}
	}
	return nil
}

// Sentences splits narration text after each terminator followed by space.
func Sentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var out []string
	start := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[start : loc[0]+1]); s != "" {
			out = append(out, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", services.Wrap(services.ErrStorage, "production", "read", filepath.Base(path), err)
	}
	return strings.TrimSpace(string(data)), nil
}
