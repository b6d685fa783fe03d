package channels

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"influencer/internal/services"
	"influencer/internal/stage"
)

// ProfileFile is the per-channel YAML file name.
const ProfileFile = "channel.yaml"

// Profile is the YAML form of a channel.
type Profile struct {
	DisplayName string `yaml:"name"`
	SeriesID    string `yaml:"series"`
	Production  bool   `yaml:"production"`
	Upload      bool   `yaml:"posting"`
	Translation bool   `yaml:"translation"`
	Phonetic    *bool  `yaml:"phonetic_pass"`

	Weekdays []int `yaml:"upload_weekdays"`

	Sound struct {
		Voice Voice `yaml:"voice"`
		Mix   Mix   `yaml:"mix"`
	} `yaml:"sound"`

	YouTube struct {
		CategoryID string `yaml:"category_id"`
		Language   string `yaml:"language"`
		TokenFile  string `yaml:"token_file"`
	} `yaml:"youtube"`

	Thumbnail struct {
		Colors []string `yaml:"colors"`
	} `yaml:"thumbnail"`

	Images struct {
		StockQuery string `yaml:"stock_query"`
	} `yaml:"images"`

	Prompts struct {
		Script    string `yaml:"script"`
		Phonetic  string `yaml:"phonetic"`
		Subtitles string `yaml:"subtitles"`
	} `yaml:"prompts"`

	dir string
}

var _ Channel = (*Profile)(nil)

var seriesPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

// LoadProfile reads dir/channel.yaml. The directory name is the channel name
// unless the file sets one.
func LoadProfile(dir string) (*Profile, error) {
	path := filepath.Join(dir, ProfileFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "channels", "read profile", path, err)
	}
	p := &Profile{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "channels", "parse profile", path, err)
	}
	p.dir = dir
	if strings.TrimSpace(p.DisplayName) == "" {
		p.DisplayName = filepath.Base(dir)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the fields the loops rely on.
func (p *Profile) Validate() error {
	if !seriesPattern.MatchString(p.SeriesID) {
		return services.Wrap(services.ErrConfiguration, "channels", "validate",
			fmt.Sprintf("%s: series %q must be alphanumeric and start with a letter", p.DisplayName, p.SeriesID), nil)
	}
	for _, d := range p.Weekdays {
		if d < 0 || d > 6 {
			return services.Wrap(services.ErrConfiguration, "channels", "validate",
				fmt.Sprintf("%s: upload weekday %d outside 0-6", p.DisplayName, d), nil)
		}
	}
	if p.Upload && len(p.Weekdays) == 0 {
		return services.Wrap(services.ErrConfiguration, "channels", "validate",
			p.DisplayName+": posting channels need upload_weekdays", nil)
	}
	return nil
}

func (p *Profile) Name() string    { return p.DisplayName }
func (p *Profile) Series() string  { return p.SeriesID }
func (p *Profile) Dir() string     { return p.dir }
func (p *Profile) Producing() bool { return p.Production }
func (p *Profile) Posting() bool   { return p.Upload }

func (p *Profile) InferenceOptions() stage.Options {
	return stage.Options{Translation: p.Translation}
}

func (p *Profile) ScriptPrompt() string   { return p.Prompts.Script }
func (p *Profile) PhoneticPrompt() string { return p.Prompts.Phonetic }
func (p *Profile) SubtitlePrompt() string { return p.Prompts.Subtitles }

// PhoneticPass defaults to on.
func (p *Profile) PhoneticPass() bool { return p.Phonetic == nil || *p.Phonetic }

func (p *Profile) Voice() Voice { return p.Sound.Voice }

// Mix fills in the defaults used for mass production.
func (p *Profile) Mix() Mix {
	m := p.Sound.Mix
	if m.VoiceSpeed == 0 {
		m.VoiceSpeed = 1.125
	}
	if m.SongVolumeDB == 0 {
		m.SongVolumeDB = -20
	}
	return m
}

// TokenFile defaults to <channel>.json.
func (p *Profile) TokenFile() string {
	if p.YouTube.TokenFile != "" {
		return p.YouTube.TokenFile
	}
	return p.DisplayName + ".json"
}

// CategoryID defaults to People & Blogs.
func (p *Profile) CategoryID() string {
	if p.YouTube.CategoryID == "" {
		return "22"
	}
	return p.YouTube.CategoryID
}

func (p *Profile) Language() string {
	if p.YouTube.Language == "" {
		return "en"
	}
	return p.YouTube.Language
}

func (p *Profile) UploadWeekdays() []int { return append([]int(nil), p.Weekdays...) }

func (p *Profile) ThumbnailColors() []string {
	if len(p.Thumbnail.Colors) == 0 {
		return []string{"#FFFFFF"}
	}
	return p.Thumbnail.Colors
}

func (p *Profile) StockQuery() string { return p.Images.StockQuery }

// Storage layout under a channel directory.

// OutputsDir holds the channel's work items.
func OutputsDir(ch Channel) string { return filepath.Join(ch.Dir(), "Outputs") }

// ImagesDir holds the image categories named by topic codes.
func ImagesDir(ch Channel) string { return filepath.Join(ch.Dir(), "clean_data") }
