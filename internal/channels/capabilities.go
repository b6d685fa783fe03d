package channels

import "influencer/internal/stage"

// ScriptStyle supplies the prompts that shape generated text.
type ScriptStyle interface {
	ScriptPrompt() string
	PhoneticPrompt() string
	SubtitlePrompt() string
	// PhoneticPass reports whether narration text is respelled before TTS.
	PhoneticPass() bool
}

// Voice selects and tunes the TTS voice.
type Voice struct {
	ID         string  `yaml:"id"`
	Stability  float64 `yaml:"stability"`
	Similarity float64 `yaml:"similarity"`
	Style      float64 `yaml:"style"`
}

// Mix describes the background music bed and narration treatment.
type Mix struct {
	Song         string  `yaml:"song"`
	SongVolumeDB float64 `yaml:"song_volume_db"`
	VoiceBoostDB float64 `yaml:"voice_boost_db"`
	VoiceSpeed   float64 `yaml:"voice_speed"`
}

// SoundProfile supplies narration and mixing parameters.
type SoundProfile interface {
	Voice() Voice
	Mix() Mix
}

// Credentials locates the upload authorisation for a channel.
type Credentials interface {
	// TokenFile is the OAuth token cache file name under the token directory.
	TokenFile() string
}

// UploadParams supplies per-channel upload metadata and calendar policy.
type UploadParams interface {
	CategoryID() string
	Language() string
	// UploadWeekdays uses 0 for Monday through 6 for Sunday.
	UploadWeekdays() []int
}

// ThumbnailStyle supplies thumbnail text colours as hex strings.
type ThumbnailStyle interface {
	ThumbnailColors() []string
}

// ImageSource says where a channel's pictures come from.
type ImageSource interface {
	// StockQuery, when non-empty, enables stock providers with this query
	// prefix in addition to the channel's clean_data category.
	StockQuery() string
}

// Channel is the full capability set of one influencer.
type Channel interface {
	Name() string
	Series() string
	Dir() string
	Producing() bool
	Posting() bool
	InferenceOptions() stage.Options
	ScriptStyle
	SoundProfile
	Credentials
	UploadParams
	ThumbnailStyle
	ImageSource
}
