package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	ChannelsDir string `toml:"channels_dir"`
	LogDir      string `toml:"log_dir"`
	StateDir    string `toml:"state_dir"`
	MusicDir    string `toml:"music_dir"`
}

// Production contains settings for the production loop.
type Production struct {
	MinSentences    int  `toml:"min_sentences"`
	CooldownSeconds int  `toml:"cooldown_seconds"`
	SettleMillis    int  `toml:"settle_millis"`
	ImagesPerItem   int  `toml:"images_per_item"`
	PhoneticPass    bool `toml:"phonetic_pass"`
}

// Posting contains settings for the posting loop.
type Posting struct {
	Rounds                      int    `toml:"rounds"`
	ChannelPauseMinSeconds      int    `toml:"channel_pause_min_seconds"`
	ChannelPauseMaxSeconds      int    `toml:"channel_pause_max_seconds"`
	RoundPauseMinSeconds        int    `toml:"round_pause_min_seconds"`
	RoundPauseMaxSeconds        int    `toml:"round_pause_max_seconds"`
	QuotaTimezone               string `toml:"quota_timezone"`
	ConnectivityURL             string `toml:"connectivity_url"`
	ConnectivityIntervalSeconds int    `toml:"connectivity_interval_seconds"`
	ArchiveFolder               string `toml:"archive_folder"`
}

// Schedule contains settings for the publish calendar.
type Schedule struct {
	LookaheadDays int `toml:"lookahead_days"`
	SlotHourUTC   int `toml:"slot_hour_utc"`
}

// Alerts contains the thresholds for low-content notifications.
type Alerts struct {
	UploadDays  int `toml:"upload_days"`
	ProduceDays int `toml:"produce_days"`
	MinApproved int `toml:"min_approved"`
}

// Retry contains the backoff policy for transient collaborator failures.
type Retry struct {
	MaxAttempts     int `toml:"max_attempts"`
	BaseDelayMillis int `toml:"base_delay_millis"`
	MaxDelaySeconds int `toml:"max_delay_seconds"`
}

// Notifications contains configuration for Telegram alerts.
type Notifications struct {
	TelegramToken     string `toml:"telegram_token"`
	TelegramChatID    string `toml:"telegram_chat_id"`
	TelegramBaseURL   string `toml:"telegram_base_url"`
	RequestTimeout    int    `toml:"request_timeout"`
	RetryDelaySeconds int    `toml:"retry_delay_seconds"`
	MaxAttempts       int    `toml:"max_attempts"`
}

// LLM contains language model connection settings.
type LLM struct {
	APIKey             string `toml:"api_key"`
	BaseURL            string `toml:"base_url"`
	Model              string `toml:"model"`
	TranscriptionModel string `toml:"transcription_model"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
}

// Voice contains text-to-speech settings.
type Voice struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Images contains stock image provider credentials.
type Images struct {
	PexelsAPIKey      string `toml:"pexels_api_key"`
	PexelsBaseURL     string `toml:"pexels_base_url"`
	UnsplashAccessKey string `toml:"unsplash_access_key"`
	UnsplashBaseURL   string `toml:"unsplash_base_url"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
}

// YouTube contains upload credentials and transfer settings.
type YouTube struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	TokenDir     string `toml:"token_dir"`
	ChunkSizeMB  int    `toml:"chunk_size_mb"`
}

// Media contains the ffmpeg toolchain and render geometry.
type Media struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	FontFile      string `toml:"font_file"`
	Width         int    `toml:"width"`
	Height        int    `toml:"height"`
	WordsPerCue   int    `toml:"words_per_cue"`
}

// Daemon contains cron specifications for unattended runs and the
// retention applied by the housekeeping job.
type Daemon struct {
	ProduceCron          string `toml:"produce_cron"`
	UploadCron           string `toml:"upload_cron"`
	HousekeepingCron     string `toml:"housekeeping_cron"`
	JournalRetentionDays int    `toml:"journal_retention_days"`
	QuotaMarkerDays      int    `toml:"quota_marker_days"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values.
//
// Configuration sections by subsystem:
//   - Paths: channel roots, logs, state (journal, locks), background music
//   - Production / Posting: batch loop pacing and limits
//   - Schedule / Alerts: publish calendar and low-content thresholds
//   - Retry: backoff for transient collaborator failures
//   - Notifications: Telegram alerts
//   - LLM / Voice / Images / YouTube: external collaborators
//   - Media: ffmpeg binaries and output geometry
//   - Daemon: cron specs for unattended runs
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Production    Production    `toml:"production"`
	Posting       Posting       `toml:"posting"`
	Schedule      Schedule      `toml:"schedule"`
	Alerts        Alerts        `toml:"alerts"`
	Retry         Retry         `toml:"retry"`
	Notifications Notifications `toml:"notifications"`
	LLM           LLM           `toml:"llm"`
	Voice         Voice         `toml:"voice"`
	Images        Images        `toml:"images"`
	YouTube       YouTube       `toml:"youtube"`
	Media         Media         `toml:"media"`
	Daemon        Daemon        `toml:"daemon"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/influencer/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and secrets resolved from the environment (and a .env
// file in the working directory, when present).
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv populates unset environment variables from path. Variables that
// are already set win over the file.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("influencer.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the CLI writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ChannelsDir, c.Paths.LogDir, c.Paths.StateDir, c.YouTube.TokenDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ChannelDir returns the working directory of the named channel.
func (c *Config) ChannelDir(name string) string {
	return filepath.Join(c.Paths.ChannelsDir, name)
}

// JournalPath returns the location of the SQLite event journal.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.db")
}

// LockPath returns the lock file guarding a channel's storage root.
func (c *Config) LockPath(channel string) string {
	return filepath.Join(c.Paths.StateDir, "locks", channel+".lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
