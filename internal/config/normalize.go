package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePosting()
	c.normalizeSecrets()
	c.normalizeEndpoints()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name  string
		value *string
		def   string
	}{
		{"paths.channels_dir", &c.Paths.ChannelsDir, defaultChannelsDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.state_dir", &c.Paths.StateDir, defaultStateDir},
		{"paths.music_dir", &c.Paths.MusicDir, defaultMusicDir},
		{"youtube.token_dir", &c.YouTube.TokenDir, defaultTokenDir},
	}
	for _, f := range fields {
		if strings.TrimSpace(*f.value) == "" {
			*f.value = f.def
		}
		expanded, err := expandPath(strings.TrimSpace(*f.value))
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.value = expanded
	}
	return nil
}

func (c *Config) normalizePosting() {
	c.Posting.QuotaTimezone = strings.TrimSpace(c.Posting.QuotaTimezone)
	if c.Posting.QuotaTimezone == "" {
		c.Posting.QuotaTimezone = defaultQuotaTimezone
	}
	c.Posting.ArchiveFolder = strings.TrimSpace(c.Posting.ArchiveFolder)
	if c.Posting.ArchiveFolder == "" {
		c.Posting.ArchiveFolder = defaultArchiveFolder
	}
	c.Posting.ConnectivityURL = strings.TrimSpace(c.Posting.ConnectivityURL)
	if c.Posting.ConnectivityIntervalSeconds <= 0 {
		c.Posting.ConnectivityIntervalSeconds = defaultConnectivityIntervalSeconds
	}
}

// normalizeSecrets fills credentials from the environment when the file
// leaves them blank.
func (c *Config) normalizeSecrets() {
	envFallback(&c.LLM.APIKey, "OPENAI_API_KEY", "OPENAIKEY")
	envFallback(&c.Notifications.TelegramToken, "TELEGRAM_BOT_TOKEN", "TELEGRAMKEY")
	envFallback(&c.Notifications.TelegramChatID, "TELEGRAM_CHAT_ID", "TELEGRAM_CHANEL_ID")
	envFallback(&c.Voice.APIKey, "ELEVENLABS_API_KEY", "ELEVENLABS_API")
	envFallback(&c.Images.PexelsAPIKey, "PEXELS_API_KEY")
	envFallback(&c.Images.UnsplashAccessKey, "UNSPLASH_ACCESS_KEY")
	envFallback(&c.YouTube.ClientID, "YOUTUBE_CLIENT_ID")
	envFallback(&c.YouTube.ClientSecret, "YOUTUBE_CLIENT_SECRET")
}

func (c *Config) normalizeEndpoints() {
	trimDefault(&c.Notifications.TelegramBaseURL, defaultTelegramBaseURL)
	trimDefault(&c.LLM.Model, defaultLLMModel)
	trimDefault(&c.LLM.TranscriptionModel, defaultTranscriptionModel)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	trimDefault(&c.Voice.BaseURL, defaultVoiceBaseURL)
	trimDefault(&c.Voice.Model, defaultVoiceModel)
	trimDefault(&c.Images.PexelsBaseURL, defaultPexelsBaseURL)
	trimDefault(&c.Images.UnsplashBaseURL, defaultUnsplashBaseURL)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.Voice.TimeoutSeconds <= 0 {
		c.Voice.TimeoutSeconds = defaultVoiceTimeoutSeconds
	}
	if c.Images.TimeoutSeconds <= 0 {
		c.Images.TimeoutSeconds = defaultImagesTimeoutSeconds
	}
	trimDefault(&c.Media.FFmpegBinary, defaultFFmpegBinary)
	trimDefault(&c.Media.FFprobeBinary, defaultFFprobeBinary)
	c.Media.FontFile = strings.TrimSpace(c.Media.FontFile)
	if c.Media.Width <= 0 || c.Media.Height <= 0 {
		c.Media.Width, c.Media.Height = defaultMediaWidth, defaultMediaHeight
	}
	if c.Media.WordsPerCue <= 0 {
		c.Media.WordsPerCue = defaultWordsPerCue
	}
	if c.YouTube.ChunkSizeMB <= 0 {
		c.YouTube.ChunkSizeMB = defaultChunkSizeMB
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func envFallback(target *string, keys ...string) {
	*target = strings.TrimSpace(*target)
	if *target != "" {
		return
	}
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			*target = strings.TrimSpace(value)
			return
		}
	}
}

func trimDefault(target *string, fallback string) {
	*target = strings.TrimSpace(*target)
	if *target == "" {
		*target = fallback
	}
}
