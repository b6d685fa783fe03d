package config

const (
	defaultChannelsDir                 = "~/influencers"
	defaultLogDir                      = "~/.local/share/influencer/logs"
	defaultStateDir                    = "~/.local/share/influencer/state"
	defaultMusicDir                    = "~/influencers/music"
	defaultTokenDir                    = "~/.config/influencer/tokens"
	defaultMinSentences                = 4
	defaultCooldownSeconds             = 120
	defaultSettleMillis                = 2000
	defaultImagesPerItem               = 8
	defaultRounds                      = 6
	defaultChannelPauseMinSeconds      = 5 * 60
	defaultChannelPauseMaxSeconds      = 15 * 60
	defaultRoundPauseMinSeconds        = 30 * 60
	defaultRoundPauseMaxSeconds        = 100 * 60
	defaultQuotaTimezone               = "America/Los_Angeles"
	defaultConnectivityURL             = "https://www.google.com/generate_204"
	defaultConnectivityIntervalSeconds = 60
	defaultArchiveFolder               = "zID-0_State9_0000-00-00_uploaded videos not english"
	defaultLookaheadDays               = 91
	defaultSlotHourUTC                 = 19
	defaultAlertUploadDays             = 15
	defaultAlertProduceDays            = 10
	defaultAlertMinApproved            = 3
	defaultRetryMaxAttempts            = 10
	defaultRetryBaseDelayMillis        = 1000
	defaultRetryMaxDelaySeconds        = 300
	defaultTelegramBaseURL             = "https://api.telegram.org"
	defaultNotifyRequestTimeout        = 10
	defaultNotifyRetryDelaySeconds     = 5
	defaultNotifyMaxAttempts           = 5
	defaultLLMModel                    = "gpt-4o-mini"
	defaultTranscriptionModel          = "whisper-1"
	defaultLLMTimeoutSeconds           = 120
	defaultVoiceBaseURL                = "https://api.elevenlabs.io/v1"
	defaultVoiceModel                  = "eleven_multilingual_v2"
	defaultVoiceTimeoutSeconds         = 120
	defaultPexelsBaseURL               = "https://api.pexels.com/v1"
	defaultUnsplashBaseURL             = "https://api.unsplash.com"
	defaultImagesTimeoutSeconds        = 30
	defaultChunkSizeMB                 = 8
	defaultFFmpegBinary                = "ffmpeg"
	defaultFFprobeBinary               = "ffprobe"
	defaultMediaWidth                  = 1080
	defaultMediaHeight                 = 1920
	defaultWordsPerCue                 = 3
	defaultProduceCron                 = "0 3 * * *"
	defaultUploadCron                  = "0 9 * * *"
	defaultHousekeepingCron            = "30 4 * * 0"
	defaultJournalRetentionDays        = 180
	defaultQuotaMarkerDays             = 14
	defaultLogFormat                   = "console"
	defaultLogLevel                    = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ChannelsDir: defaultChannelsDir,
			LogDir:      defaultLogDir,
			StateDir:    defaultStateDir,
			MusicDir:    defaultMusicDir,
		},
		Production: Production{
			MinSentences:    defaultMinSentences,
			CooldownSeconds: defaultCooldownSeconds,
			SettleMillis:    defaultSettleMillis,
			ImagesPerItem:   defaultImagesPerItem,
			PhoneticPass:    true,
		},
		Posting: Posting{
			Rounds:                      defaultRounds,
			ChannelPauseMinSeconds:      defaultChannelPauseMinSeconds,
			ChannelPauseMaxSeconds:      defaultChannelPauseMaxSeconds,
			RoundPauseMinSeconds:        defaultRoundPauseMinSeconds,
			RoundPauseMaxSeconds:        defaultRoundPauseMaxSeconds,
			QuotaTimezone:               defaultQuotaTimezone,
			ConnectivityURL:             defaultConnectivityURL,
			ConnectivityIntervalSeconds: defaultConnectivityIntervalSeconds,
			ArchiveFolder:               defaultArchiveFolder,
		},
		Schedule: Schedule{
			LookaheadDays: defaultLookaheadDays,
			SlotHourUTC:   defaultSlotHourUTC,
		},
		Alerts: Alerts{
			UploadDays:  defaultAlertUploadDays,
			ProduceDays: defaultAlertProduceDays,
			MinApproved: defaultAlertMinApproved,
		},
		Retry: Retry{
			MaxAttempts:     defaultRetryMaxAttempts,
			BaseDelayMillis: defaultRetryBaseDelayMillis,
			MaxDelaySeconds: defaultRetryMaxDelaySeconds,
		},
		Notifications: Notifications{
			TelegramBaseURL:   defaultTelegramBaseURL,
			RequestTimeout:    defaultNotifyRequestTimeout,
			RetryDelaySeconds: defaultNotifyRetryDelaySeconds,
			MaxAttempts:       defaultNotifyMaxAttempts,
		},
		LLM: LLM{
			Model:              defaultLLMModel,
			TranscriptionModel: defaultTranscriptionModel,
			TimeoutSeconds:     defaultLLMTimeoutSeconds,
		},
		Voice: Voice{
			BaseURL:        defaultVoiceBaseURL,
			Model:          defaultVoiceModel,
			TimeoutSeconds: defaultVoiceTimeoutSeconds,
		},
		Images: Images{
			PexelsBaseURL:   defaultPexelsBaseURL,
			UnsplashBaseURL: defaultUnsplashBaseURL,
			TimeoutSeconds:  defaultImagesTimeoutSeconds,
		},
		YouTube: YouTube{
			TokenDir:    defaultTokenDir,
			ChunkSizeMB: defaultChunkSizeMB,
		},
		Media: Media{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			Width:         defaultMediaWidth,
			Height:        defaultMediaHeight,
			WordsPerCue:   defaultWordsPerCue,
		},
		Daemon: Daemon{
			ProduceCron:          defaultProduceCron,
			UploadCron:           defaultUploadCron,
			HousekeepingCron:     defaultHousekeepingCron,
			JournalRetentionDays: defaultJournalRetentionDays,
			QuotaMarkerDays:      defaultQuotaMarkerDays,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
