package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"influencer/internal/config"
)

func TestLoadDefaultConfigExpandsPathsAndReadsEnv(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TELEGRAM_CHANEL_ID", "-100123")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, "influencers"); cfg.Paths.ChannelsDir != want {
		t.Fatalf("channels dir = %q, want %q", cfg.Paths.ChannelsDir, want)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Fatalf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.Notifications.TelegramChatID != "-100123" {
		t.Fatalf("expected legacy chat id env fallback, got %q", cfg.Notifications.TelegramChatID)
	}
	if cfg.Posting.Rounds != 6 || cfg.Schedule.LookaheadDays != 91 || cfg.Retry.MaxAttempts != 10 {
		t.Fatalf("unexpected defaults: %+v %+v %+v", cfg.Posting, cfg.Schedule, cfg.Retry)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	work := t.TempDir()
	t.Chdir(work)
	if err := os.WriteFile(filepath.Join(work, ".env"), []byte("PEXELS_API_KEY=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("PEXELS_API_KEY") })

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Images.PexelsAPIKey != "from-dotenv" {
		t.Fatalf("expected key from .env, got %q", cfg.Images.PexelsAPIKey)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
channels_dir = "~/custom"

[posting]
rounds = 2
channel_pause_min_seconds = 1
channel_pause_max_seconds = 2

[logging]
format = "JSON"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected explicit path to be used, got %q exists=%v", resolved, exists)
	}
	if !strings.HasSuffix(cfg.Paths.ChannelsDir, "custom") {
		t.Fatalf("channels dir = %q", cfg.Paths.ChannelsDir)
	}
	if cfg.Posting.Rounds != 2 || cfg.Posting.ChannelPauseMaxSeconds != 2 {
		t.Fatalf("unexpected posting %+v", cfg.Posting)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected normalized format, got %q", cfg.Logging.Format)
	}
}

func TestValidateRejectsBadRanges(t *testing.T) {
	cases := map[string]func(*config.Config){
		"pause":    func(c *config.Config) { c.Posting.ChannelPauseMaxSeconds = c.Posting.ChannelPauseMinSeconds - 1 },
		"rounds":   func(c *config.Config) { c.Posting.Rounds = 0 },
		"timezone": func(c *config.Config) { c.Posting.QuotaTimezone = "Mars/Olympus" },
		"slot":     func(c *config.Config) { c.Schedule.SlotHourUTC = 24 },
		"cron":     func(c *config.Config) { c.Daemon.UploadCron = "not a cron" },
		"format":   func(c *config.Config) { c.Logging.Format = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestSampleConfigDecodesAndValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("decode sample: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config invalid: %v", err)
	}
}
