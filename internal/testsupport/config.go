package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"influencer/internal/config"
)

// ConfigOption adjusts a config produced by NewConfig. It receives the temp
// root the config's directories live under.
type ConfigOption func(t testing.TB, root string, cfg *config.Config)

// NewConfig returns the default config with every directory moved under a
// fresh temp root and every pause set to zero.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	for dst, name := range map[*string]string{
		&cfg.Paths.ChannelsDir: "channels",
		&cfg.Paths.LogDir:      "logs",
		&cfg.Paths.StateDir:    "state",
		&cfg.Paths.MusicDir:    "music",
		&cfg.YouTube.TokenDir:  "tokens",
	} {
		*dst = filepath.Join(root, name)
	}
	cfg.Production.SettleMillis = 0
	cfg.Production.CooldownSeconds = 0
	cfg.Posting.ChannelPauseMinSeconds, cfg.Posting.ChannelPauseMaxSeconds = 0, 0
	cfg.Posting.RoundPauseMinSeconds, cfg.Posting.RoundPauseMaxSeconds = 0, 0
	cfg.Retry.BaseDelayMillis = 0
	for _, opt := range opts {
		opt(t, root, &cfg)
	}
	return &cfg
}

// WithRounds overrides the posting round count.
func WithRounds(n int) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) { cfg.Posting.Rounds = n }
}

// WithStubbedBinaries puts no-op executables named names (ffmpeg and ffprobe
// by default) first on PATH for the rest of the test.
func WithStubbedBinaries(names ...string) ConfigOption {
	if len(names) == 0 {
		names = []string{"ffmpeg", "ffprobe"}
	}
	return func(t testing.TB, root string, _ *config.Config) {
		bin := filepath.Join(root, "bin")
		for _, name := range names {
			WriteText(t, filepath.Join(bin, name), "#!/bin/sh\nexit 0\n")
			if err := os.Chmod(filepath.Join(bin, name), 0o755); err != nil {
				t.Fatalf("chmod stub %s: %v", name, err)
			}
		}
		t.Setenv("PATH", strings.Join([]string{bin, os.Getenv("PATH")}, string(os.PathListSeparator)))
	}
}
