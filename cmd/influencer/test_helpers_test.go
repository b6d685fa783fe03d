package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"influencer/internal/channels"
	"influencer/internal/config"
	"influencer/internal/stage"
	"influencer/internal/testsupport"
)

const catsProfile = `series: CAT
production: true
posting: true
upload_weekdays: [0, 2, 4]
youtube:
  token_file: cats.json
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	outputs    string
	channel    *channels.Profile
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	configPath := filepath.Join(homeDir, ".config", "influencer", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	ch := testsupport.NewChannel(t, cfg.Paths.ChannelsDir, "cats", catsProfile)
	outputs := channels.OutputsDir(ch)
	if err := os.MkdirAll(outputs, 0o755); err != nil {
		t.Fatalf("mkdir outputs: %v", err)
	}
	return &cliTestEnv{cfg: cfg, configPath: configPath, outputs: outputs, channel: ch}
}

// seed creates an item folder carrying the markers up to the given stage.
func (e *cliTestEnv) seed(t *testing.T, name string, upTo int) string {
	t.Helper()
	markers := []string{stage.ScriptFile, stage.NarrationFile, stage.TranscriptFile, "video.mp4", stage.ThumbnailFile}
	dir := filepath.Join(e.outputs, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir item: %v", err)
	}
	testsupport.Markers(t, dir, markers[:upTo]...)
	return dir
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nchannels_dir = %q\nlog_dir = %q\nstate_dir = %q\nmusic_dir = %q\n\n"+
			"[production]\nsettle_millis = 0\n\n"+
			"[youtube]\ntoken_dir = %q\n\n"+
			"[media]\nffmpeg_binary = %q\nffprobe_binary = %q\n\n"+
			"[logging]\nlevel = \"error\"\n",
		cfg.Paths.ChannelsDir,
		cfg.Paths.LogDir,
		cfg.Paths.StateDir,
		cfg.Paths.MusicDir,
		cfg.YouTube.TokenDir,
		cfg.Media.FFmpegBinary,
		cfg.Media.FFprobeBinary,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
