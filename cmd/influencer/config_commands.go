package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"influencer/internal/channels"
	"influencer/internal/config"
	"influencer/internal/deps"
	"influencer/internal/logging"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		targetPath string
		overwrite  bool
	)
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample config.toml",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := initTarget(targetPath)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("config init: %w", err)
			}
			if _, err := os.Stat(target); err == nil && !overwrite {
				return fmt.Errorf("config init: %s exists; pass --overwrite to replace it", target)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("config init: %w", err)
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("config init: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sample configuration written to %s\n", target)
			fmt.Fprintln(out, "Fill in llm.api_key, voice.api_key and the youtube client credentials, or export OPENAI_API_KEY, ELEVENLABS_API_KEY, YOUTUBE_CLIENT_ID and YOUTUBE_CLIENT_SECRET.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Where to write the file (default: the standard config path)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func initTarget(flagValue string) (string, error) {
	if v := strings.TrimSpace(flagValue); v != "" {
		return config.ExpandPath(v)
	}
	return config.DefaultConfigPath()
}

// newConfigValidateCommand loads the config without the usual lazy path so it
// can report problems the other commands would fail on.
func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	var online bool
	cmd := &cobra.Command{
		Use:         "validate",
		Short:       "Check the config, channel profiles and media tools",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if ctx.configFlag != nil {
				path = *ctx.configFlag
			}
			cfg, resolved, exists, err := config.Load(strings.TrimSpace(path))
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			source := resolved
			if !exists {
				source += " (not found, using defaults)"
			}
			fmt.Fprintf(out, "Config: %s\n", source)

			reg, err := channels.Load(cfg.Paths.ChannelsDir)
			if err != nil {
				return err
			}
			if len(reg.All()) == 0 {
				fmt.Fprintf(out, "No channels under %s\n", cfg.Paths.ChannelsDir)
			} else {
				rows := make([][]string, 0, len(reg.All()))
				for _, ch := range reg.All() {
					rows = append(rows, []string{ch.Name(), ch.Series(), yesNo(ch.Producing()), yesNo(ch.Posting())})
				}
				fmt.Fprintln(out, renderTable([]string{"Channel", "Series", "Produce", "Post"}, rows, nil))
			}

			reports := deps.Check(deps.Toolchain(cfg))
			rows := make([][]string, 0, len(reports))
			for _, r := range reports {
				state := "ok"
				if !r.OK() {
					state = r.Problem
				}
				rows = append(rows, []string{r.Name, r.Command, state})
			}
			fmt.Fprintln(out, renderTable([]string{"Tool", "Command", "Status"}, rows, nil))
			if err := deps.Missing(reports); err != nil {
				return err
			}
			if online {
				if err := checkLLM(cmd.Context(), cfg); err != nil {
					return err
				}
				fmt.Fprintf(out, "LLM %s: ok\n", cfg.LLM.Model)
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
	cmd.Flags().BoolVar(&online, "online", false, "Also send a one-word completion to verify the LLM key and model")
	return cmd
}

func checkLLM(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	client, err := newLLMClient(cfg, logger)
	if err != nil {
		return err
	}
	if err := client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("llm health check: %w", err)
	}
	return nil
}
