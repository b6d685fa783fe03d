package main

import (
	"bufio"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"influencer/internal/collab/youtube"
)

func newAuthCommand(ctx *commandContext) *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "auth [channel]",
		Short: "Authorize uploads for a channel and cache its token",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			ch, err := ctx.channelArg(args)
			if err != nil {
				return err
			}
			if cfg.YouTube.ClientID == "" || cfg.YouTube.ClientSecret == "" {
				return errors.New("youtube.client_id and youtube.client_secret must be set")
			}
			oauthCfg := youtube.OAuthConfig(cfg.YouTube.ClientID, cfg.YouTube.ClientSecret)
			out := cmd.OutOrStdout()
			code = strings.TrimSpace(code)
			if code == "" {
				fmt.Fprintf(out, "Open this URL signed in as the %s channel owner:\n\n%s\n\n", ch.Name(), youtube.AuthURL(oauthCfg))
				fmt.Fprint(out, "Paste the authorization code: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read authorization code: %w", err)
				}
				code = strings.TrimSpace(line)
			}
			if code == "" {
				return errors.New("authorization code is required")
			}
			path := filepath.Join(cfg.YouTube.TokenDir, ch.TokenFile())
			if err := youtube.Exchange(cmd.Context(), oauthCfg, code, path); err != nil {
				return err
			}
			fmt.Fprintf(out, "Saved token to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "Authorization code (prompted when omitted)")
	return cmd
}
