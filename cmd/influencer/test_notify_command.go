package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"influencer/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if strings.TrimSpace(cfg.Notifications.TelegramToken) == "" || strings.TrimSpace(cfg.Notifications.TelegramChatID) == "" {
				fmt.Fprintln(out, "Telegram is not configured; notification not sent")
				return nil
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			sendCtx, cancel := notifyContext(cmd.Context())
			defer cancel()
			notifier := notifications.NewService(cfg, notifications.Options{Logger: logger})
			if err := notifier.TestNotification(sendCtx); err != nil {
				fmt.Fprintln(out, "Failed to send notification")
				return err
			}
			fmt.Fprintln(out, "Test notification sent")
			return nil
		},
	}
}
