package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"influencer/internal/channels"
	"influencer/internal/config"
	"influencer/internal/journal"
	"influencer/internal/logging"
	"influencer/internal/quota"
)

type housekeepingResult struct {
	Events  int64
	Markers int
}

// housekeep drops journal events and quota markers older than the
// configured retention. A retention of zero disables that half.
func housekeep(ctx context.Context, cfg *config.Config, store *journal.Store, chs []channels.Channel, now time.Time, logger *slog.Logger) (housekeepingResult, error) {
	var res housekeepingResult
	if days := cfg.Daemon.JournalRetentionDays; days > 0 {
		n, err := store.Prune(ctx, now.AddDate(0, 0, -days))
		if err != nil {
			return res, err
		}
		res.Events = n
	}
	if days := cfg.Daemon.QuotaMarkerDays; days > 0 {
		loc, err := quota.LoadLocation(cfg.Posting.QuotaTimezone)
		if err != nil {
			return res, err
		}
		for _, ch := range chs {
			n, err := quota.New(ch.Dir(), loc).Prune(now, days)
			if err != nil {
				return res, err
			}
			res.Markers += n
		}
	}
	logger.Info("housekeeping finished",
		logging.String(logging.FieldEventType, "housekeeping"),
		logging.Int("journal_events", int(res.Events)),
		logging.Int("quota_markers", res.Markers),
	)
	return res, nil
}

func newHousekeepingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "housekeeping",
		Short: "Prune old journal events and quota markers",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.runtime()
			if err != nil {
				return err
			}
			defer rt.Close()
			chs, err := ctx.selectChannels((*channels.Registry).All)
			if err != nil {
				return err
			}
			res, err := housekeep(cmd.Context(), rt.cfg, rt.journal, chs, time.Now(), rt.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d journal event(s) and %d quota marker(s)\n", res.Events, res.Markers)
			return nil
		},
	}
}
