package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"influencer/internal/channels"
	"influencer/internal/posting"
	"influencer/internal/schedule"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload approved videos into each channel's calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			chs, err := ctx.selectChannels((*channels.Registry).Posting)
			if err != nil {
				return err
			}
			rt, err := ctx.runtime()
			if err != nil {
				return err
			}
			defer rt.Close()
			poster, err := rt.poster()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return ctx.withLock(chs, func() error {
				if once {
					for _, ch := range chs {
						res, err := poster.PostOne(cmd.Context(), ch)
						if err != nil {
							return fmt.Errorf("%s: %w", ch.Name(), err)
						}
						fmt.Fprintf(out, "%s: %s -> %s at %s\n", ch.Name(), res.Item.Key(), res.VideoID, schedule.FormatSlot(res.Slot))
					}
					return nil
				}
				summary, err := poster.UploadAll(cmd.Context(), chs)
				fmt.Fprintf(out, "Posted %d over %d round(s); quota gate closed on %d visit(s), %d failed\n",
					summary.Posted, summary.Rounds, summary.Closed, summary.Failed)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Post a single video per channel without pauses or alerts")
	return cmd
}

func newArchiveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Move posted items into the archive folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			chs, err := ctx.selectChannels((*channels.Registry).All)
			if err != nil {
				return err
			}
			return ctx.withLock(chs, func() error {
				for _, ch := range chs {
					repo, err := ctx.repository(ch)
					if err != nil {
						return err
					}
					n, err := repo.ArchivePosted(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: archived %d item(s)\n", ch.Name(), n)
				}
				return nil
			})
		},
	}
}

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	var showAll bool

	cmd := &cobra.Command{
		Use:   "schedule [channel]",
		Short: "Show a channel's publish calendar",
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
			now := ctx.now()
			var entries []schedule.Entry
			err = ctx.withLock([]channels.Channel{ch}, func() error {
				var err error
				entries, err = schedule.New(ch.Dir(), posting.Platform).Ensure(now, posting.CalendarPolicy(cfg, ch))
				return err
			})
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				if !showAll && !e.Filled() && e.Slot.Before(now) {
					continue
				}
				rows = append(rows, []string{
					e.Slot.UTC().Format("Mon 2006-01-02 15:04"),
					e.Title,
					yesNo(e.YouTube),
					yesNo(e.TikTok),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Slot (UTC)", "Title", "YouTube", "TikTok"}, rows, nil))
			calendar := schedule.New(ch.Dir(), posting.Platform)
			if days, err := calendar.DaysOfContent(now); err == nil {
				fmt.Fprintf(out, "Days of content scheduled: %d\n", days)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showAll, "all", false, "Include past empty slots")
	return cmd
}

func (c *commandContext) now() time.Time {
	if c.clock != nil {
		return c.clock()
	}
	return time.Now()
}
