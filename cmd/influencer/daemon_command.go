package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"influencer/internal/channels"
	"influencer/internal/daemon"
	"influencer/internal/logging"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	var runNow string

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run production and uploads on their cron schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			rt, err := ctx.runtime()
			if err != nil {
				return err
			}
			defer rt.Close()

			jobs := []daemon.Job{
				{Name: "produce", Spec: rt.cfg.Daemon.ProduceCron, Run: func(jobCtx context.Context) error {
					chs, err := ctx.selectChannels((*channels.Registry).Producing)
					if err != nil {
						return err
					}
					producer, err := rt.producer()
					if err != nil {
						return err
					}
					return ctx.withLock(chs, func() error {
						_, err := producer.ProduceAll(jobCtx, chs)
						return err
					})
				}},
				{Name: "upload", Spec: rt.cfg.Daemon.UploadCron, Run: func(jobCtx context.Context) error {
					chs, err := ctx.selectChannels((*channels.Registry).Posting)
					if err != nil {
						return err
					}
					poster, err := rt.poster()
					if err != nil {
						return err
					}
					return ctx.withLock(chs, func() error {
						_, err := poster.UploadAll(jobCtx, chs)
						return err
					})
				}},
				{Name: "housekeeping", Spec: rt.cfg.Daemon.HousekeepingCron, Run: func(jobCtx context.Context) error {
					chs, err := ctx.selectChannels((*channels.Registry).All)
					if err != nil {
						return err
					}
					_, err = housekeep(jobCtx, rt.cfg, rt.journal, chs, time.Now(), rt.logger)
					return err
				}},
			}

			d, err := daemon.New(rt.cfg, jobs, rt.logger)
			if err != nil {
				return fmt.Errorf("create daemon: %w", err)
			}
			if err := d.Start(signalCtx); err != nil {
				return err
			}
			for _, e := range d.Status().Entries {
				rt.logger.Info("job scheduled",
					logging.String("job", e.Name),
					logging.String("spec", e.Spec),
					logging.String("next", e.Next.Format("2006-01-02 15:04 MST")),
				)
			}
			if runNow != "" {
				if err := d.RunNow(runNow); err != nil {
					rt.logger.Warn("immediate run failed", logging.String("job", runNow), logging.Error(err))
				}
			}
			<-signalCtx.Done()
			rt.logger.Info("influencer daemon shutting down")
			d.Stop()
			return nil
		},
	}
	cmd.Flags().StringVar(&runNow, "run-now", "", "Run this job (produce, upload or housekeeping) once at startup")
	return cmd
}
