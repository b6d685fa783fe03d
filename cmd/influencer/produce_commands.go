package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"influencer/internal/channels"
	"influencer/internal/editing"
	"influencer/internal/production"
	"influencer/internal/workitem"
)

func newProduceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "produce",
		Short: "Produce new items from each channel's pending topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			chs, err := ctx.selectChannels((*channels.Registry).Producing)
			if err != nil {
				return err
			}
			rt, err := ctx.runtime()
			if err != nil {
				return err
			}
			defer rt.Close()
			producer, err := rt.producer()
			if err != nil {
				return err
			}
			return ctx.withLock(chs, func() error {
				summary, err := producer.ProduceAll(cmd.Context(), chs)
				fmt.Fprintf(cmd.OutOrStdout(), "Produced %d, skipped %d, failed %d\n", summary.Produced, summary.Skipped, summary.Failed)
				return err
			})
		},
	}
}

func newReeditCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reedit",
		Short: "Re-render denied items and return them to review",
		RunE: func(cmd *cobra.Command, args []string) error {
			chs, err := ctx.selectChannels((*channels.Registry).Producing)
			if err != nil {
				return err
			}
			rt, err := ctx.runtime()
			if err != nil {
				return err
			}
			defer rt.Close()
			producer, err := rt.producer()
			if err != nil {
				return err
			}
			return ctx.withLock(chs, func() error {
				var total production.Summary
				for _, ch := range chs {
					summary, err := producer.Reedit(cmd.Context(), ch)
					if err != nil {
						return err
					}
					total.Produced += summary.Produced
					total.Failed += summary.Failed
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Re-edited %d, failed %d\n", total.Produced, total.Failed)
				return nil
			})
		},
	}
}

var (
	approvableStages      = workitem.Stages(workitem.StageRendered, workitem.StageThumbnailed)
	approvableForceStages = workitem.Stages(workitem.StageRendered, workitem.StageThumbnailed, workitem.StageDenied)
	deniableStages        = workitem.Stages(workitem.StageRendered, workitem.StageThumbnailed, workitem.StageApproved)
)

func newApproveCommand(ctx *commandContext) *cobra.Command {
	var itemKey string
	var all bool
	var force bool

	cmd := &cobra.Command{
		Use:   "approve [channel]",
		Short: "Approve reviewed items for posting",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := ctx.channelArg(args)
			if err != nil {
				return err
			}
			repo, err := ctx.repository(ch)
			if err != nil {
				return err
			}
			rt, err := ctx.runtime()
			if err != nil {
				return err
			}
			defer rt.Close()
			producer := rt.reviewProducer()
			stages := approvableStages
			if force {
				stages = approvableForceStages
			}
			return ctx.withLock([]channels.Channel{ch}, func() error {
				var targets []workitem.Item
				if all {
					items, err := repo.List(cmd.Context())
					if err != nil {
						return err
					}
					for _, item := range items {
						if stages.Has(item.Stage) {
							targets = append(targets, item)
						}
					}
				} else {
					item, err := ctx.pickItem(cmd.Context(), repo, ch, itemKey, stages)
					if err != nil {
						return err
					}
					targets = []workitem.Item{item}
				}
				for _, item := range targets {
					updated, err := producer.Approve(cmd.Context(), ch, item, force)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Approved %s (%s)\n", updated.Key(), updated.Stage)
				}
				if len(targets) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to approve")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&itemKey, "item", "", "Item to approve (SERIES-SEQ or SEQ); prompts when omitted")
	cmd.Flags().BoolVar(&all, "all", false, "Approve every item awaiting review")
	cmd.Flags().BoolVar(&force, "force", false, "Also approve denied items")
	return cmd
}

func newDenyCommand(ctx *commandContext) *cobra.Command {
	var itemKey string
	var reason string

	cmd := &cobra.Command{
		Use:   "deny [channel]",
		Short: "Send an item back for rework",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := ctx.channelArg(args)
			if err != nil {
				return err
			}
			repo, err := ctx.repository(ch)
			if err != nil {
				return err
			}
			rt, err := ctx.runtime()
			if err != nil {
				return err
			}
			defer rt.Close()
			return ctx.withLock([]channels.Channel{ch}, func() error {
				item, err := ctx.pickItem(cmd.Context(), repo, ch, itemKey, deniableStages)
				if err != nil {
					return err
				}
				updated, err := rt.reviewProducer().Deny(cmd.Context(), ch, item, strings.TrimSpace(reason))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Denied %s (%s)\n", updated.Key(), updated.Stage)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&itemKey, "item", "", "Item to deny (SERIES-SEQ or SEQ); prompts when omitted")
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "Note written into denied.txt")
	return cmd
}

func newEditCommand(ctx *commandContext) *cobra.Command {
	var itemKey string

	cmd := &cobra.Command{
		Use:   "edit [channel]",
		Short: "Interactively redo production steps on an item",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !ctx.interactive() {
				return errors.New("edit requires a terminal")
			}
			ch, err := ctx.channelArg(args)
			if err != nil {
				return err
			}
			repo, err := ctx.repository(ch)
			if err != nil {
				return err
			}
			rt, err := ctx.runtime()
			if err != nil {
				return err
			}
			defer rt.Close()
			producer, err := rt.producer()
			if err != nil {
				return err
			}
			return ctx.withLock([]channels.Channel{ch}, func() error {
				if _, err := repo.DeleteIfStage(cmd.Context(), workitem.StageEmpty); err != nil {
					return err
				}
				item, err := ctx.pickItem(cmd.Context(), repo, ch, itemKey, editing.EditableStages)
				if err != nil {
					return err
				}
				session := editing.NewSession(producer, editing.HuhPrompter{}, rt.logger)
				final, err := session.Run(cmd.Context(), ch, item)
				fmt.Fprintf(cmd.OutOrStdout(), "Left %s at %s\n", final.Key(), final.Stage)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&itemKey, "item", "", "Item to edit (SERIES-SEQ or SEQ); prompts when omitted")
	return cmd
}

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var afterProduction bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete abandoned items left by interrupted production",
		RunE: func(cmd *cobra.Command, args []string) error {
			chs, err := ctx.selectChannels((*channels.Registry).All)
			if err != nil {
				return err
			}
			rt, err := ctx.runtime()
			if err != nil {
				return err
			}
			defer rt.Close()
			return ctx.withLock(chs, func() error {
				for _, ch := range chs {
					life, err := ctx.lifecycle(ch, rt)
					if err != nil {
						return err
					}
					n, err := life.SweepAbandoned(cmd.Context(), afterProduction)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: removed %d item(s)\n", ch.Name(), n)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&afterProduction, "scripted", false, "Also remove items stuck at State1")
	return cmd
}
