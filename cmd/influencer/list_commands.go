package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"influencer/internal/channels"
	"influencer/internal/journal"
	"influencer/internal/selector"
	"influencer/internal/workitem"
)

type itemView struct {
	Channel string `json:"channel"`
	Key     string `json:"key"`
	Stage   string `json:"stage"`
	Title   string `json:"title"`
	Date    string `json:"date"`
	Dir     string `json:"dir"`
}

func parseStages(values []string) (workitem.StageSet, error) {
	if len(values) == 0 {
		all := make([]workitem.Stage, 0, int(workitem.StageDenied)+1)
		for s := workitem.StageEmpty; s <= workitem.StageDenied; s++ {
			all = append(all, s)
		}
		return workitem.Stages(all...), nil
	}
	stages := make([]workitem.Stage, 0, len(values))
	for _, v := range values {
		s, err := workitem.ParseStage(v)
		if err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}
	return workitem.Stages(stages...), nil
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var stageFlags []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work items by stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			stages, err := parseStages(stageFlags)
			if err != nil {
				return err
			}
			chs, err := ctx.selectChannels((*channels.Registry).All)
			if err != nil {
				return err
			}
			var views []itemView
			for _, ch := range chs {
				repo, err := ctx.repository(ch)
				if err != nil {
					return err
				}
				items, err := selector.Select(cmd.Context(), repo, stages)
				if err != nil {
					return err
				}
				for _, item := range items {
					views = append(views, itemView{
						Channel: ch.Name(),
						Key:     item.Key(),
						Stage:   item.Stage.String(),
						Title:   item.DisplayTitle(),
						Date:    item.DisplayDate(),
						Dir:     item.Dir,
					})
				}
			}
			if asJSON {
				return writeJSON(cmd, views)
			}
			if len(views) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No items")
				return nil
			}
			rows := make([][]string, len(views))
			for i, v := range views {
				rows[i] = []string{v.Channel, v.Key, v.Stage, v.Date, v.Title}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Channel", "Item", "Stage", "Date", "Title"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&stageFlags, "stage", "s", nil, "Only these stages (0-9 or X, repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func printEventCounts(cmd *cobra.Command, store *journal.Store, channel string, asJSON bool) error {
	counts, err := store.Counts(cmd.Context(), channel)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(cmd, counts)
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	rows := make([][]string, len(kinds))
	for i, k := range kinds {
		rows[i] = []string{k, strconv.Itoa(counts[journal.Kind(k)])}
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Event", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
	return nil
}

func newPickCommand(ctx *commandContext) *cobra.Command {
	var stageFlags []string

	cmd := &cobra.Command{
		Use:   "pick [channel]",
		Short: "Choose an item interactively and print its folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(stageFlags) == 0 {
				stageFlags = []string{"4", "5"}
			}
			stages, err := parseStages(stageFlags)
			if err != nil {
				return err
			}
			ch, err := ctx.channelArg(args)
			if err != nil {
				return err
			}
			repo, err := ctx.repository(ch)
			if err != nil {
				return err
			}
			item, err := ctx.pickItem(cmd.Context(), repo, ch, "", stages)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), item.Dir)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&stageFlags, "stage", "s", nil, "Stages to choose from (default 4 and 5)")
	return cmd
}

type eventView struct {
	Time    string `json:"time"`
	Channel string `json:"channel"`
	Item    string `json:"item"`
	Kind    string `json:"kind"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Detail  string `json:"detail,omitempty"`
	RunID   string `json:"run_id,omitempty"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var channel, item, kind string
	var limit int
	var asJSON, summary bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent journal events",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openJournal()
			if err != nil {
				return err
			}
			defer store.Close()
			if summary {
				return printEventCounts(cmd, store, channel, asJSON)
			}
			events, err := store.Recent(cmd.Context(), journal.Query{
				Channel: channel,
				Item:    item,
				Kind:    journal.Kind(kind),
				Limit:   limit,
			})
			if err != nil {
				return err
			}
			views := make([]eventView, len(events))
			for i, ev := range events {
				views[i] = eventView{
					Time:    ev.Time.Local().Format("2006-01-02 15:04:05"),
					Channel: ev.Channel,
					Item:    ev.Item,
					Kind:    string(ev.Kind),
					From:    ev.FromStage,
					To:      ev.ToStage,
					Detail:  ev.Detail,
					RunID:   ev.RunID,
				}
			}
			if asJSON {
				return writeJSON(cmd, views)
			}
			if len(views) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No events")
				return nil
			}
			rows := make([][]string, len(views))
			for i, v := range views {
				transition := ""
				if v.From != "" || v.To != "" {
					transition = v.From + " -> " + v.To
				}
				rows[i] = []string{strconv.Itoa(i + 1), v.Time, v.Channel, v.Item, v.Kind, transition, v.Detail}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Time", "Channel", "Item", "Event", "Stages", "Detail"},
				rows,
				[]columnAlignment{alignRight},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&channel, "for", "", "Only events of this channel")
	cmd.Flags().StringVar(&item, "item", "", "Only events of this item key")
	cmd.Flags().StringVar(&kind, "kind", "", "Only events of this kind (created, transition, upload, ...)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of events")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	cmd.Flags().BoolVar(&summary, "summary", false, "Count events per kind instead of listing them")
	return cmd
}
