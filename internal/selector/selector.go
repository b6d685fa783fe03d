// Package selector filters work items by stage and orders them oldest first.
package selector

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"influencer/internal/services"
	"influencer/internal/workitem"
)

// Lister is the part of the repository the selector reads.
type Lister interface {
	List(ctx context.Context) ([]workitem.Item, error)
}

// Select returns the items whose stage is in stages, ascending by sequence
// number. Ties across series fall back to series name.
func Select(ctx context.Context, repo Lister, stages workitem.StageSet) ([]workitem.Item, error) {
	items, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]workitem.Item, 0, len(items))
	for _, item := range items {
		if stages.Has(item.Stage) {
			matched = append(matched, item)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Seq != matched[j].Seq {
			return matched[i].Seq < matched[j].Seq
		}
		return matched[i].Series < matched[j].Series
	})
	return matched, nil
}

// First returns the oldest item in stages, or services.ErrNotFound.
func First(ctx context.Context, repo Lister, stages workitem.StageSet) (workitem.Item, error) {
	items, err := Select(ctx, repo, stages)
	if err != nil {
		return workitem.Item{}, err
	}
	if len(items) == 0 {
		return workitem.Item{}, services.Wrap(services.ErrNotFound, "selector", "first", "no item in requested stages", nil)
	}
	return items[0], nil
}

// Count returns how many items are in stages.
func Count(ctx context.Context, repo Lister, stages workitem.StageSet) (int, error) {
	items, err := Select(ctx, repo, stages)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// FormatChoice renders one line of the interactive picker.
func FormatChoice(item workitem.Item) string {
	return fmt.Sprintf("id: %d : %s | Title: %s | Date: %s", item.Seq, item.Stage, item.DisplayTitle(), item.DisplayDate())
}

// Chooser asks a human to pick one of options and returns its index.
type Chooser interface {
	Choose(title string, options []string) (int, error)
}

// ErrAborted is returned when the human cancels the choice.
var ErrAborted = errors.New("selection aborted")

// SelectOne filters like Select and lets chooser pick one item.
func SelectOne(ctx context.Context, repo Lister, stages workitem.StageSet, chooser Chooser) (workitem.Item, error) {
	items, err := Select(ctx, repo, stages)
	if err != nil {
		return workitem.Item{}, err
	}
	if len(items) == 0 {
		return workitem.Item{}, services.Wrap(services.ErrNotFound, "selector", "select one", "no item in requested stages", nil)
	}
	options := make([]string, len(items))
	for i, item := range items {
		options[i] = FormatChoice(item)
	}
	idx, err := chooser.Choose("Choose a video", options)
	if err != nil {
		return workitem.Item{}, err
	}
	if idx < 0 || idx >= len(items) {
		return workitem.Item{}, fmt.Errorf("choice %d out of range", idx)
	}
	return items[idx], nil
}
