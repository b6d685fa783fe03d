package production

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"influencer/internal/channels"
	"influencer/internal/fileutil"
	"influencer/internal/logging"
	"influencer/internal/selector"
	"influencer/internal/services"
	"influencer/internal/stage"
	"influencer/internal/workitem"
)

var (
	approvable = workitem.Stages(workitem.StageRendered, workitem.StageThumbnailed)
	deniable   = workitem.Stages(workitem.StageRendered, workitem.StageThumbnailed, workitem.StageApproved)
)

// Reedit re-renders every denied item of ch, clears its denial and advances
// it. Failures are logged per item.
func (p *Producer) Reedit(ctx context.Context, ch channels.Channel) (Summary, error) {
	var summary Summary
	run := p.open(ch)
	ctx = run.scope(ctx)
	items, err := selector.Select(ctx, run.repo, workitem.Stages(workitem.StageDenied))
	if err != nil {
		return summary, err
	}
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		j := &job{run: run, item: item, logger: run.logger.With(logging.String(logging.FieldItem, item.Key()))}
		if err := p.render(ctx, j); err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			summary.Failed++
			p.handleFailure(ctx, run, item, item.DisplayTitle(), err)
			continue
		}
		if err := removeMarker(j.path(stage.DenialFile)); err != nil {
			summary.Failed++
			p.handleFailure(ctx, run, item, item.DisplayTitle(), err)
			continue
		}
		if _, err := run.life.Advance(ctx, item); err != nil {
			summary.Failed++
			p.handleFailure(ctx, run, item, item.DisplayTitle(), err)
			continue
		}
		summary.Produced++
	}
	run.logger.Info("re-edit finished",
		logging.String(logging.FieldEventType, "reedit_complete"),
		logging.Int("rerendered", summary.Produced),
		logging.Int("failed", summary.Failed),
	)
	return summary, nil
}

// Approve marks a rendered item ready to post. Denied items need force.
func (p *Producer) Approve(ctx context.Context, ch channels.Channel, item workitem.Item, force bool) (workitem.Item, error) {
	if !approvable.Has(item.Stage) && !(force && item.Stage == workitem.StageDenied) {
		return item, services.Wrap(services.ErrValidation, "approve", item.Key(), "cannot approve an item in "+item.Stage.String(), nil)
	}
	run := p.open(ch)
	dir := item.Dir
	if err := fileutil.TouchFile(filepath.Join(dir, stage.ApprovalFile), ""); err != nil {
		return item, services.Wrap(services.ErrStorage, "approve", item.Key(), "write marker", err)
	}
	if err := removeMarker(filepath.Join(dir, stage.DenialFile)); err != nil {
		return item, err
	}
	return run.life.Advance(ctx, item)
}

// Deny sends an item back for re-editing. reason is kept in the marker.
func (p *Producer) Deny(ctx context.Context, ch channels.Channel, item workitem.Item, reason string) (workitem.Item, error) {
	if !deniable.Has(item.Stage) {
		return item, services.Wrap(services.ErrValidation, "deny", item.Key(), "cannot deny an item in "+item.Stage.String(), nil)
	}
	run := p.open(ch)
	if err := fileutil.TouchFile(filepath.Join(item.Dir, stage.DenialFile), strings.TrimSpace(reason)); err != nil {
		return item, services.Wrap(services.ErrStorage, "deny", item.Key(), "write marker", err)
	}
	return run.life.Advance(ctx, item)
}

func removeMarker(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return services.Wrap(services.ErrStorage, "markers", "remove", path, err)
	}
	return nil
}

// Retitle renames item after the title in title.txt.
func (p *Producer) Retitle(ctx context.Context, ch channels.Channel, item workitem.Item) (workitem.Item, error) {
	title, err := readText(filepath.Join(item.Dir, workitem.TitleFile))
	if err != nil {
		return item, err
	}
	run := p.open(ch)
	return run.repo.SetTitle(ctx, item, title)
}

// Rerecord synthesizes sentence part (1-based) again and rebuilds the joined
// narration from every part on disk.
func (p *Producer) Rerecord(ctx context.Context, ch channels.Channel, item workitem.Item, part int) (workitem.Item, error) {
	if p.deps.Voice == nil || p.deps.Media == nil {
		return item, services.Wrap(services.ErrConfiguration, "rerecord", "collaborators", "voice or media toolkit not configured", nil)
	}
	run := p.open(ch)
	ctx = services.WithScope(run.scope(ctx), services.Scope{Item: item.Key(), Step: "rerecord"})
	j := &job{run: run, item: item, logger: run.logger.With(logging.String(logging.FieldItem, item.Key()))}
	sentence, err := readText(j.path(workitem.TextsDir, fmt.Sprintf("part%d.txt", part)))
	if err != nil {
		return item, services.Wrap(services.ErrValidation, "rerecord", item.Key(), fmt.Sprintf("no sentence %d", part), err)
	}
	audio, err := p.deps.Voice.Synthesize(ctx, sentence, ch.Voice())
	if err != nil {
		return item, err
	}
	if err := writeBytes(j.path(workitem.AudiosDir, fmt.Sprintf("part%d.mp3", part)), audio); err != nil {
		return item, err
	}
	var parts []string
	for i := 1; ; i++ {
		candidate := j.path(workitem.AudiosDir, fmt.Sprintf("part%d.mp3", i))
		if _, err := os.Stat(candidate); err != nil {
			break
		}
		parts = append(parts, candidate)
	}
	if err := p.deps.Media.JoinNarration(ctx, parts, j.path(stage.NarrationFile)); err != nil {
		return item, err
	}
	j.logger.Info("sentence re-recorded", logging.Int("part", part), logging.Int("parts", len(parts)))
	return run.life.Advance(ctx, item)
}

// PartCount counts the narration sentences stored for item.
func PartCount(item workitem.Item) int {
	n := 0
	for {
		if _, err := os.Stat(filepath.Join(item.Dir, workitem.TextsDir, fmt.Sprintf("part%d.txt", n+1))); err != nil {
			return n
		}
		n++
	}
}
