package posting

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"influencer/internal/channels"
	"influencer/internal/collab/youtube"
	"influencer/internal/config"
	"influencer/internal/fileutil"
	"influencer/internal/journal"
	"influencer/internal/lifecycle"
	"influencer/internal/logging"
	"influencer/internal/quota"
	"influencer/internal/schedule"
	"influencer/internal/selector"
	"influencer/internal/services"
	"influencer/internal/stage"
	"influencer/internal/store"
	"influencer/internal/workitem"
)

// Platform names the calendar file the posting loop maintains.
const Platform = "YT"

// Uploader publishes one video for a channel and returns its id.
type Uploader interface {
	Upload(ctx context.Context, creds channels.Credentials, v youtube.Video) (string, error)
}

// ErrNothingApproved reports that a channel has no item ready to post.
var ErrNothingApproved = errors.New("nothing approved to post")

// Result describes one PostOne call.
type Result struct {
	Item    workitem.Item
	VideoID string
	Slot    time.Time
	// Resumed is set when youtube.txt already existed and no upload ran.
	Resumed bool
}

// channelState groups the per-channel collaborators.
type channelState struct {
	ch       channels.Channel
	repo     store.Repository
	life     *lifecycle.Manager
	gate     *quota.Gate
	calendar *schedule.Calendar
}

func (p *Poster) open(ch channels.Channel) *channelState {
	var repo store.Repository
	if p.deps.Repository != nil {
		repo = p.deps.Repository(ch)
	} else {
		repo = store.Open(p.cfg, channels.OutputsDir(ch), p.logger)
	}
	return &channelState{
		ch:       ch,
		repo:     repo,
		life:     lifecycle.New(repo, p.deps.Journal, ch.Name(), ch.InferenceOptions(), p.logger),
		gate:     quota.New(ch.Dir(), p.loc),
		calendar: schedule.New(ch.Dir(), Platform),
	}
}

func (p *Poster) policy(ch channels.Channel) schedule.Policy {
	return CalendarPolicy(p.cfg, ch)
}

// CalendarPolicy is the slot policy for ch's publish calendar.
func CalendarPolicy(cfg *config.Config, ch channels.Channel) schedule.Policy {
	return schedule.Policy{
		Weekdays:      ch.UploadWeekdays(),
		LookaheadDays: cfg.Schedule.LookaheadDays,
		SlotHourUTC:   cfg.Schedule.SlotHourUTC,
	}
}

// PostOne uploads the oldest approved item of ch into the next free calendar
// slot without consulting the quota gate. An item that already carries
// youtube.txt is only recorded and advanced. A successful upload proves the
// quota is available again, so today's marker is removed.
func (p *Poster) PostOne(ctx context.Context, ch channels.Channel) (Result, error) {
	cs := p.open(ch)
	res, err := p.postOne(ctx, cs, "")
	if err != nil {
		return res, err
	}
	if err := cs.gate.Reopen(p.deps.Now()); err != nil {
		logging.WarnWithContext(p.logger, "could not clear quota marker", "quota_reopen_failed",
			logging.String(logging.FieldChannel, ch.Name()),
			logging.Error(err),
		)
	}
	return res, nil
}

func (p *Poster) postOne(ctx context.Context, cs *channelState, runID string) (Result, error) {
	item, err := selector.First(ctx, cs.repo, workitem.Stages(workitem.StageApproved))
	if errors.Is(err, services.ErrNotFound) {
		return Result{}, fmt.Errorf("%w: %s", ErrNothingApproved, cs.ch.Name())
	}
	if err != nil {
		return Result{}, err
	}
	res := Result{Item: item}
	ctx = services.WithScope(ctx, services.Scope{Channel: cs.ch.Name(), Item: item.Key(), Step: "upload", RunID: runID})
	logger := logging.WithContext(ctx, p.logger)

	now := p.deps.Now()
	if _, err := cs.calendar.Ensure(now, p.policy(cs.ch)); err != nil {
		return res, err
	}
	slot, err := p.slotFor(cs, item, now)
	if err != nil {
		return res, err
	}
	res.Slot = slot

	idPath := filepath.Join(item.Dir, stage.YouTubeFile)
	if existing, err := os.ReadFile(idPath); err == nil {
		res.VideoID = strings.TrimSpace(string(existing))
		res.Resumed = true
		logger.Info("video already uploaded; recording only", logging.String("video_id", res.VideoID))
	} else {
		video, err := buildVideo(cs.ch, item, slot)
		if err != nil {
			return res, err
		}
		logger.Info("uploading video",
			logging.String(logging.FieldEventType, "upload_start"),
			logging.String(logging.FieldTitle, video.Title),
			logging.String("publish_at", schedule.FormatSlot(slot)),
		)
		id, err := p.deps.Uploader.Upload(ctx, cs.ch, video)
		if err != nil {
			return res, err
		}
		if err := fileutil.WriteFileAtomic(idPath, []byte(id), 0o644); err != nil {
			return res, services.Wrap(services.ErrStorage, "posting", "write video id", idPath, err)
		}
		res.VideoID = id
	}

	title, _ := readTrimmed(filepath.Join(item.Dir, workitem.TitleFile))
	if title == "" {
		title = item.DisplayTitle()
	}
	if err := cs.calendar.Fill(slot, title, true, false); err != nil {
		return res, err
	}
	p.record(ctx, cs, runID, journal.Event{
		Item:   item.Key(),
		Kind:   journal.KindUpload,
		Detail: fmt.Sprintf("video_id=%s publish_at=%s", res.VideoID, schedule.FormatSlot(slot)),
	})
	advanced, err := cs.life.Advance(ctx, item)
	if err != nil {
		return res, err
	}
	res.Item = advanced
	logger.Info("video scheduled",
		logging.String(logging.FieldEventType, "upload_complete"),
		logging.String("video_id", res.VideoID),
		logging.String("publish_at", schedule.FormatSlot(slot)),
		logging.String(logging.FieldStage, advanced.Stage.String()),
	)
	return res, nil
}

// slotFor reuses a still-future date.txt from an interrupted attempt or
// claims the next free calendar slot.
func (p *Poster) slotFor(cs *channelState, item workitem.Item, now time.Time) (time.Time, error) {
	datePath := filepath.Join(item.Dir, workitem.DateFile)
	if raw, err := readTrimmed(datePath); err == nil && raw != "" {
		if slot, err := schedule.ParseSlot(raw); err == nil && slot.After(now) {
			return slot, nil
		}
	}
	entry, err := cs.calendar.NextFree()
	if err != nil {
		return time.Time{}, err
	}
	if err := fileutil.WriteFileAtomic(datePath, []byte(entry.Key()), 0o644); err != nil {
		return time.Time{}, services.Wrap(services.ErrStorage, "posting", "write date", datePath, err)
	}
	return entry.Slot, nil
}

func buildVideo(ch channels.Channel, item workitem.Item, slot time.Time) (youtube.Video, error) {
	texts := make(map[string]string, 3)
	for _, name := range []string{workitem.TitleFile, workitem.FooterFile, workitem.KeywordsFile} {
		body, err := readTrimmed(filepath.Join(item.Dir, name))
		if err != nil {
			return youtube.Video{}, services.Wrap(services.ErrValidation, "posting", "required file", item.Key()+": "+name, err)
		}
		texts[name] = body
	}
	videos, err := filepath.Glob(filepath.Join(item.Dir, stage.VideoPattern))
	if err != nil {
		return youtube.Video{}, err
	}
	if len(videos) != 1 {
		return youtube.Video{}, services.Wrap(services.ErrValidation, "posting", "video file",
			fmt.Sprintf("%s: expected exactly one .mp4, found %d", item.Key(), len(videos)), nil)
	}
	return youtube.Video{
		Path:        videos[0],
		Title:       texts[workitem.TitleFile],
		Description: texts[workitem.FooterFile],
		Tags:        Tags(texts[workitem.KeywordsFile]),
		CategoryID:  ch.CategoryID(),
		Language:    ch.Language(),
		PublishAt:   slot,
	}, nil
}

// Tags splits keywords.txt into upload tags.
func Tags(keywords string) []string {
	var out []string
	for _, k := range strings.Split(keywords, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func readTrimmed(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		return "", services.Wrap(services.ErrStorage, "posting", "read", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
