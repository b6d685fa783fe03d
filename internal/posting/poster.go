package posting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/google/uuid"

	"influencer/internal/channels"
	"influencer/internal/config"
	"influencer/internal/journal"
	"influencer/internal/logging"
	"influencer/internal/notifications"
	"influencer/internal/quota"
	"influencer/internal/retry"
	"influencer/internal/selector"
	"influencer/internal/services"
	"influencer/internal/store"
	"influencer/internal/workitem"
)

// Deps are the collaborators of a Poster.
type Deps struct {
	Uploader Uploader
	Notifier notifications.Service
	Journal  journal.Recorder
	Sleep    retry.Sleeper
	// Rand returns a value in [0,1) for pause jitter.
	Rand func() float64
	// Shuffle reorders channels each round.
	Shuffle func(n int, swap func(i, j int))
	Now     func() time.Time
	// Online probes connectivity before a run.
	Online func(ctx context.Context) bool
	// Repository overrides the per-channel store.
	Repository func(ch channels.Channel) store.Repository
}

// Summary counts the outcome of an upload run. Closed and Skipped count
// channel visits, so a channel that stays closed adds one per round.
type Summary struct {
	Posted  int
	Closed  int
	Failed  int
	Rounds  int
	Skipped int
}

// Poster runs the upload rounds.
type Poster struct {
	cfg    *config.Config
	deps   Deps
	loc    *time.Location
	logger *slog.Logger
}

// New builds a Poster and resolves the quota timezone.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) (*Poster, error) {
	loc, err := quota.LoadLocation(cfg.Posting.QuotaTimezone)
	if err != nil {
		return nil, err
	}
	if deps.Uploader == nil {
		return nil, services.Wrap(services.ErrConfiguration, "posting", "new", "uploader required", nil)
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.Noop()
	}
	if deps.Journal == nil {
		deps.Journal = journal.Nop{}
	}
	if deps.Sleep == nil {
		deps.Sleep = retry.Sleep
	}
	if deps.Rand == nil {
		deps.Rand = rand.Float64
	}
	if deps.Shuffle == nil {
		deps.Shuffle = rand.Shuffle
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	p := &Poster{cfg: cfg, deps: deps, loc: loc, logger: logging.NewComponentLogger(logger, "posting")}
	if p.deps.Online == nil {
		p.deps.Online = p.probe
	}
	return p, nil
}

type outcome int

const (
	outcomePosted outcome = iota
	outcomeIdle
	outcomeClosed
	outcomeFailed
	// outcomeFatal retires the channel for the rest of the run.
	outcomeFatal
)

// UploadAll runs the configured number of rounds over chs. Every round visits
// each channel again, so a gate closed before midnight reopens once the day
// rolls over and newly approved items are picked up. Only a fatal error
// retires a channel. Content alerts are evaluated per channel at the end.
func (p *Poster) UploadAll(ctx context.Context, chs []channels.Channel) (Summary, error) {
	var summary Summary
	if len(chs) == 0 {
		return summary, nil
	}
	start := p.deps.Now()
	runID := uuid.NewString()
	logger := p.logger.With(logging.String(logging.FieldCorrelationID, runID))

	if err := p.waitOnline(ctx, logger); err != nil {
		return summary, err
	}

	order := append([]channels.Channel(nil), chs...)
	states := make(map[string]*channelState, len(chs))
	retired := make(map[string]bool, len(chs))
	for _, ch := range chs {
		states[ch.Name()] = p.open(ch)
	}

	for round := 1; round <= p.cfg.Posting.Rounds; round++ {
		if len(retired) == len(order) {
			break
		}
		summary.Rounds = round
		p.deps.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		logger.Info("upload round started", logging.Int("round", round), logging.Int("channels", len(order)-len(retired)))

		served := 0
		for _, ch := range order {
			if retired[ch.Name()] {
				continue
			}
			if served > 0 {
				if err := p.pause(ctx, p.cfg.Posting.ChannelPauseMinSeconds, p.cfg.Posting.ChannelPauseMaxSeconds); err != nil {
					return summary, err
				}
			}
			served++
			switch p.serve(ctx, states[ch.Name()], runID) {
			case outcomePosted:
				summary.Posted++
			case outcomeIdle:
				summary.Skipped++
			case outcomeClosed:
				summary.Closed++
			case outcomeFailed:
				summary.Failed++
			case outcomeFatal:
				summary.Failed++
				retired[ch.Name()] = true
			}
			if err := ctx.Err(); err != nil {
				return summary, err
			}
		}
		if round < p.cfg.Posting.Rounds && len(retired) < len(order) {
			if err := p.pause(ctx, p.cfg.Posting.RoundPauseMinSeconds, p.cfg.Posting.RoundPauseMaxSeconds); err != nil {
				return summary, err
			}
		}
	}

	for _, ch := range chs {
		p.checkContent(ctx, states[ch.Name()], runID)
	}
	elapsed := p.deps.Now().Sub(start)
	logger.Info("upload run finished",
		logging.String(logging.FieldEventType, "upload_run_complete"),
		logging.Int("posted", summary.Posted),
		logging.Int("closed", summary.Closed),
		logging.Int("failed", summary.Failed),
		logging.Int("rounds", summary.Rounds),
	)
	p.deps.Notifier.NotifyRunCompleted(ctx, "upload", summary.Posted, summary.Failed, elapsed)
	return summary, nil
}

// serve archives posted items, consults the gate and posts one item.
func (p *Poster) serve(ctx context.Context, cs *channelState, runID string) outcome {
	logger := p.logger.With(logging.String(logging.FieldChannel, cs.ch.Name()), logging.String(logging.FieldCorrelationID, runID))
	if n, err := cs.repo.ArchivePosted(ctx); err != nil {
		logging.WarnWithContext(logger, "archive failed", "archive_failed", logging.Error(err))
	} else if n > 0 {
		p.record(ctx, cs, runID, journal.Event{Kind: journal.KindArchived, Detail: fmt.Sprintf("%d item(s)", n)})
	}

	now := p.deps.Now()
	closed, err := cs.gate.Closed(now)
	if err != nil {
		logging.ErrorWithContext(logger, "quota gate unreadable", "quota_gate_failed", logging.Error(err))
		return outcomeFatal
	}
	if closed {
		logger.Info("upload gate closed for today", logging.String("day", cs.gate.Day(now)))
		return outcomeClosed
	}

	res, err := p.postOne(ctx, cs, runID)
	switch {
	case err == nil:
		return outcomePosted
	case errors.Is(err, ErrNothingApproved):
		logger.Info("nothing approved to upload", logging.String(logging.FieldEventType, "upload_idle"))
		return outcomeIdle
	case errors.Is(err, services.ErrQuotaExceeded):
		if cerr := cs.gate.Close(now, err.Error()); cerr != nil {
			logging.ErrorWithContext(logger, "could not write quota marker", "quota_close_failed", logging.Error(cerr))
		}
		logging.WarnWithContext(logger, "upload quota exhausted", "quota_closed",
			logging.String(logging.FieldItem, res.Item.Key()),
			logging.String("reopens", cs.gate.Day(now.AddDate(0, 0, 1))),
			logging.String(logging.FieldImpact, "channel skipped until tomorrow"),
		)
		p.record(ctx, cs, runID, journal.Event{Item: res.Item.Key(), Kind: journal.KindQuotaClosed, Detail: cs.gate.Day(now)})
		p.deps.Notifier.NotifyQuotaClosed(ctx, cs.ch.Name())
		return outcomeClosed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return outcomeFatal
	default:
		logging.ErrorWithContext(logger, "upload failed", "upload_failed",
			logging.String(logging.FieldItem, res.Item.Key()),
			logging.String("disposition", services.Classify(err).String()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the channel token and the item files"),
		)
		p.record(ctx, cs, runID, journal.Event{Item: res.Item.Key(), Kind: journal.KindFailure, FromStage: res.Item.Stage.String(), Detail: err.Error()})
		if services.IsFatal(err) {
			p.deps.Notifier.NotifyPossibleExpiredToken(ctx, cs.ch.Name(), err)
			return outcomeFatal
		}
		p.deps.Notifier.NotifyItemFailed(ctx, cs.ch.Name(), res.Item.DisplayTitle(), err)
		return outcomeFailed
	}
}

// checkContent raises the low-content alerts. Both are evaluated on their
// own thresholds.
func (p *Poster) checkContent(ctx context.Context, cs *channelState, runID string) {
	logger := p.logger.With(logging.String(logging.FieldChannel, cs.ch.Name()))
	now := p.deps.Now()
	if _, err := cs.calendar.Ensure(now, p.policy(cs.ch)); err != nil {
		logging.WarnWithContext(logger, "calendar refresh failed", "calendar_failed", logging.Error(err))
		return
	}
	days, err := cs.calendar.DaysOfContent(now)
	if err != nil {
		logging.WarnWithContext(logger, "calendar unreadable", "calendar_failed", logging.Error(err))
		return
	}
	ready, err := selector.Count(ctx, cs.repo, workitem.Stages(workitem.StageApproved))
	if err != nil {
		logging.WarnWithContext(logger, "could not count approved items", "count_failed", logging.Error(err))
		return
	}
	alerts := p.cfg.Alerts
	if days < alerts.UploadDays {
		p.deps.Notifier.NotifyNeedUpload(ctx, cs.ch.Name(), days)
		p.record(ctx, cs, runID, journal.Event{Kind: journal.KindAlert, Detail: "need_upload"})
	}
	if days < alerts.ProduceDays && ready < alerts.MinApproved {
		p.deps.Notifier.NotifyNeedProduce(ctx, cs.ch.Name(), days, ready)
		p.record(ctx, cs, runID, journal.Event{Kind: journal.KindAlert, Detail: "need_produce"})
	}
	logger.Debug("content checked", logging.Int("days", days), logging.Int("ready", ready))
}

func (p *Poster) pause(ctx context.Context, minSeconds, maxSeconds int) error {
	wait := retry.Jitter(time.Duration(minSeconds)*time.Second, time.Duration(maxSeconds)*time.Second, p.deps.Rand)
	if wait <= 0 {
		return ctx.Err()
	}
	p.logger.Debug("pausing", logging.Duration("wait", wait))
	return p.deps.Sleep(ctx, wait)
}

func (p *Poster) waitOnline(ctx context.Context, logger *slog.Logger) error {
	interval := time.Duration(p.cfg.Posting.ConnectivityIntervalSeconds) * time.Second
	first := true
	return retry.WaitUntil(ctx, interval, p.deps.Sleep, func(ctx context.Context) bool {
		ok := p.deps.Online(ctx)
		if !ok && first {
			logging.WarnWithContext(logger, "no connectivity; waiting", "offline",
				logging.String("probe", p.cfg.Posting.ConnectivityURL),
				logging.Duration("interval", interval),
			)
			first = false
		}
		return ok
	})
}

// probe issues a GET to the connectivity URL.
func (p *Poster) probe(ctx context.Context) bool {
	url := p.cfg.Posting.ConnectivityURL
	if url == "" {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

func (p *Poster) record(ctx context.Context, cs *channelState, runID string, ev journal.Event) {
	ev.RunID = runID
	ev.Channel = cs.ch.Name()
	if err := p.deps.Journal.Record(ctx, ev); err != nil {
		logging.WarnWithContext(p.logger, "journal write failed", "journal_write_failed", logging.Error(err))
	}
}

