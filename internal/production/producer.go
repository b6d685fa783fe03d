package production

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"influencer/internal/channels"
	"influencer/internal/config"
	"influencer/internal/journal"
	"influencer/internal/lifecycle"
	"influencer/internal/logging"
	"influencer/internal/notifications"
	"influencer/internal/retry"
	"influencer/internal/services"
	"influencer/internal/store"
	"influencer/internal/topics"
	"influencer/internal/workitem"
)

// Deps are the collaborators a Producer drives.
type Deps struct {
	Writer      Writer
	Transcriber Transcriber
	Voice       Synthesizer
	Media       Media
	// Stock is optional.
	Stock    StockImages
	Notifier notifications.Service
	Journal  journal.Recorder
	Sleep    retry.Sleeper
	Rand     *rand.Rand
	// Repository overrides the per-channel store.
	Repository func(ch channels.Channel) store.Repository
}

// Summary counts the outcome of a production or re-edit run.
type Summary struct {
	Produced int
	Skipped  int
	Failed   int
}

// Producer runs the production pipeline.
type Producer struct {
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger
}

// New builds a Producer.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) *Producer {
	if deps.Notifier == nil {
		deps.Notifier = notifications.Noop()
	}
	if deps.Journal == nil {
		deps.Journal = journal.Nop{}
	}
	if deps.Sleep == nil {
		deps.Sleep = retry.Sleep
	}
	return &Producer{
		cfg:    cfg,
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "production"),
	}
}

// channelRun groups the per-channel collaborators of one run.
type channelRun struct {
	ch     channels.Channel
	repo   store.Repository
	life   *lifecycle.Manager
	runID  string
	logger *slog.Logger
}

func (p *Producer) open(ch channels.Channel) *channelRun {
	runID := uuid.NewString()
	logger := p.logger.With(
		logging.String(logging.FieldChannel, ch.Name()),
		logging.String(logging.FieldCorrelationID, runID),
	)
	var repo store.Repository
	if p.deps.Repository != nil {
		repo = p.deps.Repository(ch)
	} else {
		repo = store.Open(p.cfg, channels.OutputsDir(ch), logger)
	}
	return &channelRun{
		ch:     ch,
		repo:   repo,
		life:   lifecycle.New(repo, p.deps.Journal, ch.Name(), ch.InferenceOptions(), logger),
		runID:  runID,
		logger: logger,
	}
}

func (r *channelRun) scope(ctx context.Context) context.Context {
	return services.WithScope(ctx, services.Scope{Channel: r.ch.Name(), RunID: r.runID})
}

// ProduceAll runs ProduceChannel for every channel in order. A channel that
// fails validation is reported and skipped.
func (p *Producer) ProduceAll(ctx context.Context, chs []channels.Channel) (Summary, error) {
	start := time.Now()
	var total Summary
	for _, ch := range chs {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		s, err := p.ProduceChannel(ctx, ch)
		total.Produced += s.Produced
		total.Skipped += s.Skipped
		total.Failed += s.Failed
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return total, err
			}
			total.Failed++
		}
	}
	p.logger.Info("production run finished",
		logging.String(logging.FieldEventType, "production_complete"),
		logging.Int("produced", total.Produced),
		logging.Int("skipped", total.Skipped),
		logging.Int("failed", total.Failed),
		logging.Duration("duration", time.Since(start)),
	)
	p.deps.Notifier.NotifyRunCompleted(ctx, "production", total.Produced, total.Failed, time.Since(start))
	return total, nil
}

// ProduceChannel produces one item per pending topic. Topic codes are
// validated before any paid call; an invalid code stops the channel.
func (p *Producer) ProduceChannel(ctx context.Context, ch channels.Channel) (Summary, error) {
	var summary Summary
	run := p.open(ch)
	ctx = run.scope(ctx)
	if _, err := run.life.SweepAbandoned(ctx, false); err != nil {
		return summary, err
	}

	queue := topics.New(ch.Dir())
	if err := queue.Recover(); err != nil {
		return summary, err
	}
	pending, err := queue.ValidateCodes(channels.ImagesDir(ch))
	if err != nil {
		logging.ErrorWithContext(run.logger, "topic validation failed", "topic_validation_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the topic codes in "+topics.PendingFile+" or add the image folders"),
		)
		p.deps.Notifier.NotifyItemFailed(ctx, ch.Name(), "topic validation", err)
		return summary, err
	}
	if len(pending) == 0 {
		run.logger.Info("no pending topics", logging.String(logging.FieldEventType, "production_idle"))
		return summary, nil
	}

	for _, topic := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		item, err := p.produceOne(ctx, run, queue, topic)
		switch {
		case err == nil:
			summary.Produced++
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return summary, err
		case errors.Is(err, services.ErrContentIncomplete):
			summary.Skipped++
			cooldown := time.Duration(p.cfg.Production.CooldownSeconds) * time.Second
			logging.WarnWithContext(run.logger, "script too short; cooling down", "content_incomplete",
				logging.String(logging.FieldTitle, topic.Title),
				logging.String(logging.FieldItem, item.Key()),
				logging.Duration("cooldown", cooldown),
				logging.Error(err),
				logging.String(logging.FieldImpact, "topic stays pending"),
			)
			if err := p.deps.Sleep(ctx, cooldown); err != nil {
				return summary, err
			}
		default:
			summary.Failed++
			p.handleFailure(ctx, run, item, topic.Title, err)
		}
		if _, err := run.life.SweepAbandoned(ctx, true); err != nil {
			logging.WarnWithContext(run.logger, "abandoned item sweep failed", "sweep_failed", logging.Error(err))
		}
	}
	return summary, nil
}

func (p *Producer) produceOne(ctx context.Context, run *channelRun, queue *topics.Queue, topic topics.Topic) (workitem.Item, error) {
	item, err := run.repo.Create(ctx, run.ch.Series())
	if err != nil {
		return item, err
	}
	ctx = services.WithScope(ctx, services.Scope{Item: item.Key()})
	p.record(ctx, run, journal.Event{Item: item.Key(), Kind: journal.KindCreated, ToStage: item.Stage.String(), Detail: topic.Raw})
	j := &job{
		run:    run,
		item:   item,
		topic:  topic,
		logger: run.logger.With(logging.String(logging.FieldItem, item.Key()), logging.String(logging.FieldTitle, topic.Title)),
	}
	j.logger.Info("production started", logging.String(logging.FieldEventType, "production_start"))
	for _, step := range Pipeline {
		if err := p.runStep(ctx, j, step); err != nil {
			return j.item, err
		}
	}

	title, err := readText(j.path(workitem.TitleFile))
	if err != nil {
		return j.item, err
	}
	if err := queue.Pop(topic); err != nil {
		return j.item, err
	}
	p.record(ctx, run, journal.Event{Item: j.item.Key(), Kind: journal.KindTopicPopped, Detail: topic.Raw})
	named, err := run.repo.SetTitle(ctx, j.item, title)
	if err != nil {
		return j.item, err
	}
	p.record(ctx, run, journal.Event{Item: named.Key(), Kind: journal.KindRenamed, Detail: named.Title})
	final, err := run.life.Advance(ctx, named)
	if err != nil {
		return named, err
	}
	j.logger.Info("production completed",
		logging.String(logging.FieldEventType, "production_complete"),
		logging.String(logging.FieldStage, final.Stage.String()),
		logging.String("folder", final.Dir),
	)
	return final, nil
}

func (p *Producer) handleFailure(ctx context.Context, run *channelRun, item workitem.Item, title string, err error) {
	disposition := services.Classify(err)
	logging.ErrorWithContext(run.logger, "item failed", "item_failed",
		logging.String(logging.FieldItem, item.Key()),
		logging.String(logging.FieldTitle, title),
		logging.String("disposition", disposition.String()),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, failureHint(err)),
	)
	p.record(ctx, run, journal.Event{
		Item:      item.Key(),
		Kind:      journal.KindFailure,
		FromStage: item.Stage.String(),
		Detail:    truncate(err.Error(), 500),
	})
	if services.IsFatal(err) {
		p.deps.Notifier.NotifyItemFailed(ctx, run.ch.Name(), title, err)
	}
}

func (p *Producer) record(ctx context.Context, run *channelRun, ev journal.Event) {
	ev.RunID = run.runID
	ev.Channel = run.ch.Name()
	if err := p.deps.Journal.Record(ctx, ev); err != nil {
		logging.WarnWithContext(run.logger, "journal write failed", "journal_write_failed", logging.Error(err))
	}
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrConfiguration):
		return "check the channel profile and config"
	case errors.Is(err, services.ErrStorage):
		return "check the channel directory is writable"
	case services.IsFatal(err):
		return "collaborator rejected the request; check credentials and quota"
	default:
		return "check logs for details"
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
