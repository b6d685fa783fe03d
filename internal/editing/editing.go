// Package editing is the operator's touch-up loop for items that are part
// way through production. A Session offers the actions the item's current
// stage allows, runs the chosen one, and re-offers until the operator exits.
package editing

import (
	"context"
	"errors"
	"log/slog"

	"influencer/internal/channels"
	"influencer/internal/logging"
	"influencer/internal/production"
	"influencer/internal/workitem"
)

// Action is one menu entry.
type Action string

const (
	ActionVoice     Action = "voice"
	ActionRerecord  Action = "correct"
	ActionAudio     Action = "audio"
	ActionSubtitles Action = "subtitles"
	ActionReview    Action = "review"
	ActionVideo     Action = "video"
	ActionThumbnail Action = "thumbnail"
	ActionExit      Action = "exit"
)

// Label is the menu text for a.
func (a Action) Label() string {
	switch a {
	case ActionVoice:
		return "Record narration from the script"
	case ActionRerecord:
		return "Re-record one sentence"
	case ActionAudio:
		return "Mix audio"
	case ActionSubtitles:
		return "Transcribe subtitles"
	case ActionReview:
		return "Correct subtitles"
	case ActionVideo:
		return "Render video"
	case ActionThumbnail:
		return "Render thumbnail"
	case ActionExit:
		return "Exit"
	}
	return string(a)
}

// EditableStages are the stages a Session accepts.
var EditableStages = workitem.Stages(
	workitem.StageScripted,
	workitem.StageNarrated,
	workitem.StageTranscribed,
	workitem.StageRendered,
)

// transitions lists each action with the lowest stage it needs.
var transitions = []struct {
	action Action
	min    workitem.Stage
}{
	{ActionVoice, workitem.StageScripted},
	{ActionRerecord, workitem.StageNarrated},
	{ActionAudio, workitem.StageNarrated},
	{ActionSubtitles, workitem.StageNarrated},
	{ActionReview, workitem.StageTranscribed},
	{ActionVideo, workitem.StageTranscribed},
	{ActionThumbnail, workitem.StageRendered},
}

// Available returns the actions offered in stage s, always ending in exit.
func Available(s workitem.Stage) []Action {
	var out []Action
	if s != workitem.StageDenied {
		for _, t := range transitions {
			if s >= t.min {
				out = append(out, t.action)
			}
		}
	}
	return append(out, ActionExit)
}

// Runner performs the production work behind each action.
type Runner interface {
	RunStep(ctx context.Context, ch channels.Channel, item workitem.Item, step production.Step) (workitem.Item, error)
	Retitle(ctx context.Context, ch channels.Channel, item workitem.Item) (workitem.Item, error)
	Rerecord(ctx context.Context, ch channels.Channel, item workitem.Item, part int) (workitem.Item, error)
}

// Prompter asks the operator.
type Prompter interface {
	Next(item workitem.Item, actions []Action) (Action, error)
	Part(item workitem.Item, parts int) (int, error)
}

// ErrAborted ends a session without error when the operator cancels a prompt.
var ErrAborted = errors.New("editing aborted")

// Session drives the loop.
type Session struct {
	runner   Runner
	prompter Prompter
	logger   *slog.Logger
}

// NewSession builds a Session.
func NewSession(runner Runner, prompter Prompter, logger *slog.Logger) *Session {
	return &Session{runner: runner, prompter: prompter, logger: logging.NewComponentLogger(logger, "editing")}
}

var actionSteps = map[Action][]production.Step{
	ActionVoice:     {production.StepSplit, production.StepPhonetic, production.StepNarrate},
	ActionAudio:     {production.StepMix},
	ActionSubtitles: {production.StepTranscribe},
	ActionReview:    {production.StepReview},
	ActionVideo:     {production.StepRender},
	ActionThumbnail: {production.StepThumbnail},
}

// Run loops until the operator exits and returns the item as last persisted.
// A failed action is logged and the menu is offered again.
func (s *Session) Run(ctx context.Context, ch channels.Channel, item workitem.Item) (workitem.Item, error) {
	for {
		if err := ctx.Err(); err != nil {
			return item, err
		}
		action, err := s.prompter.Next(item, Available(item.Stage))
		if errors.Is(err, ErrAborted) {
			return item, nil
		}
		if err != nil {
			return item, err
		}
		if action == ActionExit {
			return item, nil
		}
		updated, err := s.apply(ctx, ch, item, action)
		item = updated
		if err != nil {
			if ctx.Err() != nil {
				return item, ctx.Err()
			}
			if errors.Is(err, ErrAborted) {
				continue
			}
			logging.WarnWithContext(s.logger, "edit action failed", "edit_action_failed",
				logging.String(logging.FieldItem, item.Key()),
				logging.String("action", string(action)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "item left as it was after the last successful step"),
			)
			continue
		}
		s.logger.Info("edit action completed",
			logging.String(logging.FieldItem, item.Key()),
			logging.String("action", string(action)),
			logging.String(logging.FieldStage, item.Stage.String()),
		)
	}
}

func (s *Session) apply(ctx context.Context, ch channels.Channel, item workitem.Item, action Action) (workitem.Item, error) {
	if action == ActionRerecord {
		part, err := s.prompter.Part(item, production.PartCount(item))
		if err != nil {
			return item, err
		}
		return s.runner.Rerecord(ctx, ch, item, part)
	}
	steps, ok := actionSteps[action]
	if !ok {
		return item, errors.New("unknown action " + string(action))
	}
	for i, step := range steps {
		updated, err := s.runner.RunStep(ctx, ch, item, step)
		item = updated
		if err != nil {
			return item, err
		}
		if action == ActionVoice && i == 0 {
			if item, err = s.runner.Retitle(ctx, ch, item); err != nil {
				return item, err
			}
		}
	}
	return item, nil
}
