package editing_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"influencer/internal/channels"
	"influencer/internal/editing"
	"influencer/internal/logging"
	"influencer/internal/production"
	"influencer/internal/services"
	"influencer/internal/workitem"
)

type fakeRunner struct {
	calls []string
	fail  map[production.Step]error
}

func (r *fakeRunner) RunStep(_ context.Context, _ channels.Channel, item workitem.Item, step production.Step) (workitem.Item, error) {
	r.calls = append(r.calls, string(step))
	if err := r.fail[step]; err != nil {
		return item, err
	}
	if step == production.StepNarrate && item.Stage < workitem.StageNarrated {
		item.Stage = workitem.StageNarrated
	}
	if step == production.StepTranscribe && item.Stage < workitem.StageTranscribed {
		item.Stage = workitem.StageTranscribed
	}
	return item, nil
}

func (r *fakeRunner) Retitle(_ context.Context, _ channels.Channel, item workitem.Item) (workitem.Item, error) {
	r.calls = append(r.calls, "retitle")
	item.Title = "New title"
	return item, nil
}

func (r *fakeRunner) Rerecord(_ context.Context, _ channels.Channel, item workitem.Item, part int) (workitem.Item, error) {
	r.calls = append(r.calls, "rerecord")
	if part != 2 {
		return item, errors.New("unexpected part")
	}
	return item, nil
}

type scriptedPrompter struct {
	actions []editing.Action
	offered [][]editing.Action
	part    int
}

func (p *scriptedPrompter) Next(_ workitem.Item, actions []editing.Action) (editing.Action, error) {
	p.offered = append(p.offered, actions)
	if len(p.actions) == 0 {
		return editing.ActionExit, nil
	}
	a := p.actions[0]
	p.actions = p.actions[1:]
	return a, nil
}

func (p *scriptedPrompter) Part(workitem.Item, int) (int, error) {
	return p.part, nil
}

func TestAvailableByStage(t *testing.T) {
	got := editing.Available(workitem.StageScripted)
	want := []editing.Action{editing.ActionVoice, editing.ActionExit}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("State1 actions = %v, want %v", got, want)
	}
	got = editing.Available(workitem.StageRendered)
	if len(got) != 8 || got[len(got)-2] != editing.ActionThumbnail {
		t.Fatalf("State4 actions = %v", got)
	}
	if got := editing.Available(workitem.StageDenied); len(got) != 1 {
		t.Fatalf("denied actions = %v, want only exit", got)
	}
}

func TestSessionLoopsUntilExit(t *testing.T) {
	runner := &fakeRunner{}
	prompter := &scriptedPrompter{
		actions: []editing.Action{editing.ActionVoice, editing.ActionSubtitles, editing.ActionRerecord},
		part:    2,
	}
	session := editing.NewSession(runner, prompter, logging.NewNop())

	item := workitem.Item{Series: "CAT", Seq: 1, Stage: workitem.StageScripted}
	got, err := session.Run(context.Background(), nil, item)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	wantCalls := []string{"split", "retitle", "phonetic", "narrate", "transcribe", "rerecord"}
	if !reflect.DeepEqual(runner.calls, wantCalls) {
		t.Fatalf("calls = %v, want %v", runner.calls, wantCalls)
	}
	if got.Stage != workitem.StageTranscribed || got.Title != "New title" {
		t.Fatalf("final item = %+v", got)
	}
	if len(prompter.offered) != 4 {
		t.Fatalf("menu offered %d times, want 4", len(prompter.offered))
	}
	if len(prompter.offered[1]) <= len(prompter.offered[0]) {
		t.Fatalf("menu did not grow after narration: %v", prompter.offered)
	}
}

func TestSessionContinuesAfterFailure(t *testing.T) {
	runner := &fakeRunner{fail: map[production.Step]error{
		production.StepMix: services.Wrap(services.ErrTransient, "audio", "mix", "ffmpeg exited", nil),
	}}
	prompter := &scriptedPrompter{actions: []editing.Action{editing.ActionAudio, editing.ActionVideo}}
	session := editing.NewSession(runner, prompter, logging.NewNop())

	item := workitem.Item{Series: "CAT", Seq: 1, Stage: workitem.StageTranscribed}
	if _, err := session.Run(context.Background(), nil, item); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := []string{"mix", "render"}; !reflect.DeepEqual(runner.calls, want) {
		t.Fatalf("calls = %v, want %v", runner.calls, want)
	}
}

func TestSessionStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	prompter := &scriptedPrompter{actions: []editing.Action{editing.ActionVoice}}
	session := editing.NewSession(&fakeRunner{}, prompter, logging.NewNop())
	if _, err := session.Run(ctx, nil, workitem.Item{Stage: workitem.StageScripted}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if len(prompter.offered) != 0 {
		t.Fatal("prompted after cancellation")
	}
}
