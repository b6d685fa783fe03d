package production

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"influencer/internal/channels"
	"influencer/internal/collab/images"
	"influencer/internal/collab/llm"
	"influencer/internal/fileutil"
	"influencer/internal/logging"
	"influencer/internal/services"
	"influencer/internal/stage"
	"influencer/internal/topics"
	"influencer/internal/transcript"
	"influencer/internal/workitem"
)

// Step names one unit of the pipeline.
type Step string

const (
	StepScript     Step = "script"
	StepSplit      Step = "split"
	StepImages     Step = "images"
	StepPhonetic   Step = "phonetic"
	StepNarrate    Step = "narrate"
	StepMix        Step = "mix"
	StepTranscribe Step = "transcribe"
	StepReview     Step = "review"
	StepRender     Step = "render"
	StepThumbnail  Step = "thumbnail"
)

// Pipeline is the order a new item goes through.
var Pipeline = []Step{
	StepScript,
	StepSplit,
	StepImages,
	StepPhonetic,
	StepNarrate,
	StepMix,
	StepTranscribe,
	StepReview,
	StepRender,
	StepThumbnail,
}

type job struct {
	run    *channelRun
	item   workitem.Item
	topic  topics.Topic
	logger *slog.Logger
}

func (j *job) path(elem ...string) string {
	return filepath.Join(append([]string{j.item.Dir}, elem...)...)
}

// code is the topic's image category, recovered from theme.txt for items
// resumed outside a production run.
func (j *job) code() (string, error) {
	if j.topic.Code != "" {
		return j.topic.Code, nil
	}
	return readText(j.path(workitem.ThemeFile))
}

// RunStep executes one step on an existing item and advances it. The script
// step needs a topic and is only available to ProduceChannel.
func (p *Producer) RunStep(ctx context.Context, ch channels.Channel, item workitem.Item, step Step) (workitem.Item, error) {
	if step == StepScript {
		return item, services.Wrap(services.ErrValidation, string(step), "run", "script is only generated for new items", nil)
	}
	run := p.open(ch)
	j := &job{
		run:    run,
		item:   item,
		logger: run.logger.With(logging.String(logging.FieldItem, item.Key())),
	}
	err := p.runStep(ctx, j, step)
	return j.item, err
}

func (p *Producer) runStep(ctx context.Context, j *job, step Step) error {
	fn, ok := p.steps()[step]
	if !ok {
		return services.Wrap(services.ErrValidation, string(step), "run", "unknown step", nil)
	}
	ctx = services.WithScope(ctx, services.Scope{Step: string(step)})
	start := time.Now()
	j.logger.Debug("step started", logging.String(logging.FieldStage, string(step)))
	if err := fn(ctx, j); err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}
	advanced, err := j.run.life.Advance(ctx, j.item)
	if err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}
	j.item = advanced
	j.logger.Info("step completed",
		logging.String(logging.FieldEventType, "step_complete"),
		logging.String(logging.FieldStage, string(step)),
		logging.String("item_stage", j.item.Stage.String()),
		logging.Duration("duration", time.Since(start)),
	)
	return nil
}

func (p *Producer) steps() map[Step]func(context.Context, *job) error {
	return map[Step]func(context.Context, *job) error{
		StepScript:     p.script,
		StepSplit:      p.split,
		StepImages:     p.images,
		StepPhonetic:   p.phonetic,
		StepNarrate:    p.narrate,
		StepMix:        p.mix,
		StepTranscribe: p.transcribe,
		StepReview:     p.review,
		StepRender:     p.render,
		StepThumbnail:  p.thumbnail,
	}
}

func (p *Producer) script(ctx context.Context, j *job) error {
	prompt := strings.TrimSpace(j.run.ch.ScriptPrompt())
	if prompt == "" {
		return services.Wrap(services.ErrConfiguration, "script", "prompt", j.run.ch.Name()+" has no script prompt", nil)
	}
	if p.deps.Writer == nil {
		return services.Wrap(services.ErrConfiguration, "script", "writer", "language model not configured", nil)
	}
	raw, err := p.deps.Writer.Complete(ctx, prompt, j.topic.Title)
	if err != nil {
		return err
	}
	if err := writeText(j.path(stage.ScriptFile), raw); err != nil {
		return err
	}
	return writeText(j.path(workitem.ThemeFile), j.topic.Code)
}

// split separates text.txt into title, script, thumbnail, footer and
// keywords.
func (p *Producer) split(_ context.Context, j *job) error {
	raw, err := readText(j.path(stage.ScriptFile))
	if err != nil {
		return err
	}
	parts, err := SplitScript(raw)
	if err != nil {
		return err
	}
	return parts.Write(j.item.Dir)
}

func (p *Producer) images(ctx context.Context, j *job) error {
	code, err := j.code()
	if err != nil {
		return err
	}
	dst := j.path(workitem.ImagesDir)
	copied, err := images.CopyRandom(filepath.Join(channels.ImagesDir(j.run.ch), code), dst, images.LibraryPick, p.deps.Rand)
	if err != nil {
		return err
	}
	fetched := 0
	if query := strings.TrimSpace(j.run.ch.StockQuery()); query != "" && p.deps.Stock != nil {
		fetched, err = p.deps.Stock.Fetch(ctx, query, dst, p.cfg.Production.ImagesPerItem)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.WarnWithContext(j.logger, "stock image fetch failed", "stock_images_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "video uses library images only"),
			)
		}
	}
	j.logger.Debug("images collected", logging.Int("library", len(copied)), logging.Int("stock", fetched))
	return nil
}

func (p *Producer) phonetic(ctx context.Context, j *job) error {
	prompt := strings.TrimSpace(j.run.ch.PhoneticPrompt())
	if !p.cfg.Production.PhoneticPass || !j.run.ch.PhoneticPass() || prompt == "" || p.deps.Writer == nil {
		return nil
	}
	script, err := readText(j.path(workitem.ScriptFile))
	if err != nil {
		return err
	}
	out, err := p.deps.Writer.Complete(ctx, prompt, script)
	if err != nil {
		return err
	}
	if strings.TrimSpace(out) == "" {
		return nil
	}
	return writeText(j.path(workitem.PhoneticFile), out)
}

// narrationText prefers the phonetic rewrite when one exists.
func (j *job) narrationText() (string, error) {
	text, err := readText(j.path(workitem.PhoneticFile))
	if err == nil && text != "" {
		return text, nil
	}
	return readText(j.path(workitem.ScriptFile))
}

func (p *Producer) narrate(ctx context.Context, j *job) error {
	if p.deps.Voice == nil || p.deps.Media == nil {
		return services.Wrap(services.ErrConfiguration, "narrate", "collaborators", "voice or media toolkit not configured", nil)
	}
	text, err := j.narrationText()
	if err != nil {
		return err
	}
	sentences := Sentences(text)
	if min := p.cfg.Production.MinSentences; len(sentences) < min {
		return services.Wrap(services.ErrContentIncomplete, "narrate", "split sentences",
			fmt.Sprintf("%d sentence(s), need %d", len(sentences), min), nil)
	}
	voice := j.run.ch.Voice()
	parts := make([]string, 0, len(sentences))
	for i, sentence := range sentences {
		if err := writeText(j.path(workitem.TextsDir, fmt.Sprintf("part%d.txt", i+1)), sentence); err != nil {
			return err
		}
		audio, err := p.deps.Voice.Synthesize(ctx, sentence, voice)
		if err != nil {
			return err
		}
		target := j.path(workitem.AudiosDir, fmt.Sprintf("part%d.mp3", i+1))
		if err := writeBytes(target, audio); err != nil {
			return err
		}
		parts = append(parts, target)
	}
	return p.deps.Media.JoinNarration(ctx, parts, j.path(stage.NarrationFile))
}

func (p *Producer) mix(ctx context.Context, j *job) error {
	if p.deps.Media == nil {
		return services.Wrap(services.ErrConfiguration, "mix", "collaborators", "media toolkit not configured", nil)
	}
	mix := j.run.ch.Mix()
	voice := j.path(workitem.VoiceFile)
	if err := p.deps.Media.TreatVoice(ctx, j.path(stage.NarrationFile), voice, mix); err != nil {
		return err
	}
	song := ""
	if mix.Song != "" {
		song = filepath.Join(p.cfg.Paths.MusicDir, mix.Song)
		if _, err := os.Stat(song); err != nil {
			logging.WarnWithContext(j.logger, "background song missing", "song_missing",
				logging.String("song", song),
				logging.String(logging.FieldImpact, "video has narration only"),
			)
			song = ""
		}
	}
	return p.deps.Media.AddMusic(ctx, voice, song, j.path(workitem.MixFile), mix.SongVolumeDB)
}

func (p *Producer) transcribe(ctx context.Context, j *job) error {
	if p.deps.Transcriber == nil {
		return services.Wrap(services.ErrConfiguration, "transcribe", "collaborators", "transcriber not configured", nil)
	}
	words, err := p.deps.Transcriber.Transcribe(ctx, j.path(workitem.VoiceFile))
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return services.Wrap(services.ErrFatal, "transcribe", "result", "no words recognised", nil)
	}
	return transcript.Save(j.path(stage.TranscriptFile), words)
}

func (p *Producer) review(ctx context.Context, j *job) error {
	script, err := readText(j.path(workitem.ScriptFile))
	if err != nil {
		return err
	}
	words, err := transcript.Load(j.path(stage.TranscriptFile))
	if err != nil {
		return err
	}
	rev := transcript.Compare(script, words)
	prompt := strings.TrimSpace(j.run.ch.SubtitlePrompt())
	if !rev.Clean() && prompt != "" && p.deps.Writer != nil {
		replacements, err := p.corrections(ctx, prompt, script, words)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.WarnWithContext(j.logger, "subtitle correction failed", "subtitle_correction_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "subtitles keep the transcription wording"),
			)
		} else if n := transcript.Replace(words, replacements); n > 0 {
			if err := transcript.Save(j.path(stage.TranscriptFile), words); err != nil {
				return err
			}
			rev = transcript.Compare(script, words)
			j.logger.Info("subtitles corrected", logging.Int("words", n))
		}
	}
	return writeText(j.path(workitem.ReviewFile), rev.String())
}

// corrections asks the model which transcript words to replace so the
// subtitles match the script. The answer is {"replacements": {"<index>": "word"}}.
func (p *Producer) corrections(ctx context.Context, prompt, script string, words []transcript.Word) (map[int]string, error) {
	var b strings.Builder
	b.WriteString("SCRIPT:\n")
	b.WriteString(script)
	b.WriteString("\n\nTRANSCRIPT:\n")
	for i, w := range words {
		fmt.Fprintf(&b, "%d %s\n", i, w.Text)
	}
	raw, err := p.deps.Writer.Complete(ctx, prompt, b.String())
	if err != nil {
		return nil, err
	}
	var answer struct {
		Replacements map[string]string `json:"replacements"`
	}
	if err := llm.DecodeJSON(raw, &answer); err != nil {
		return nil, err
	}
	out := make(map[int]string, len(answer.Replacements))
	for key, text := range answer.Replacements {
		idx, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			continue
		}
		out[idx] = text
	}
	return out, nil
}

func (p *Producer) render(ctx context.Context, j *job) error {
	if p.deps.Media == nil {
		return services.Wrap(services.ErrConfiguration, "render", "collaborators", "media toolkit not configured", nil)
	}
	words, err := transcript.Load(j.path(stage.TranscriptFile))
	if err != nil {
		return err
	}
	srt := j.path(workitem.SubtitlesFile)
	if err := writeText(srt, transcript.SRT(transcript.Cues(words, p.cfg.Media.WordsPerCue))); err != nil {
		return err
	}
	frames, err := images.List(j.path(workitem.ImagesDir))
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return services.Wrap(services.ErrValidation, "render", "images", "item has no images", nil)
	}
	audio := j.path(workitem.MixFile)
	if _, err := os.Stat(audio); errors.Is(err, fs.ErrNotExist) {
		audio = j.path(workitem.VoiceFile)
	}
	return p.deps.Media.Render(ctx, frames, audio, srt, j.path(workitem.VideoFile))
}

func (p *Producer) thumbnail(ctx context.Context, j *job) error {
	if p.deps.Media == nil {
		return services.Wrap(services.ErrConfiguration, "thumbnail", "collaborators", "media toolkit not configured", nil)
	}
	frames, err := images.List(j.path(workitem.ImagesDir))
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return services.Wrap(services.ErrValidation, "thumbnail", "images", "item has no images", nil)
	}
	colors := j.run.ch.ThumbnailColors()
	return p.deps.Media.Thumbnail(ctx,
		frames[p.intN(len(frames))],
		j.path(workitem.ThumbnailTextFile),
		colors[p.intN(len(colors))],
		j.path(stage.ThumbnailFile),
	)
}

func (p *Producer) intN(n int) int {
	if n <= 1 {
		return 0
	}
	if p.deps.Rand != nil {
		return p.deps.Rand.IntN(n)
	}
	return rand.IntN(n)
}

func writeText(path, body string) error {
	return writeBytes(path, []byte(body))
}

func writeBytes(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrStorage, "production", "mkdir", filepath.Dir(path), err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrStorage, "production", "write", filepath.Base(path), err)
	}
	return nil
}
