package media

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"influencer/internal/channels"
	"influencer/internal/config"
	"influencer/internal/deps"
	"influencer/internal/fileutil"
	"influencer/internal/logging"
	"influencer/internal/services"
)

// Runner executes a binary and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Narration pacing.
const (
	SentenceGapSeconds = 0.375
	TailSeconds        = 1.0
	LeadInMillis       = 250

	silence = "anullsrc=r=44100:cl=mono"
)

// Toolkit wraps the ffmpeg toolchain.
type Toolkit struct {
	FFmpeg   string
	FFprobe  string
	FontFile string
	Width    int
	Height   int
	Run      Runner
	Logger   *slog.Logger
}

// New builds a Toolkit from the media configuration. Binaries are resolved
// to absolute paths once so every invocation runs the same executable.
func New(cfg config.Media, logger *slog.Logger) *Toolkit {
	return &Toolkit{
		FFmpeg:   deps.Resolve(cfg.FFmpegBinary),
		FFprobe:  deps.Resolve(cfg.FFprobeBinary),
		FontFile: cfg.FontFile,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Run:      ExecRunner,
		Logger:   logging.NewComponentLogger(logger, "media"),
	}
}

// ExecRunner runs the binary with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	output, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s: %w: %s", filepath.Base(name), err, tail(string(output), 400))
	}
	return output, nil
}

func (t *Toolkit) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	run := t.Run
	if run == nil {
		run = ExecRunner
	}
	if t.Logger != nil {
		t.Logger.Debug("exec", logging.String("binary", name), logging.Int("args", len(args)))
	}
	return run(ctx, name, args...)
}

func (t *Toolkit) ffmpeg(ctx context.Context, op string, args ...string) error {
	full := append([]string{"-hide_banner", "-loglevel", "error", "-y"}, args...)
	if _, err := t.run(ctx, t.FFmpeg, full...); err != nil {
		return services.Wrap(services.ErrStorage, "media", op, "", err)
	}
	return nil
}

// JoinNarration concatenates sentence clips with a short gap between them
// and a silent tail.
func (t *Toolkit) JoinNarration(ctx context.Context, parts []string, out string) error {
	if len(parts) == 0 {
		return services.Wrap(services.ErrValidation, "media", "join narration", "no clips", nil)
	}
	var args []string
	for _, p := range parts {
		args = append(args, "-i", p)
	}
	gaps := len(parts) - 1
	next := len(parts)
	var graph strings.Builder
	if gaps > 0 {
		args = append(args, "-f", "lavfi", "-t", formatSeconds(SentenceGapSeconds), "-i", silence)
		fmt.Fprintf(&graph, "[%d:a]asplit=%d", next, gaps)
		for i := 0; i < gaps; i++ {
			fmt.Fprintf(&graph, "[g%d]", i)
		}
		graph.WriteString(";")
		next++
	}
	args = append(args, "-f", "lavfi", "-t", formatSeconds(TailSeconds), "-i", silence)

	segments := 0
	for i := range parts {
		fmt.Fprintf(&graph, "[%d:a]", i)
		segments++
		if i < gaps {
			fmt.Fprintf(&graph, "[g%d]", i)
			segments++
		}
	}
	fmt.Fprintf(&graph, "[%d:a]concat=n=%d:v=0:a=1[out]", next, segments+1)
	args = append(args, "-filter_complex", graph.String(), "-map", "[out]", out)
	return t.ffmpeg(ctx, "join narration", args...)
}

// TreatVoice adds a short lead-in, boosts and speeds up the narration. The
// result is the clean voice track subtitles are timed against.
func (t *Toolkit) TreatVoice(ctx context.Context, in, out string, mix channels.Mix) error {
	filters := []string{
		fmt.Sprintf("adelay=%d:all=1", LeadInMillis),
		fmt.Sprintf("volume=%sdB", formatSeconds(mix.VoiceBoostDB)),
	}
	filters = append(filters, atempo(mix.VoiceSpeed)...)
	return t.ffmpeg(ctx, "treat voice", "-i", in, "-af", strings.Join(filters, ","), out)
}

// AddMusic lays song under voice at volumeDB, trimmed to the voice length.
// An empty song copies the voice track.
func (t *Toolkit) AddMusic(ctx context.Context, voice, song, out string, volumeDB float64) error {
	if strings.TrimSpace(song) == "" {
		if err := fileutil.CopyFileVerified(voice, out); err != nil {
			return services.Wrap(services.ErrStorage, "media", "add music", "copy voice", err)
		}
		return nil
	}
	graph := fmt.Sprintf("[1:a]volume=%sdB[m];[0:a][m]amix=inputs=2:duration=first:dropout_transition=0:normalize=0[out]", formatSeconds(volumeDB))
	return t.ffmpeg(ctx, "add music", "-i", voice, "-i", song, "-filter_complex", graph, "-map", "[out]", out)
}

// Render builds a vertical slideshow of images over audio with burned-in
// subtitles. Each image is held for an equal share of the audio duration.
func (t *Toolkit) Render(ctx context.Context, images []string, audio, subtitles, out string) error {
	if len(images) == 0 {
		return services.Wrap(services.ErrValidation, "media", "render", "no images", nil)
	}
	info, err := t.Probe(ctx, audio)
	if err != nil {
		return err
	}
	duration := info.DurationSeconds()
	if duration <= 0 || math.IsNaN(duration) {
		return services.Wrap(services.ErrValidation, "media", "render", "audio has no duration", nil)
	}
	listPath := filepath.Join(filepath.Dir(out), "images.txt")
	if err := fileutil.WriteFileAtomic(listPath, []byte(ConcatList(images, duration)), 0o644); err != nil {
		return services.Wrap(services.ErrStorage, "media", "render", "write image list", err)
	}
	vf := t.frame() + ",setsar=1"
	if subtitles != "" {
		vf += ",subtitles=filename=" + escapeFilterValue(subtitles) + ":force_style='Alignment=10,Fontsize=16,Outline=2'"
	}
	return t.ffmpeg(ctx, "render",
		"-f", "concat", "-safe", "0", "-i", listPath,
		"-i", audio,
		"-vf", vf,
		"-r", "30", "-c:v", "libx264", "-pix_fmt", "yuv420p",
		"-c:a", "aac", "-b:a", "192k", "-shortest",
		out)
}

// Thumbnail crops image to the output frame and draws the text of textFile
// centred in color.
func (t *Toolkit) Thumbnail(ctx context.Context, image, textFile, color, out string) error {
	draw := []string{
		"textfile=" + escapeFilterValue(textFile),
		"fontcolor=" + ffmpegColor(color),
		"fontsize=h/14",
		"borderw=6",
		"bordercolor=black",
		"line_spacing=12",
		"x=(w-text_w)/2",
		"y=(h-text_h)/2",
	}
	if t.FontFile != "" {
		draw = append(draw, "fontfile="+escapeFilterValue(t.FontFile))
	}
	vf := t.frame() + ",drawtext=" + strings.Join(draw, ":")
	return t.ffmpeg(ctx, "thumbnail", "-i", image, "-vf", vf, "-frames:v", "1", "-q:v", "2", out)
}

func (t *Toolkit) frame() string {
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d", t.Width, t.Height, t.Width, t.Height)
}

// ConcatList renders an ffconcat image list holding each image for an equal
// share of total seconds. The last entry is repeated so its duration applies.
func ConcatList(images []string, total float64) string {
	each := total / float64(len(images))
	var b strings.Builder
	b.WriteString("ffconcat version 1.0\n")
	for _, img := range images {
		fmt.Fprintf(&b, "file '%s'\nduration %s\n", quoteConcat(img), formatSeconds(each))
	}
	fmt.Fprintf(&b, "file '%s'\n", quoteConcat(images[len(images)-1]))
	return b.String()
}

// atempo splits factor into a chain of atempo filters within [0.5, 2].
func atempo(factor float64) []string {
	if factor <= 0 || factor == 1 {
		return nil
	}
	var out []string
	for factor > 2 {
		out = append(out, "atempo=2")
		factor /= 2
	}
	for factor < 0.5 {
		out = append(out, "atempo=0.5")
		factor /= 0.5
	}
	return append(out, "atempo="+formatSeconds(factor))
}

func ffmpegColor(hex string) string {
	hex = strings.TrimSpace(hex)
	if strings.HasPrefix(hex, "#") {
		return "0x" + strings.ToUpper(hex[1:])
	}
	if hex == "" {
		return "white"
	}
	return hex
}

func escapeFilterValue(path string) string {
	r := strings.NewReplacer(`\`, `\\\\`, `'`, `\\\'`, `:`, `\\:`)
	return "'" + r.Replace(path) + "'"
}

func quoteConcat(path string) string {
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	return strings.ReplaceAll(path, "'", `'\''`)
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
