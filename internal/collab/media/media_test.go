package media_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"influencer/internal/channels"
	"influencer/internal/collab/media"
	"influencer/internal/config"
	"influencer/internal/logging"
	"influencer/internal/services"
)

type call struct {
	name string
	args []string
}

type recorder struct {
	calls  []call
	output map[string][]byte
	err    error
}

func (r *recorder) run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, call{name: name, args: append([]string(nil), args...)})
	if r.err != nil {
		return nil, r.err
	}
	return r.output[name], nil
}

func newToolkit(r *recorder) *media.Toolkit {
	cfg := config.Default().Media
	tk := media.New(cfg, logging.NewNop())
	tk.FFmpeg, tk.FFprobe = "ffmpeg", "ffprobe"
	tk.Run = r.run
	return tk
}

func argValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func TestJoinNarrationBuildsGapGraph(t *testing.T) {
	r := &recorder{}
	tk := newToolkit(r)
	parts := []string{"p1.mp3", "p2.mp3", "p3.mp3"}
	if err := tk.JoinNarration(context.Background(), parts, "labs.mp3"); err != nil {
		t.Fatal(err)
	}
	if len(r.calls) != 1 || r.calls[0].name != "ffmpeg" {
		t.Fatalf("unexpected calls: %+v", r.calls)
	}
	graph := argValue(r.calls[0].args, "-filter_complex")
	want := "[3:a]asplit=2[g0][g1];[0:a][g0][1:a][g1][2:a][4:a]concat=n=6:v=0:a=1[out]"
	if graph != want {
		t.Fatalf("graph = %q\nwant    %q", graph, want)
	}
	if last := r.calls[0].args[len(r.calls[0].args)-1]; last != "labs.mp3" {
		t.Fatalf("output = %q", last)
	}
}

func TestJoinNarrationSingleClip(t *testing.T) {
	r := &recorder{}
	if err := newToolkit(r).JoinNarration(context.Background(), []string{"only.mp3"}, "labs.mp3"); err != nil {
		t.Fatal(err)
	}
	if graph := argValue(r.calls[0].args, "-filter_complex"); graph != "[0:a][1:a]concat=n=2:v=0:a=1[out]" {
		t.Fatalf("graph = %q", graph)
	}
}

func TestJoinNarrationRejectsEmpty(t *testing.T) {
	err := newToolkit(&recorder{}).JoinNarration(context.Background(), nil, "x.mp3")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTreatVoiceFilterChain(t *testing.T) {
	r := &recorder{}
	mix := channels.Mix{VoiceBoostDB: 6, VoiceSpeed: 2.5}
	if err := newToolkit(r).TreatVoice(context.Background(), "labs.mp3", "audio_subtitles.mp3", mix); err != nil {
		t.Fatal(err)
	}
	af := argValue(r.calls[0].args, "-af")
	want := "adelay=250:all=1,volume=6dB,atempo=2,atempo=1.25"
	if af != want {
		t.Fatalf("af = %q, want %q", af, want)
	}
}

func TestAddMusicWithoutSongCopiesVoice(t *testing.T) {
	dir := t.TempDir()
	voice := filepath.Join(dir, "voice.mp3")
	if err := os.WriteFile(voice, []byte("voice"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := &recorder{}
	out := filepath.Join(dir, "audio_music.mp3")
	if err := newToolkit(r).AddMusic(context.Background(), voice, "", out, -20); err != nil {
		t.Fatal(err)
	}
	if len(r.calls) != 0 {
		t.Fatalf("expected no ffmpeg call, got %+v", r.calls)
	}
	if data, _ := os.ReadFile(out); string(data) != "voice" {
		t.Fatalf("copied content = %q", data)
	}
}

func TestAddMusicMixesSong(t *testing.T) {
	r := &recorder{}
	if err := newToolkit(r).AddMusic(context.Background(), "v.mp3", "song.mp3", "out.mp3", -18.5); err != nil {
		t.Fatal(err)
	}
	graph := argValue(r.calls[0].args, "-filter_complex")
	if !strings.HasPrefix(graph, "[1:a]volume=-18.5dB[m]") || !strings.Contains(graph, "duration=first") {
		t.Fatalf("graph = %q", graph)
	}
}

func TestRenderProbesAudioAndWritesList(t *testing.T) {
	dir := t.TempDir()
	r := &recorder{output: map[string][]byte{
		"ffprobe": []byte(`{"streams":[{"codec_type":"audio"}],"format":{"duration":"12.0"}}`),
	}}
	tk := newToolkit(r)
	images := []string{filepath.Join(dir, "a.jpg"), filepath.Join(dir, "b.jpg")}
	out := filepath.Join(dir, "video.mp4")
	if err := tk.Render(context.Background(), images, "audio.mp3", "subs.srt", out); err != nil {
		t.Fatal(err)
	}
	if len(r.calls) != 2 || r.calls[0].name != "ffprobe" || r.calls[1].name != "ffmpeg" {
		t.Fatalf("unexpected calls: %+v", r.calls)
	}
	list, err := os.ReadFile(filepath.Join(dir, "images.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(string(list), "duration 6\n") != 2 {
		t.Fatalf("image list:\n%s", list)
	}
	if vf := argValue(r.calls[1].args, "-vf"); !strings.Contains(vf, "subtitles=filename='subs.srt'") {
		t.Fatalf("vf = %q", vf)
	}
}

func TestRenderRejectsSilentAudio(t *testing.T) {
	r := &recorder{output: map[string][]byte{"ffprobe": []byte(`{"format":{"duration":""}}`)}}
	err := newToolkit(r).Render(context.Background(), []string{"a.jpg"}, "a.mp3", "", filepath.Join(t.TempDir(), "v.mp4"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestThumbnailDrawText(t *testing.T) {
	r := &recorder{}
	tk := newToolkit(r)
	tk.FontFile = "/fonts/Bold.ttf"
	if err := tk.Thumbnail(context.Background(), "img.jpg", "thumbnail.txt", "#ffcc00", "thumb.jpg"); err != nil {
		t.Fatal(err)
	}
	vf := argValue(r.calls[0].args, "-vf")
	for _, want := range []string{"crop=1080:1920", "fontcolor=0xFFCC00", "textfile='thumbnail.txt'", "fontfile='/fonts/Bold.ttf'"} {
		if !strings.Contains(vf, want) {
			t.Fatalf("vf %q missing %q", vf, want)
		}
	}
}

func TestProbeFailureIsStorageError(t *testing.T) {
	r := &recorder{err: errors.New("exit status 1")}
	if _, err := newToolkit(r).Probe(context.Background(), "x.mp3"); !errors.Is(err, services.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestInfoHelpers(t *testing.T) {
	info := media.Info{
		Streams: []media.Stream{{CodecType: "video"}, {CodecType: "audio"}, {CodecType: "AUDIO"}},
		Format:  media.Format{Duration: "123.45"},
	}
	if info.AudioStreamCount() != 2 {
		t.Fatalf("AudioStreamCount = %d", info.AudioStreamCount())
	}
	if info.DurationSeconds() != 123.45 {
		t.Fatalf("DurationSeconds = %v", info.DurationSeconds())
	}
	info.Format.Duration = "bad"
	if !math.IsNaN(info.DurationSeconds()) {
		t.Fatal("expected NaN for unparseable duration")
	}
}

func TestConcatListRepeatsLastImage(t *testing.T) {
	list := media.ConcatList([]string{"/x/a.jpg", "/x/b.jpg"}, 3)
	want := "ffconcat version 1.0\nfile '/x/a.jpg'\nduration 1.5\nfile '/x/b.jpg'\nduration 1.5\nfile '/x/b.jpg'\n"
	if list != want {
		t.Fatalf("list:\n%s\nwant:\n%s", list, want)
	}
}
