package channels_test

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"influencer/internal/channels"
	"influencer/internal/services"
	"influencer/internal/testsupport"
)

const brookeYAML = `
series: BRK
production: true
posting: true
translation: true
upload_weekdays: [0, 2, 4]
sound:
  voice:
    id: voice-123
    stability: 0.4
  mix:
    song: lofi.mp3
    song_volume_db: -18
youtube:
  category_id: "27"
  language: es
thumbnail:
  colors: ["#FFCC00", "#FFFFFF"]
prompts:
  script: Write a short script.
`

func TestLoadRegistry(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteText(t, filepath.Join(root, "brooke", channels.ProfileFile), brookeYAML)
	testsupport.WriteText(t, filepath.Join(root, "quiet", channels.ProfileFile), "series: QT\nphonetic_pass: false\n")
	testsupport.MkdirItems(t, root, "music")

	reg, err := channels.Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := len(reg.All()); got != 2 {
		t.Fatalf("registered %d channels, want 2", got)
	}
	posting := reg.Posting()
	if len(posting) != 1 || posting[0].Name() != "brooke" {
		t.Fatalf("Posting = %v", posting)
	}

	ch, err := reg.Get("brooke")
	if err != nil {
		t.Fatal(err)
	}
	if ch.Series() != "BRK" || ch.CategoryID() != "27" || ch.Language() != "es" {
		t.Fatalf("unexpected profile fields: %s %s %s", ch.Series(), ch.CategoryID(), ch.Language())
	}
	if !reflect.DeepEqual(ch.UploadWeekdays(), []int{0, 2, 4}) {
		t.Fatalf("UploadWeekdays = %v", ch.UploadWeekdays())
	}
	if !ch.InferenceOptions().Translation || !ch.PhoneticPass() {
		t.Fatal("expected translation on and phonetic pass defaulted on")
	}
	if ch.Mix().SongVolumeDB != -18 || ch.Mix().VoiceSpeed != 1.125 {
		t.Fatalf("Mix = %+v", ch.Mix())
	}
	if ch.TokenFile() != "brooke.json" {
		t.Fatalf("TokenFile = %s", ch.TokenFile())
	}
	if channels.OutputsDir(ch) != filepath.Join(root, "brooke", "Outputs") {
		t.Fatalf("OutputsDir = %s", channels.OutputsDir(ch))
	}

	quiet, _ := reg.Get("quiet")
	if quiet.PhoneticPass() || quiet.CategoryID() != "22" || quiet.Language() != "en" {
		t.Fatal("quiet channel defaults not applied")
	}

	if _, err := reg.Get("nobody"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadRejectsBadProfiles(t *testing.T) {
	cases := map[string]string{
		"bad series":     "series: 9lives\n",
		"bad weekday":    "series: AB\nupload_weekdays: [7]\n",
		"posting no day": "series: AB\nposting: true\n",
		"bad yaml":       "series: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			root := t.TempDir()
			testsupport.WriteText(t, filepath.Join(root, "x", channels.ProfileFile), body)
			if _, err := channels.Load(root); !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestRegisterRejectsSharedSeries(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteText(t, filepath.Join(root, "a", channels.ProfileFile), "series: SAME\n")
	testsupport.WriteText(t, filepath.Join(root, "b", channels.ProfileFile), "series: SAME\n")
	if _, err := channels.Load(root); err == nil {
		t.Fatal("expected duplicate series error")
	}
}
