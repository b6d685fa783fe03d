package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"influencer/internal/quota"
	"influencer/internal/stage"
	"influencer/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "CAT")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, env.configPath)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Sample configuration written")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.configPath); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}

func TestListFiltersByStage(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seed(t, "CAT-1_State1_2026-03-01_NoTitle", 1)
	env.seed(t, "CAT-2_State5_2026-03-01_Why Cats Purr", 5)

	out, _, err := runCLI(t, []string{"list", "--stage", "5", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var views []itemView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode list output %q: %v", out, err)
	}
	if len(views) != 1 || views[0].Key != "CAT-2" || views[0].Title != "Why Cats Purr" {
		t.Fatalf("views = %+v", views)
	}

	out, _, err = runCLI(t, []string{"list"}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "CAT-1")
	requireContains(t, out, "State5")
}

func TestApproveDenyAndHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seed(t, "CAT-1_State5_2026-03-01_First", 5)
	env.seed(t, "CAT-2_State5_2026-03-01_Second", 5)

	out, _, err := runCLI(t, []string{"approve", "cats", "--item", "CAT-1"}, env.configPath)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	requireContains(t, out, "Approved CAT-1 (State6)")

	out, _, err = runCLI(t, []string{"deny", "cats", "--item", "2", "--reason", "audio clipped"}, env.configPath)
	if err != nil {
		t.Fatalf("deny: %v", err)
	}
	requireContains(t, out, "Denied CAT-2 (StateX)")
	denied := filepath.Join(env.outputs, "CAT-2_StateX_2026-03-01_Second", stage.DenialFile)
	if got := testsupport.ReadText(t, denied); got != "audio clipped" {
		t.Fatalf("denied.txt = %q", got)
	}

	want := []string{"CAT-1_State6_2026-03-01_First", "CAT-2_StateX_2026-03-01_Second"}
	if got := testsupport.DirNames(t, env.outputs); !reflect.DeepEqual(got, want) {
		t.Fatalf("dirs = %v, want %v", got, want)
	}

	if _, _, err := runCLI(t, []string{"approve", "cats", "--item", "CAT-2"}, env.configPath); err == nil {
		t.Fatal("expected approving a denied item without --force to fail")
	}
	out, _, err = runCLI(t, []string{"approve", "cats", "--all", "--force"}, env.configPath)
	if err != nil {
		t.Fatalf("approve --all --force: %v", err)
	}
	requireContains(t, out, "Approved CAT-2 (State6)")

	out, _, err = runCLI(t, []string{"history", "--kind", "transition", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var events []eventView
	if err := json.Unmarshal([]byte(out), &events); err != nil {
		t.Fatalf("decode history %q: %v", out, err)
	}
	if len(events) != 3 {
		t.Fatalf("transition events = %+v, want 3", events)
	}
	if events[0].Item != "CAT-2" || events[0].To != "State6" {
		t.Fatalf("newest event = %+v", events[0])
	}

	out, _, err = runCLI(t, []string{"history", "--summary", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history --summary: %v", err)
	}
	var counts map[string]int
	if err := json.Unmarshal([]byte(out), &counts); err != nil {
		t.Fatalf("decode summary %q: %v", out, err)
	}
	if counts["transition"] != 3 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestSweepAndArchive(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.MkdirItems(t, env.outputs,
		"CAT-1_State0_2026-03-01_NoTitle",
		"CAT-2_State1_2026-03-01_NoTitle",
		"CAT-3_State7_2026-03-01_Posted",
	)

	if _, _, err := runCLI(t, []string{"sweep"}, env.configPath); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	want := []string{"CAT-2_State1_2026-03-01_NoTitle", "CAT-3_State7_2026-03-01_Posted"}
	if got := testsupport.DirNames(t, env.outputs); !reflect.DeepEqual(got, want) {
		t.Fatalf("after sweep dirs = %v, want %v", got, want)
	}

	out, _, err := runCLI(t, []string{"archive", "--channel", "cats"}, env.configPath)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	requireContains(t, out, "cats: archived 1 item(s)")
	archived := filepath.Join(env.outputs, env.cfg.Posting.ArchiveFolder, "CAT-3_State7_2026-03-01_Posted")
	if _, err := os.Stat(archived); err != nil {
		t.Fatalf("expected archived item: %v", err)
	}
}

func TestScheduleCreatesCalendar(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"schedule", "cats"}, env.configPath)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	requireContains(t, out, "Slot (UTC)")
	requireContains(t, out, "Days of content scheduled: 0")
	if _, err := os.Stat(filepath.Join(env.channel.Dir(), "a_Management", "calendar_YT.csv")); err != nil {
		t.Fatalf("calendar not written: %v", err)
	}
}

func TestCommandsRequireAChannel(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"approve", "--item", "1"}, env.configPath); err == nil {
		t.Fatal("expected approve without a channel to fail")
	}
	if _, _, err := runCLI(t, []string{"list", "--channel", "dogs"}, env.configPath); err == nil {
		t.Fatal("expected unknown channel to fail")
	}
}

func TestParseItemKey(t *testing.T) {
	tests := []struct {
		key    string
		series string
		seq    int
		ok     bool
	}{
		{"CAT-12", "CAT", 12, true},
		{"7", "CAT", 7, true},
		{"DOG-3", "DOG", 3, true},
		{"CAT-x", "", 0, false},
		{"0", "", 0, false},
		{"-4", "", 0, false},
	}
	for _, tt := range tests {
		series, seq, err := parseItemKey(tt.key, "CAT")
		if (err == nil) != tt.ok {
			t.Fatalf("parseItemKey(%q) err = %v, want ok=%v", tt.key, err, tt.ok)
		}
		if tt.ok && (series != tt.series || seq != tt.seq) {
			t.Fatalf("parseItemKey(%q) = %s,%d", tt.key, series, seq)
		}
	}
}

func TestHousekeepingPrunesOldQuotaMarkers(t *testing.T) {
	env := setupCLITestEnv(t)
	gateDir := filepath.Join(env.channel.Dir(), quota.LogDir)
	old := time.Now().AddDate(0, 0, -60).Format("2006-01-02") + ".txt"
	today := time.Now().Format("2006-01-02") + ".txt"
	testsupport.Markers(t, gateDir, old, today)

	out, _, err := runCLI(t, []string{"housekeeping"}, env.configPath)
	if err != nil {
		t.Fatalf("housekeeping: %v", err)
	}
	requireContains(t, out, "1 quota marker(s)")
	if _, err := os.Stat(filepath.Join(gateDir, old)); !os.IsNotExist(err) {
		t.Fatalf("old marker still present: %v", err)
	}
	if _, err := os.Stat(filepath.Join(gateDir, today)); err != nil {
		t.Fatalf("today's marker removed: %v", err)
	}
}
