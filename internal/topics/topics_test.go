package topics_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"influencer/internal/services"
	"influencer/internal/testsupport"
	"influencer/internal/topics"
)

func newQueue(t *testing.T, pending, done string) (*topics.Queue, string) {
	t.Helper()
	channel := t.TempDir()
	q := topics.New(channel)
	p, d := q.Paths()
	testsupport.WriteText(t, p, pending)
	if done != "" {
		testsupport.WriteText(t, d, done)
	}
	return q, channel
}

func TestParse(t *testing.T) {
	got, err := topics.Parse("  Why cats purr / cats ")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := topics.Topic{Title: "Why cats purr", Code: "cats", Raw: "Why cats purr / cats"}
	if got != want {
		t.Fatalf("Parse = %+v, want %+v", got, want)
	}
	if _, err := topics.Parse("no code here"); err == nil {
		t.Fatal("expected error for missing code")
	}
	if _, err := topics.Parse("title / "); err == nil {
		t.Fatal("expected error for empty code")
	}
	got, err = topics.Parse("24/7 living / city")
	if err != nil || got.Title != "24/7 living" || got.Code != "city" {
		t.Fatalf("Parse with slash in title = %+v, %v", got, err)
	}
}

func TestPopMovesExactlyOne(t *testing.T) {
	q, _ := newQueue(t, "A / x\nB / y\n\nC / z\n", "old / x\n")
	list, err := q.Topics()
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Pop(list[1]); err != nil {
		t.Fatalf("Pop: %v", err)
	}
	pending, _ := q.Pending()
	done, _ := q.Done()
	if !reflect.DeepEqual(pending, []string{"A / x", "C / z"}) {
		t.Fatalf("pending = %q", pending)
	}
	if !reflect.DeepEqual(done, []string{"B / y", "old / x"}) {
		t.Fatalf("done = %q", done)
	}
}

func TestPopPreservesCombinedEntries(t *testing.T) {
	q, _ := newQueue(t, "A / x\nB / y\nC / z\nD / w\n", "")
	before := combined(t, q)
	for {
		list, err := q.Topics()
		if err != nil {
			t.Fatal(err)
		}
		if len(list) == 0 {
			break
		}
		if err := q.Pop(list[0]); err != nil {
			t.Fatalf("Pop: %v", err)
		}
		if got := combined(t, q); !reflect.DeepEqual(got, before) {
			t.Fatalf("combined entries changed: %q vs %q", got, before)
		}
	}
	done, _ := q.Done()
	if !reflect.DeepEqual(done, []string{"D / w", "C / z", "B / y", "A / x"}) {
		t.Fatalf("done = %q", done)
	}
}

func TestPopKeepsDuplicateLines(t *testing.T) {
	q, _ := newQueue(t, "Why cats purr / cats\nWhy cats purr / cats\n", "Why cats purr / cats\n")
	before := combined(t, q)
	topic, err := topics.Parse("Why cats purr / cats")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := q.Pop(topic); err != nil {
			t.Fatalf("Pop %d: %v", i, err)
		}
	}
	if got := combined(t, q); !reflect.DeepEqual(got, before) {
		t.Fatalf("combined entries = %q, want %q", got, before)
	}
	pending, _ := q.Pending()
	if len(pending) != 0 {
		t.Fatalf("pending = %q, want empty", pending)
	}
	done, _ := q.Done()
	if len(done) != 3 {
		t.Fatalf("done = %q, want 3 entries", done)
	}
}

func TestRecoverCompletesInterruptedPop(t *testing.T) {
	tests := []struct {
		name    string
		done    string
		pending string
	}{
		// Intent written, neither list rewritten.
		{name: "before done", done: "old / x\n", pending: "A / x\nB / y\n"},
		// done rewritten, pending still holds the line.
		{name: "after done", done: "A / x\nold / x\n", pending: "A / x\nB / y\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, channel := newQueue(t, tc.pending, tc.done)
			testsupport.WriteText(t, filepath.Join(channel, topics.ManagementDir, topics.IntentFile), "A / x\n1\n2\n")
			if err := q.Recover(); err != nil {
				t.Fatalf("Recover: %v", err)
			}
			pending, _ := q.Pending()
			if !reflect.DeepEqual(pending, []string{"B / y"}) {
				t.Fatalf("pending = %q", pending)
			}
			done, _ := q.Done()
			if !reflect.DeepEqual(done, []string{"A / x", "old / x"}) {
				t.Fatalf("done = %q", done)
			}
			if _, err := os.Stat(filepath.Join(channel, topics.ManagementDir, topics.IntentFile)); !os.IsNotExist(err) {
				t.Fatalf("intent file still present: %v", err)
			}
		})
	}
}

func TestPopFinishesEarlierPopFirst(t *testing.T) {
	q, channel := newQueue(t, "A / x\nB / y\n", "A / x\n")
	testsupport.WriteText(t, filepath.Join(channel, topics.ManagementDir, topics.IntentFile), "A / x\n0\n2\n")
	if err := q.Pop(topics.Topic{Title: "B", Code: "y", Raw: "B / y"}); err != nil {
		t.Fatal(err)
	}
	pending, _ := q.Pending()
	if len(pending) != 0 {
		t.Fatalf("pending = %q, want empty", pending)
	}
	done, _ := q.Done()
	if !reflect.DeepEqual(done, []string{"B / y", "A / x"}) {
		t.Fatalf("done = %q", done)
	}
}

func TestPopUnknownTopic(t *testing.T) {
	q, _ := newQueue(t, "A / x\n", "")
	err := q.Pop(topics.Topic{Raw: "Z / q"})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestValidateCodes(t *testing.T) {
	q, channel := newQueue(t, "A / cats\nB / dogs\nC / birds\n", "")
	images := filepath.Join(channel, "clean_data")
	testsupport.MkdirItems(t, images, "cats", "dogs")
	testsupport.WriteText(t, filepath.Join(images, "birds"), "a file, not a category")

	good, err := q.ValidateCodes(images)
	if !errors.Is(err, services.ErrInvalidTopicCode) {
		t.Fatalf("expected ErrInvalidTopicCode, got %v", err)
	}
	if len(good) != 2 {
		t.Fatalf("good = %+v", good)
	}

	if err := os.Remove(filepath.Join(images, "birds")); err != nil {
		t.Fatal(err)
	}
	testsupport.MkdirItems(t, images, "birds")
	if _, err := q.ValidateCodes(images); err != nil {
		t.Fatalf("ValidateCodes: %v", err)
	}
}

func TestValidateCodesMissingImageRoot(t *testing.T) {
	q, channel := newQueue(t, "A / cats\n", "")
	_, err := q.ValidateCodes(filepath.Join(channel, "clean_data"))
	if !errors.Is(err, services.ErrInvalidTopicCode) {
		t.Fatalf("expected ErrInvalidTopicCode, got %v", err)
	}
}

func TestMissingFilesAreEmpty(t *testing.T) {
	q := topics.New(t.TempDir())
	pending, err := q.Pending()
	if err != nil || len(pending) != 0 {
		t.Fatalf("Pending = %q, %v", pending, err)
	}
}

func combined(t *testing.T, q *topics.Queue) []string {
	t.Helper()
	pending, err := q.Pending()
	if err != nil {
		t.Fatal(err)
	}
	done, err := q.Done()
	if err != nil {
		t.Fatal(err)
	}
	all := append(append([]string{}, pending...), done...)
	sort.Strings(all)
	return all
}
