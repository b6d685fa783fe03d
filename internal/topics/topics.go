// Package topics manages a channel's topic queue: a pending file consumed top
// down and a done file that receives each finished topic at its head.
package topics

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"influencer/internal/fileutil"
	"influencer/internal/services"
)

// File names under a channel's management folder.
const (
	ManagementDir = "a_Management"
	PendingFile   = "themes_production.txt"
	DoneFile      = "themes_old.txt"
	// IntentFile records a pop in progress: the topic line and the
	// done and pending line counts taken before either file changed.
	IntentFile = ".themes_pop"
)

// Topic is one queue line, "<title> / <code>".
type Topic struct {
	Title string
	Code  string
	Raw   string
}

// Parse splits a queue line on its last slash.
func Parse(line string) (Topic, error) {
	raw := strings.TrimSpace(line)
	idx := strings.LastIndex(raw, "/")
	if idx < 0 {
		return Topic{Raw: raw}, fmt.Errorf("topic %q has no code", raw)
	}
	t := Topic{
		Title: strings.TrimSpace(raw[:idx]),
		Code:  strings.TrimSpace(raw[idx+1:]),
		Raw:   raw,
	}
	if t.Title == "" || t.Code == "" {
		return t, fmt.Errorf("topic %q is missing a title or code", raw)
	}
	return t, nil
}

func (t Topic) String() string { return t.Raw }

// Queue is the pending/done pair for one channel.
type Queue struct {
	pending string
	done    string
	intent  string
}

// New returns the queue stored under channelDir/a_Management.
func New(channelDir string) *Queue {
	dir := filepath.Join(channelDir, ManagementDir)
	return &Queue{
		pending: filepath.Join(dir, PendingFile),
		done:    filepath.Join(dir, DoneFile),
		intent:  filepath.Join(dir, IntentFile),
	}
}

// Paths returns the pending and done file locations.
func (q *Queue) Paths() (pending, done string) { return q.pending, q.done }

// Pending returns the raw pending lines. Blank lines are dropped.
func (q *Queue) Pending() ([]string, error) {
	return readLines(q.pending)
}

// Done returns the raw done lines, newest first.
func (q *Queue) Done() ([]string, error) {
	return readLines(q.done)
}

// Topics parses every pending line. Unparseable lines are reported in the
// returned error but do not stop the parse.
func (q *Queue) Topics() ([]Topic, error) {
	lines, err := q.Pending()
	if err != nil {
		return nil, err
	}
	topics := make([]Topic, 0, len(lines))
	var errs []error
	for _, line := range lines {
		t, err := Parse(line)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		topics = append(topics, t)
	}
	return topics, errors.Join(errs...)
}

// Pop moves t from pending to the head of done. An intent file is written
// before either list changes and removed after both are rewritten, so a pop
// interrupted halfway is completed by the next Recover.
func (q *Queue) Pop(t Topic) error {
	if err := q.Recover(); err != nil {
		return err
	}
	pending, err := readLines(q.pending)
	if err != nil {
		return err
	}
	if indexOf(pending, t.Raw) < 0 {
		return services.Wrap(services.ErrNotFound, "topics", "pop", t.Raw, nil)
	}
	done, err := readLines(q.done)
	if err != nil {
		return err
	}
	in := intent{raw: t.Raw, done: len(done), pending: len(pending)}
	if err := fileutil.WriteFileAtomic(q.intent, in.encode(), 0o644); err != nil {
		return services.Wrap(services.ErrStorage, "topics", "write intent", q.intent, err)
	}
	return q.apply(in, pending, done)
}

// Recover completes a pop left unfinished by an earlier process. It is a
// no-op when no intent file exists.
func (q *Queue) Recover() error {
	data, err := os.ReadFile(q.intent)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return services.Wrap(services.ErrStorage, "topics", "read intent", q.intent, err)
	}
	in, err := decodeIntent(data)
	if err != nil {
		return services.Wrap(services.ErrStorage, "topics", "parse intent", q.intent, err)
	}
	pending, err := readLines(q.pending)
	if err != nil {
		return err
	}
	done, err := readLines(q.done)
	if err != nil {
		return err
	}
	return q.apply(in, pending, done)
}

// apply brings both lists to their post-pop shape. A list whose length
// already moved past the recorded count was rewritten before.
func (q *Queue) apply(in intent, pending, done []string) error {
	if len(done) == in.done {
		if err := writeLines(q.done, append([]string{in.raw}, done...)); err != nil {
			return err
		}
	}
	if len(pending) == in.pending {
		if idx := indexOf(pending, in.raw); idx >= 0 {
			remaining := append(append([]string{}, pending[:idx]...), pending[idx+1:]...)
			if err := writeLines(q.pending, remaining); err != nil {
				return err
			}
		}
	}
	if err := os.Remove(q.intent); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return services.Wrap(services.ErrStorage, "topics", "clear intent", q.intent, err)
	}
	return nil
}

type intent struct {
	raw     string
	done    int
	pending int
}

func (in intent) encode() []byte {
	return fmt.Appendf(nil, "%s\n%d\n%d\n", in.raw, in.done, in.pending)
}

func decodeIntent(data []byte) (intent, error) {
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		return intent{}, fmt.Errorf("want 3 lines, got %d", len(lines))
	}
	in := intent{raw: strings.TrimSpace(lines[0])}
	if _, err := fmt.Sscan(lines[1], &in.done); err != nil {
		return intent{}, err
	}
	if _, err := fmt.Sscan(lines[2], &in.pending); err != nil {
		return intent{}, err
	}
	return in, nil
}

func indexOf(lines []string, raw string) int {
	for i, line := range lines {
		if strings.TrimSpace(line) == raw {
			return i
		}
	}
	return -1
}

// ValidateCodes checks every pending topic's code against the folders under
// imageRoot. Any bad topic yields services.ErrInvalidTopicCode listing them.
func (q *Queue) ValidateCodes(imageRoot string) ([]Topic, error) {
	entries, err := os.ReadDir(imageRoot)
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidTopicCode, "topics", "read image categories", imageRoot, err)
	}
	valid := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			valid[entry.Name()] = struct{}{}
		}
	}
	lines, err := q.Pending()
	if err != nil {
		return nil, err
	}
	var (
		topics []Topic
		bad    []string
	)
	for _, line := range lines {
		t, err := Parse(line)
		if err != nil {
			bad = append(bad, line)
			continue
		}
		if _, ok := valid[t.Code]; !ok {
			bad = append(bad, line)
			continue
		}
		topics = append(topics, t)
	}
	if len(bad) > 0 {
		return topics, services.Wrap(services.ErrInvalidTopicCode, "topics", "validate",
			fmt.Sprintf("%d of %d topics: %s", len(bad), len(lines), strings.Join(bad, "; ")), nil)
	}
	return topics, nil
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrStorage, "topics", "read", path, err)
	}
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, services.Wrap(services.ErrStorage, "topics", "scan", path, err)
	}
	return lines, nil
}

func writeLines(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrStorage, "topics", "mkdir", path, err)
	}
	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return services.Wrap(services.ErrStorage, "topics", "write", path, err)
	}
	return nil
}
