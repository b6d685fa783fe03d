// Package schedule keeps a channel's publish calendar: a CSV keyed by slot
// timestamp with the title and per-platform confirmations of what went out.
//
// Rows are only ever added for future slots or filled in after an upload.
// Ensure drops rows whose slot has passed and tops the calendar up to the
// lookahead window.
package schedule

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"influencer/internal/fileutil"
	"influencer/internal/services"
)

// SlotLayout is the key format of the date column.
const SlotLayout = "2006-01-02T15:04:05.000Z"

// Confirmed is the value written to a platform column once posted.
const Confirmed = "OK"

var header = []string{"date", "title", "youtube", "tiktok"}

// Entry is one planned publish slot.
type Entry struct {
	Slot    time.Time
	Title   string
	YouTube bool
	TikTok  bool
}

// Filled reports whether a video has been assigned to the slot.
func (e Entry) Filled() bool { return e.Title != "" }

// Key is the slot formatted as stored.
func (e Entry) Key() string { return FormatSlot(e.Slot) }

// FormatSlot renders t as a calendar key.
func FormatSlot(t time.Time) string { return t.UTC().Format(SlotLayout) }

// ParseSlot reads a calendar key.
func ParseSlot(value string) (time.Time, error) {
	return time.ParseInLocation(SlotLayout, value, time.UTC)
}

// Policy describes which slots a channel publishes in.
type Policy struct {
	// Weekdays uses 0 for Monday through 6 for Sunday.
	Weekdays      []int
	LookaheadDays int
	SlotHourUTC   int
}

// Calendar is the CSV file for one platform of one channel.
type Calendar struct {
	path string
}

// New returns the calendar at channelDir/a_Management/calendar_<platform>.csv.
func New(channelDir, platform string) *Calendar {
	return &Calendar{path: filepath.Join(channelDir, "a_Management", "calendar_"+platform+".csv")}
}

// Path returns the CSV location.
func (c *Calendar) Path() string { return c.path }

// Load reads every row in slot order. A missing file is an empty calendar.
func (c *Calendar) Load() ([]Entry, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrStorage, "schedule", "read", c.path, err)
	}
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	var entries []Entry
	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, services.Wrap(services.ErrStorage, "schedule", "parse", c.path, err)
		}
		if first {
			first = false
			if len(record) > 0 && record[0] == header[0] {
				continue
			}
		}
		if len(record) == 0 || record[0] == "" {
			continue
		}
		slot, err := ParseSlot(record[0])
		if err != nil {
			return nil, services.Wrap(services.ErrStorage, "schedule", "parse slot", record[0], err)
		}
		entry := Entry{Slot: slot}
		if len(record) > 1 {
			entry.Title = record[1]
		}
		if len(record) > 2 {
			entry.YouTube = record[2] != ""
		}
		if len(record) > 3 {
			entry.TikTok = record[3] != ""
		}
		entries = append(entries, entry)
	}
	sortEntries(entries)
	return entries, nil
}

func (c *Calendar) save(entries []Entry) error {
	sortEntries(entries)
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, e := range entries {
		if err := w.Write([]string{e.Key(), e.Title, flag(e.YouTube), flag(e.TikTok)}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return services.Wrap(services.ErrStorage, "schedule", "encode", c.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return services.Wrap(services.ErrStorage, "schedule", "mkdir", c.path, err)
	}
	if err := fileutil.WriteFileAtomic(c.path, buf.Bytes(), 0o644); err != nil {
		return services.Wrap(services.ErrStorage, "schedule", "write", c.path, err)
	}
	return nil
}

// Ensure prunes rows before now, keeps every remaining row as is, and adds an
// empty row for each policy slot in the lookahead window that is after now.
func (c *Calendar) Ensure(now time.Time, policy Policy) ([]Entry, error) {
	existing, err := c.Load()
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]Entry, len(existing))
	for _, e := range existing {
		if e.Slot.Before(now) {
			continue
		}
		byKey[e.Key()] = e
	}
	for _, slot := range Slots(now, policy) {
		key := FormatSlot(slot)
		if _, ok := byKey[key]; !ok {
			byKey[key] = Entry{Slot: slot}
		}
	}
	entries := make([]Entry, 0, len(byKey))
	for _, e := range byKey {
		entries = append(entries, e)
	}
	if err := c.save(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Slots lists the policy's publish times strictly after now within the
// lookahead window, starting today.
func Slots(now time.Time, policy Policy) []time.Time {
	allowed := make(map[int]bool, len(policy.Weekdays))
	for _, d := range policy.Weekdays {
		allowed[d] = true
	}
	now = now.UTC()
	var slots []time.Time
	for i := 0; i < policy.LookaheadDays; i++ {
		day := now.AddDate(0, 0, i)
		if !allowed[MondayIndex(day.Weekday())] {
			continue
		}
		slot := time.Date(day.Year(), day.Month(), day.Day(), policy.SlotHourUTC, 0, 0, 0, time.UTC)
		if slot.After(now) {
			slots = append(slots, slot)
		}
	}
	return slots
}

// MondayIndex maps a time.Weekday to 0 for Monday through 6 for Sunday.
func MondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// NextFree returns the earliest slot with no title.
func (c *Calendar) NextFree() (Entry, error) {
	entries, err := c.Load()
	if err != nil {
		return Entry{}, err
	}
	for _, e := range entries {
		if !e.Filled() {
			return e, nil
		}
	}
	return Entry{}, services.Wrap(services.ErrNotFound, "schedule", "next free", "no open slot in "+c.path, nil)
}

// Fill records what was published in slot. Empty title and false flags leave
// the existing values untouched.
func (c *Calendar) Fill(slot time.Time, title string, youtube, tiktok bool) error {
	entries, err := c.Load()
	if err != nil {
		return err
	}
	key := FormatSlot(slot)
	found := false
	for i := range entries {
		if entries[i].Key() != key {
			continue
		}
		found = true
		if title != "" {
			entries[i].Title = title
		}
		entries[i].YouTube = entries[i].YouTube || youtube
		entries[i].TikTok = entries[i].TikTok || tiktok
	}
	if !found {
		return services.Wrap(services.ErrNotFound, "schedule", "fill", key, nil)
	}
	return c.save(entries)
}

// DaysOfContent is the whole number of days between now and the last filled
// slot, or 0 when nothing is filled.
func (c *Calendar) DaysOfContent(now time.Time) (int, error) {
	entries, err := c.Load()
	if err != nil {
		return 0, err
	}
	var last time.Time
	for _, e := range entries {
		if e.Filled() && e.Slot.After(last) {
			last = e.Slot
		}
	}
	if last.IsZero() {
		return 0, nil
	}
	return int(last.Sub(now) / (24 * time.Hour)), nil
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Slot.Before(entries[j].Slot) })
}

func flag(v bool) string {
	if v {
		return Confirmed
	}
	return ""
}

func (e Entry) String() string {
	return fmt.Sprintf("%s %q yt=%t tt=%t", e.Key(), e.Title, e.YouTube, e.TikTok)
}
