// Package quota implements a channel's daily upload gate. The gate is closed
// for a calendar day, in the upload platform's timezone, by the presence of a
// marker file named for that day; it reopens on its own when the date rolls
// over.
package quota

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"influencer/internal/services"
)

// LogDir is the marker folder under a channel directory.
const LogDir = "z_logs_API_YT"

const dayLayout = "2006-01-02"

// Gate is the per-channel marker set.
type Gate struct {
	dir string
	loc *time.Location
}

// New returns the gate under channelDir evaluated in loc.
func New(channelDir string, loc *time.Location) *Gate {
	if loc == nil {
		loc = time.UTC
	}
	return &Gate{dir: filepath.Join(channelDir, LogDir), loc: loc}
}

// LoadLocation resolves the gate timezone name.
func LoadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "quota", "load timezone", name, err)
	}
	return loc, nil
}

// Day returns the gate's calendar day for now.
func (g *Gate) Day(now time.Time) string {
	return now.In(g.loc).Format(dayLayout)
}

// MarkerPath is the file that closes the gate on now's day.
func (g *Gate) MarkerPath(now time.Time) string {
	return filepath.Join(g.dir, g.Day(now)+".txt")
}

// Closed reports whether today's marker exists.
func (g *Gate) Closed(now time.Time) (bool, error) {
	_, err := os.Stat(g.MarkerPath(now))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, services.Wrap(services.ErrStorage, "quota", "stat marker", g.MarkerPath(now), err)
	}
}

// Close writes today's marker with reason as its content.
func (g *Gate) Close(now time.Time, reason string) error {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return services.Wrap(services.ErrStorage, "quota", "mkdir", g.dir, err)
	}
	content := fmt.Sprintf("%s\n%s\n", now.In(g.loc).Format(time.RFC3339), strings.TrimSpace(reason))
	if err := os.WriteFile(g.MarkerPath(now), []byte(content), 0o644); err != nil {
		return services.Wrap(services.ErrStorage, "quota", "write marker", g.MarkerPath(now), err)
	}
	return nil
}

// Reopen removes today's marker if present.
func (g *Gate) Reopen(now time.Time) error {
	err := os.Remove(g.MarkerPath(now))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return services.Wrap(services.ErrStorage, "quota", "remove marker", g.MarkerPath(now), err)
	}
	return nil
}

// Prune deletes markers for days more than keep days before now.
func (g *Gate) Prune(now time.Time, keep int) (int, error) {
	entries, err := os.ReadDir(g.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, services.Wrap(services.ErrStorage, "quota", "read markers", g.dir, err)
	}
	local := now.In(g.loc)
	cutoff := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, g.loc).AddDate(0, 0, -keep)
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".txt") {
			continue
		}
		day, err := time.ParseInLocation(dayLayout, strings.TrimSuffix(name, ".txt"), g.loc)
		if err != nil || !day.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(g.dir, name)); err != nil {
			return removed, services.Wrap(services.ErrStorage, "quota", "prune", name, err)
		}
		removed++
	}
	return removed, nil
}
