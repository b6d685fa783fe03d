package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"influencer/internal/config"
)

// Binary is an external program the production pipeline shells out to.
type Binary struct {
	Name     string
	Command  string
	Purpose  string
	Optional bool
}

// Report is the PATH lookup result for one Binary. Path is empty when the
// binary could not be found and Problem says why.
type Report struct {
	Binary
	Path    string
	Problem string
}

// OK reports whether the binary resolved.
func (r Report) OK() bool { return r.Path != "" }

// Toolchain lists the binaries configured for media work.
func Toolchain(cfg *config.Config) []Binary {
	return []Binary{
		{Name: "FFmpeg", Command: cfg.Media.FFmpegBinary, Purpose: "audio mixing, rendering and thumbnails"},
		{Name: "FFprobe", Command: cfg.Media.FFprobeBinary, Purpose: "narration duration probing"},
	}
}

// Check resolves every binary on PATH, in order.
func Check(bins []Binary) []Report {
	reports := make([]Report, len(bins))
	for i, b := range bins {
		b.Command = strings.TrimSpace(b.Command)
		reports[i] = Report{Binary: b}
		if b.Command == "" {
			reports[i].Problem = "command not configured"
			continue
		}
		path, err := exec.LookPath(b.Command)
		if err != nil {
			reports[i].Problem = fmt.Sprintf("%q not on PATH", b.Command)
			continue
		}
		reports[i].Path = path
	}
	return reports
}

// Missing returns an error naming every required binary that did not resolve.
func Missing(reports []Report) error {
	var names []string
	for _, r := range reports {
		if r.OK() || r.Optional {
			continue
		}
		names = append(names, r.Name+" ("+r.Problem+")")
	}
	if len(names) == 0 {
		return nil
	}
	return fmt.Errorf("missing dependencies: %s", strings.Join(names, ", "))
}

// Resolve returns the absolute path of command, or command unchanged when
// PATH lookup fails.
func Resolve(command string) string {
	if path, err := exec.LookPath(strings.TrimSpace(command)); err == nil {
		return path
	}
	return command
}
