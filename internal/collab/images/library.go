package images

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"influencer/internal/fileutil"
	"influencer/internal/services"
)

// LibraryPick is the number of library images copied per item.
const LibraryPick = 30

// IsImage reports whether name has a JPEG extension.
func IsImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return true
	}
	return false
}

// CopyRandom copies up to n randomly chosen JPEGs from src into dst. Copies
// are prefixed with their shuffled position so a name sort yields the
// random order.
func CopyRandom(src, dst string, n int, rnd *rand.Rand) ([]string, error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidTopicCode, "images", "read library", src, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && IsImage(e.Name()) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, services.Wrap(services.ErrValidation, "images", "read library", "no images in "+src, nil)
	}
	sort.Strings(names)
	shuffle(names, rnd)
	if len(names) > n {
		names = names[:n]
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return nil, services.Wrap(services.ErrStorage, "images", "create images dir", dst, err)
	}
	copied := make([]string, 0, len(names))
	for i, name := range names {
		target := filepath.Join(dst, fmt.Sprintf("%03d_%s", i, name))
		if err := fileutil.CopyFileVerified(filepath.Join(src, name), target); err != nil {
			return copied, services.Wrap(services.ErrStorage, "images", "copy", name, err)
		}
		copied = append(copied, target)
	}
	return copied, nil
}

// List returns the JPEGs in dir sorted by name.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "images", "list", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && IsImage(e.Name()) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func shuffle(names []string, rnd *rand.Rand) {
	swap := func(i, j int) { names[i], names[j] = names[j], names[i] }
	if rnd == nil {
		rand.Shuffle(len(names), swap)
		return
	}
	rnd.Shuffle(len(names), swap)
}
