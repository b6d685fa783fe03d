package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"influencer/internal/config"
	"influencer/internal/services"
)

// ErrLocked reports that another process holds a channel's storage root.
var ErrLocked = errors.New("storage root is locked by another process")

// LockChannels takes the per-channel lock for every name, all or nothing.
// The returned release func drops them in reverse order.
func LockChannels(cfg *config.Config, names []string) (func(), error) {
	var held []*flock.Flock
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			_ = held[i].Unlock()
		}
	}
	for _, name := range names {
		path := cfg.LockPath(name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			release()
			return nil, services.Wrap(services.ErrStorage, "lock", "create lock dir", path, err)
		}
		lock := flock.New(path)
		ok, err := lock.TryLock()
		if err != nil {
			release()
			return nil, services.Wrap(services.ErrStorage, "lock", "acquire", name, err)
		}
		if !ok {
			release()
			return nil, fmt.Errorf("%w: %s", ErrLocked, name)
		}
		held = append(held, lock)
	}
	return release, nil
}
