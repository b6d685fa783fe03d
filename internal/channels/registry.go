package channels

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"influencer/internal/services"
)

// Registry maps channel names to their capabilities.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Channel
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]Channel)}
}

// Register adds ch. Names must be unique.
func (r *Registry) Register(ch Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.channels[ch.Name()]; exists {
		return services.Wrap(services.ErrConfiguration, "channels", "register", "duplicate channel "+ch.Name(), nil)
	}
	for _, other := range r.channels {
		if other.Series() == ch.Series() {
			return services.Wrap(services.ErrConfiguration, "channels", "register",
				fmt.Sprintf("%s and %s share series %s", other.Name(), ch.Name(), ch.Series()), nil)
		}
	}
	r.channels[ch.Name()] = ch
	return nil
}

// Get returns the named channel.
func (r *Registry) Get(name string) (Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[name]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "channels", "get", name, nil)
	}
	return ch, nil
}

// All returns every channel sorted by name.
func (r *Registry) All() []Channel {
	return r.filter(func(Channel) bool { return true })
}

// Producing returns the channels enabled for the production loop.
func (r *Registry) Producing() []Channel {
	return r.filter(Channel.Producing)
}

// Posting returns the channels enabled for the posting loop.
func (r *Registry) Posting() []Channel {
	return r.filter(Channel.Posting)
}

func (r *Registry) filter(keep func(Channel) bool) []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		if keep(ch) {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Load registers every subdirectory of root that carries a channel.yaml.
// Directories without one are ignored; a broken profile fails the load.
func Load(root string) (*Registry, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "channels", "read channels dir", root, err)
	}
	reg := NewRegistry()
	var errs []error
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, ProfileFile)); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		profile, err := LoadProfile(dir)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := reg.Register(profile); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return reg, nil
}
