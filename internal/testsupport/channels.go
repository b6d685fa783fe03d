package testsupport

import (
	"path/filepath"
	"testing"

	"influencer/internal/channels"
)

// NewChannel writes profileYAML as root/name/channel.yaml and loads it.
func NewChannel(t testing.TB, root, name, profileYAML string) *channels.Profile {
	t.Helper()
	dir := filepath.Join(root, name)
	WriteText(t, filepath.Join(dir, channels.ProfileFile), profileYAML)
	p, err := channels.LoadProfile(dir)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	return p
}
