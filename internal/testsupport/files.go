package testsupport

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// WriteText writes content to path, creating parent directories.
func WriteText(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// ReadText returns the content of path.
func ReadText(t testing.TB, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// Markers drops a placeholder file at each path relative to dir. Stage
// inference only looks at presence.
func Markers(t testing.TB, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		WriteText(t, filepath.Join(dir, name), "x")
	}
}

// MkdirItems creates one folder per name under root and returns root.
func MkdirItems(t testing.TB, root string, names ...string) string {
	t.Helper()
	for _, name := range names {
		if err := os.MkdirAll(filepath.Join(root, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// DirNames lists the folder names under root in lexical order.
func DirNames(t testing.TB, root string) []string {
	t.Helper()
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names
}

// RemoveFile deletes path.
func RemoveFile(t testing.TB, path string) {
	t.Helper()
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
}
