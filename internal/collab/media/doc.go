// Package media drives ffmpeg and ffprobe for the audio, render and thumbnail
// steps of production.
//
// Every invocation goes through Toolkit.Run, so tests substitute a recorder
// and assert on argument lists instead of executing binaries. Paths are
// always explicit; nothing depends on the process working directory.
package media
