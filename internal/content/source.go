// Package content discovers content files under the configured content roots.
package content

import (
	"context"
	"time"
)

// File is a content file found during one discovery pass.
type File struct {
	// Root is the absolute content root the file was found under.
	Root string
	// Path is the absolute path of the file.
	Path string
	// Rel is Path relative to Root, always slash-separated.
	Rel     string
	ModTime time.Time
	Size    int64
}

// Source is the interface the index uses to reach content on disk.
type Source interface {
	// Discover walks every root in order and returns the content files found.
	// Roots that do not exist contribute no files.
	Discover(ctx context.Context) ([]File, error)
	// Read returns the raw bytes of a discovered file.
	Read(f File) ([]byte, error)
	// Fingerprint summarises the current state of all roots. It changes
	// whenever a content file is added, removed, resized or touched.
	Fingerprint(ctx context.Context) (string, error)
	// Roots returns the configured roots as absolute paths.
	Roots() []string
}
