package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/starford/wanderlog/internal/catalog"
)

// ErrCheckFailed is returned by Check in strict mode when any file failed to
// parse or any slug collided.
var ErrCheckFailed = errors.New("check: content has problems")

// Check builds the index once and writes a report of what was indexed,
// skipped and shadowed.
func Check(ctx context.Context, strict bool, opts ...Option) error {
	app, err := newApplication(opts, os.Stderr)
	if err != nil {
		return err
	}
	cat, err := newCatalog(app.config, app.logger)
	if err != nil {
		return err
	}
	snap, err := cat.Refresh(ctx)
	if err != nil {
		return err
	}
	writeReport(app.out, snap)
	if strict && (len(snap.Failures) > 0 || len(snap.Collisions) > 0) {
		return ErrCheckFailed
	}
	return nil
}

func writeReport(w io.Writer, snap *catalog.Snapshot) {
	fmt.Fprintf(w, "files:      %d\n", snap.Files)
	fmt.Fprintf(w, "posts:      %d\n", snap.Len())
	fmt.Fprintf(w, "tags:       %d\n", len(snap.Tags()))
	for _, reason := range slices.Sorted(maps.Keys(snap.Discarded)) {
		fmt.Fprintf(w, "discarded:  %d %s\n", snap.Discarded[reason], reason)
	}
	for _, f := range snap.Failures {
		fmt.Fprintf(w, "FAIL %s: %s\n", f.Path, f.Error)
	}
	for _, c := range snap.Collisions {
		fmt.Fprintf(w, "DUP  %s: %s shadows %s\n", c.Slug, c.Kept, c.Shadowed)
	}
	for _, p := range snap.Posts() {
		if err := p.Validate(); err != nil {
			fmt.Fprintf(w, "WARN %s: %s\n", p.Rel, err)
		}
	}
}
