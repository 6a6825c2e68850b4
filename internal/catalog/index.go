// Package catalog builds and serves the in-memory post index.
//
// An Index holds the most recent Snapshot of the content roots. Snapshots are
// immutable; Refresh builds a new one and swaps it in atomically, so readers
// never see a half-built index.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/starford/wanderlog/internal/apperr"
	"github.com/starford/wanderlog/internal/content"
	"github.com/starford/wanderlog/internal/models"
	"github.com/starford/wanderlog/internal/parser"
)

const defaultWorkers = 8

// ChangeHook is called after a new snapshot is installed, with the post-level
// changes relative to the previous one. It is not called when nothing changed.
type ChangeHook func(snap *Snapshot, changes []Change)

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(i *Index) { i.logger = l }
}

// WithDefaults sets the values used for absent optional frontmatter fields.
func WithDefaults(d parser.Defaults) Option {
	return func(i *Index) { i.defaults = d }
}

// WithWorkers bounds the number of files parsed concurrently.
func WithWorkers(n int) Option {
	return func(i *Index) {
		if n > 0 {
			i.workers = n
		}
	}
}

// WithChangeHook registers fn to run after each snapshot swap that changed
// at least one post.
func WithChangeHook(fn ChangeHook) Option {
	return func(i *Index) { i.hooks = append(i.hooks, fn) }
}

// Index serves queries from the current snapshot of a content source.
type Index struct {
	source   content.Source
	logger   *slog.Logger
	defaults parser.Defaults
	workers  int
	hooks    []ChangeHook

	group singleflight.Group

	mu      sync.RWMutex
	current *Snapshot
}

// New creates an Index over source. No I/O happens until the first Refresh
// or Snapshot call.
func New(source content.Source, opts ...Option) *Index {
	i := &Index{
		source:   source,
		logger:   slog.Default(),
		defaults: parser.DefaultDefaults(),
		workers:  defaultWorkers,
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

// Source returns the content source the index reads from.
func (i *Index) Source() content.Source { return i.source }

// Current returns the last installed snapshot, or nil before the first build.
func (i *Index) Current() *Snapshot {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.current
}

// Snapshot returns a snapshot that reflects the content roots as they are now.
// The current snapshot is reused when the source fingerprint is unchanged.
func (i *Index) Snapshot(ctx context.Context) (*Snapshot, error) {
	fp, err := i.source.Fingerprint(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: fingerprint: %w", err)
	}
	if cur := i.Current(); cur != nil && cur.Fingerprint == fp {
		return cur, nil
	}
	return i.Refresh(ctx)
}

// Refresh rebuilds the snapshot unconditionally. Concurrent callers share one
// build, which is detached from any single caller's cancellation; each caller
// stops waiting when its own ctx is done.
func (i *Index) Refresh(ctx context.Context) (*Snapshot, error) {
	ch := i.group.DoChan("refresh", func() (any, error) {
		return i.build(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*Snapshot), nil
	}
}

type parsed struct {
	res *parser.Result
	err error
}

func (i *Index) build(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	files, err := i.source.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: discover: %w", err)
	}

	results := make([]parsed, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.workers)
	for n, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := i.source.Read(f)
			if err != nil {
				results[n] = parsed{err: err}
				return nil
			}
			res, err := parser.Parse(f, data, i.defaults)
			results[n] = parsed{res: res, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}

	var (
		posts      []models.Post
		seen       = make(map[string]string, len(files))
		discarded  = map[string]int{}
		failures   []Failure
		collisions []Collision
	)
	for n, r := range results {
		f := files[n]
		if r.err != nil {
			i.logger.Warn("catalog: skip file",
				slog.String("path", f.Rel),
				slog.String("error", r.err.Error()))
			failures = append(failures, Failure{Path: f.Rel, Error: r.err.Error()})
			continue
		}
		if r.res.Discarded != "" {
			discarded[r.res.Discarded]++
			continue
		}
		p := *r.res.Post
		if kept, dup := seen[p.Slug]; dup {
			i.logger.Warn("catalog: duplicate slug",
				slog.String("slug", p.Slug),
				slog.String("kept", kept),
				slog.String("shadowed", p.Rel))
			collisions = append(collisions, Collision{Slug: p.Slug, Kept: kept, Shadowed: p.Rel})
			continue
		}
		if err := p.Validate(); err != nil {
			i.logger.Warn("catalog: invalid post",
				slog.String("path", p.Rel),
				slog.String("error", err.Error()))
		}
		seen[p.Slug] = p.Rel
		posts = append(posts, p)
	}

	snap := newSnapshot(posts)
	snap.ID = uuid.NewString()
	snap.Fingerprint = content.FingerprintOf(files)
	snap.BuiltAt = time.Now().UTC()
	snap.Files = len(files)
	snap.Discarded = discarded
	snap.Failures = failures
	snap.Collisions = collisions

	i.mu.Lock()
	prev := i.current
	i.current = snap
	i.mu.Unlock()

	i.logger.Info("catalog: snapshot built",
		slog.String("id", snap.ID),
		slog.Int("files", len(files)),
		slog.Int("posts", snap.Len()),
		slog.Int("failures", len(failures)),
		slog.Duration("took", time.Since(start)))

	if changes := Diff(prev, snap); len(changes) > 0 {
		for _, h := range i.hooks {
			h(snap, changes)
		}
	}
	return snap, nil
}

// ListAll returns every listable post, most recent first.
func (i *Index) ListAll(ctx context.Context) ([]models.Post, error) {
	snap, err := i.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Posts(), nil
}

// GetBySlug returns the post with slug and its body in Content.
func (i *Index) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	snap, err := i.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := snap.Lookup(slug)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	body, err := i.ReadBody(p)
	if err != nil {
		return nil, err
	}
	p.Content = body
	return &p, nil
}

// ReadBody re-reads the file behind p and returns its body. It reports
// apperr.ErrNotFound if the file no longer yields a listable post with the
// same slug.
func (i *Index) ReadBody(p models.Post) (string, error) {
	f := content.File{Root: p.Root, Path: p.Path, Rel: p.Rel, ModTime: p.Date}
	data, err := i.source.Read(f)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", apperr.ErrNotFound
		}
		return "", fmt.Errorf("catalog: read body: %w", err)
	}
	res, err := parser.Parse(f, data, i.defaults)
	if err != nil {
		return "", fmt.Errorf("catalog: read body: %w", err)
	}
	if res.Post == nil || res.Post.Slug != p.Slug {
		return "", apperr.ErrNotFound
	}
	return res.Body, nil
}

// ByCategory returns posts in category, optionally narrowed to subcategory.
func (i *Index) ByCategory(ctx context.Context, category, subcategory string) ([]models.Post, error) {
	snap, err := i.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return FilterByCategory(snap.Posts(), category, subcategory), nil
}

// ByTag returns posts carrying tag.
func (i *Index) ByTag(ctx context.Context, tag string) ([]models.Post, error) {
	snap, err := i.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return FilterByTag(snap.Posts(), tag), nil
}

// Search returns posts matching query, most recent first.
func (i *Index) Search(ctx context.Context, query string) ([]models.Post, error) {
	snap, err := i.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return Search(snap.Posts(), query), nil
}

// ListTags returns the sorted distinct tags of all listable posts.
func (i *Index) ListTags(ctx context.Context) ([]string, error) {
	snap, err := i.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Tags(), nil
}

// ListFeatured returns featured posts, most recent first.
func (i *Index) ListFeatured(ctx context.Context) ([]models.Post, error) {
	snap, err := i.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return Featured(snap.Posts()), nil
}
