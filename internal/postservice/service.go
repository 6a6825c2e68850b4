// Package postservice is the query facade shared by the HTTP API and the MCP
// server. It resolves URL slugs, pages results and maps index failures onto
// apperr sentinels.
package postservice

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/wanderlog/internal/apperr"
	"github.com/starford/wanderlog/internal/catalog"
	"github.com/starford/wanderlog/internal/categories"
	"github.com/starford/wanderlog/internal/index"
	"github.com/starford/wanderlog/internal/models"
)

// ListQuery selects and pages posts. Category and Subcategory are URL slugs.
type ListQuery struct {
	Category    string
	Subcategory string
	Tag         string
	Limit       int
	Offset      int
}

// PostList is one page of posts plus the size of the unpaged result.
type PostList struct {
	Posts []models.Post `json:"posts"`
	Total int           `json:"total"`
}

// CategorySummary is a taxonomy entry with the number of listable posts in it.
type CategorySummary struct {
	categories.Category
	Posts int `json:"posts"`
}

// IndexStatus describes the current snapshot and the full-text mirror.
type IndexStatus struct {
	Ready      bool                `json:"ready"`
	SnapshotID string              `json:"snapshotId,omitempty"`
	BuiltAt    time.Time           `json:"builtAt,omitempty"`
	Files      int                 `json:"files"`
	Posts      int                 `json:"posts"`
	Discarded  map[string]int      `json:"discarded"`
	Failures   []catalog.Failure   `json:"failures"`
	Collisions []catalog.Collision `json:"collisions"`
	Mirror     *index.Status       `json:"mirror,omitempty"`
}

// Service answers read queries over the catalog and, when configured, the
// full-text mirror.
type Service struct {
	cat *catalog.Index
	db  index.PostIndex
}

// NewService creates a Service. db may be nil, in which case full-text search
// reports apperr.ErrIndexUnavailable.
func NewService(cat *catalog.Index, db index.PostIndex) *Service {
	return &Service{cat: cat, db: db}
}

func (s *Service) snapshot(ctx context.Context) (*catalog.Snapshot, error) {
	snap, err := s.cat.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("postservice: %w: %w", apperr.ErrIndexUnavailable, err)
	}
	return snap, nil
}

// ListPosts returns posts matching q, most recent first.
func (s *Service) ListPosts(ctx context.Context, q ListQuery) (PostList, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return PostList{}, err
	}
	posts := snap.Posts()
	if q.Category != "" || q.Subcategory != "" {
		posts, err = filterBySlugs(posts, q.Category, q.Subcategory)
		if err != nil {
			return PostList{}, err
		}
	}
	if q.Tag != "" {
		posts = catalog.FilterByTag(posts, q.Tag)
	}
	return PostList{Posts: catalog.Page(posts, q.Limit, q.Offset), Total: len(posts)}, nil
}

// filterBySlugs narrows posts by URL slugs. A subcategory slug without a
// category slug matches that subcategory under any category.
func filterBySlugs(posts []models.Post, catSlug, subSlug string) ([]models.Post, error) {
	if catSlug == "" {
		for _, c := range categories.All() {
			if name, ok := categories.SubcategoryDisplayName(c.Slug, subSlug); ok {
				return catalog.FilterBySubcategory(posts, name), nil
			}
		}
		return nil, fmt.Errorf("postservice: subcategory %q: %w", subSlug, apperr.ErrUnknownCategory)
	}
	f, err := categories.Resolve(catSlug, subSlug)
	if err != nil {
		return nil, err
	}
	return catalog.FilterByCategory(posts, f.Category, f.Subcategory), nil
}

// Featured returns featured posts.
func (s *Service) Featured(ctx context.Context) ([]models.Post, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Featured(snap.Posts()), nil
}

// GetPost returns one post with its body.
func (s *Service) GetPost(ctx context.Context, slug string) (*models.Post, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := snap.Lookup(slug)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	body, err := s.cat.ReadBody(p)
	if err != nil {
		return nil, err
	}
	p.Content = body
	return &p, nil
}

// Search matches query against post metadata.
func (s *Service) Search(ctx context.Context, query string) ([]models.Post, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Search(snap.Posts(), query), nil
}

// FullText searches post bodies through the SQLite mirror.
func (s *Service) FullText(ctx context.Context, query string, limit int) ([]index.SearchHit, error) {
	if s.db == nil {
		return nil, apperr.ErrIndexUnavailable
	}
	hits, err := s.db.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postservice: %w: %w", apperr.ErrIndexUnavailable, err)
	}
	return hits, nil
}

// Tags returns the sorted distinct tags.
func (s *Service) Tags(ctx context.Context) ([]string, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Tags(), nil
}

// ByTag returns posts carrying tag.
func (s *Service) ByTag(ctx context.Context, tag string) ([]models.Post, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.FilterByTag(snap.Posts(), tag), nil
}

// Categories returns the taxonomy with post counts per category.
func (s *Service) Categories(ctx context.Context) ([]CategorySummary, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, p := range snap.Posts() {
		counts[p.Category]++
	}
	all := categories.All()
	out := make([]CategorySummary, 0, len(all))
	for _, c := range all {
		out = append(out, CategorySummary{Category: c, Posts: counts[c.Name]})
	}
	return out, nil
}

// ByCategory returns posts under a category slug and optional subcategory slug.
func (s *Service) ByCategory(ctx context.Context, catSlug, subSlug string) ([]models.Post, error) {
	f, err := categories.Resolve(catSlug, subSlug)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.FilterByCategory(snap.Posts(), f.Category, f.Subcategory), nil
}

// Status reports the current snapshot without triggering a rebuild.
func (s *Service) Status(ctx context.Context) (IndexStatus, error) {
	st := statusOf(s.cat.Current())
	if s.db != nil {
		m, err := s.db.Status(ctx)
		if err != nil {
			return IndexStatus{}, fmt.Errorf("postservice: mirror status: %w", err)
		}
		st.Mirror = &m
	}
	return st, nil
}

// Refresh forces a rebuild and returns the resulting status.
func (s *Service) Refresh(ctx context.Context) (IndexStatus, error) {
	if _, err := s.cat.Refresh(ctx); err != nil {
		return IndexStatus{}, fmt.Errorf("postservice: %w: %w", apperr.ErrIndexUnavailable, err)
	}
	return s.Status(ctx)
}

func statusOf(snap *catalog.Snapshot) IndexStatus {
	st := IndexStatus{
		Discarded:  map[string]int{},
		Failures:   []catalog.Failure{},
		Collisions: []catalog.Collision{},
	}
	if snap == nil {
		return st
	}
	st.Ready = true
	st.SnapshotID = snap.ID
	st.BuiltAt = snap.BuiltAt
	st.Files = snap.Files
	st.Posts = snap.Len()
	for k, v := range snap.Discarded {
		st.Discarded[k] = v
	}
	st.Failures = append(st.Failures, snap.Failures...)
	st.Collisions = append(st.Collisions, snap.Collisions...)
	return st
}
