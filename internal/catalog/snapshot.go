package catalog

import (
	"time"

	"github.com/starford/wanderlog/internal/models"
)

// Failure records a file that was skipped because it could not be read or
// parsed.
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Collision records two files that resolved to the same slug. Kept is the
// file that won (first in discovery order).
type Collision struct {
	Slug     string `json:"slug"`
	Kept     string `json:"kept"`
	Shadowed string `json:"shadowed"`
}

// Snapshot is one immutable, fully built view of the content roots.
// Callers must not modify the posts or slices it hands out.
type Snapshot struct {
	ID          string
	Fingerprint string
	BuiltAt     time.Time
	Files       int
	Discarded   map[string]int
	Failures    []Failure
	Collisions  []Collision

	posts  []models.Post // sorted by date desc, slug asc
	bySlug map[string]int
	tags   []string
}

func newSnapshot(posts []models.Post) *Snapshot {
	SortByDate(posts)
	s := &Snapshot{
		Discarded: map[string]int{},
		posts:     posts,
		bySlug:    make(map[string]int, len(posts)),
		tags:      Tags(posts),
	}
	for i, p := range posts {
		s.bySlug[p.Slug] = i
	}
	return s
}

// Posts returns the listable posts, most recent first.
func (s *Snapshot) Posts() []models.Post {
	if s == nil {
		return []models.Post{}
	}
	return s.posts
}

// Lookup returns the post with slug, without its body.
func (s *Snapshot) Lookup(slug string) (models.Post, bool) {
	if s == nil {
		return models.Post{}, false
	}
	i, ok := s.bySlug[slug]
	if !ok {
		return models.Post{}, false
	}
	return s.posts[i], true
}

// Tags returns the sorted distinct tags.
func (s *Snapshot) Tags() []string {
	if s == nil {
		return []string{}
	}
	return s.tags
}

// Len returns the number of listable posts.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.posts)
}
