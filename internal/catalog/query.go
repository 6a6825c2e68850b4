package catalog

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/starford/wanderlog/internal/models"
)

// SortByDate orders posts most recent first. Equal dates fall back to slug
// ascending so the order is reproducible.
func SortByDate(posts []models.Post) {
	slices.SortStableFunc(posts, func(a, b models.Post) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return strings.Compare(a.Slug, b.Slug)
	})
}

// FilterByCategory keeps posts whose category equals category exactly. When
// subcategory is non-empty the post must also list it among its subcategories.
func FilterByCategory(posts []models.Post, category, subcategory string) []models.Post {
	out := []models.Post{}
	for _, p := range posts {
		if p.Category != category {
			continue
		}
		if subcategory != "" && !p.HasSubcategory(subcategory) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// FilterBySubcategory keeps posts listing subcategory, whatever their category.
func FilterBySubcategory(posts []models.Post, subcategory string) []models.Post {
	out := []models.Post{}
	for _, p := range posts {
		if p.HasSubcategory(subcategory) {
			out = append(out, p)
		}
	}
	return out
}

// FilterByTag keeps posts carrying tag (case-sensitive).
func FilterByTag(posts []models.Post, tag string) []models.Post {
	out := []models.Post{}
	for _, p := range posts {
		if p.HasTag(tag) {
			out = append(out, p)
		}
	}
	return out
}

// Search returns posts whose title, description, category, any subcategory or
// any tag contains query, compared under Unicode case folding. An empty query
// matches nothing. Input order is preserved.
func Search(posts []models.Post, query string) []models.Post {
	out := []models.Post{}
	if strings.TrimSpace(query) == "" {
		return out
	}
	fold := cases.Fold()
	q := fold.String(query)
	contains := func(s string) bool {
		return s != "" && strings.Contains(fold.String(s), q)
	}

	for _, p := range posts {
		if matches(p, contains) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p models.Post, contains func(string) bool) bool {
	if contains(p.Title) || contains(p.Description) || contains(p.Category) {
		return true
	}
	for _, s := range p.Subcategories {
		if contains(s) {
			return true
		}
	}
	for _, t := range p.Tags {
		if contains(t) {
			return true
		}
	}
	return false
}

// Tags returns every distinct tag across posts in ascending byte order.
// Tags that differ only by case are kept apart.
func Tags(posts []models.Post) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, p := range posts {
		for _, t := range p.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return out
}

// Featured keeps posts flagged as featured.
func Featured(posts []models.Post) []models.Post {
	out := []models.Post{}
	for _, p := range posts {
		if p.Featured {
			out = append(out, p)
		}
	}
	return out
}

// Page returns posts[offset:offset+limit], clamped. A non-positive limit
// means no limit.
func Page(posts []models.Post, limit, offset int) []models.Post {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(posts) {
		return []models.Post{}
	}
	end := len(posts)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return posts[offset:end]
}
