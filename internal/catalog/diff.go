package catalog

import "slices"

// ChangeKind classifies a post-level difference between two snapshots.
type ChangeKind string

const (
	Created ChangeKind = "created"
	Updated ChangeKind = "updated"
	Deleted ChangeKind = "deleted"
)

// Change is one post that appeared, changed or disappeared.
type Change struct {
	Kind ChangeKind `json:"kind"`
	Slug string     `json:"slug"`
	Path string     `json:"path"`
}

// Diff compares two snapshots by slug and file checksum. Either may be nil.
// Changes are ordered by slug.
func Diff(prev, next *Snapshot) []Change {
	var out []Change
	for _, p := range next.Posts() {
		old, ok := prev.Lookup(p.Slug)
		switch {
		case !ok:
			out = append(out, Change{Kind: Created, Slug: p.Slug, Path: p.Rel})
		case old.Checksum != p.Checksum || old.Path != p.Path:
			out = append(out, Change{Kind: Updated, Slug: p.Slug, Path: p.Rel})
		}
	}
	for _, p := range prev.Posts() {
		if _, ok := next.Lookup(p.Slug); !ok {
			out = append(out, Change{Kind: Deleted, Slug: p.Slug, Path: p.Rel})
		}
	}
	slices.SortFunc(out, func(a, b Change) int {
		switch {
		case a.Slug < b.Slug:
			return -1
		case a.Slug > b.Slug:
			return 1
		}
		return 0
	})
	return out
}
