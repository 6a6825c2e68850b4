package index

import "context"

// PostIndex is the full-text mirror of the post catalog.
// Consumers depend on this interface rather than *DB so they can be tested
// with fakes.
type PostIndex interface {
	UpsertPost(ctx context.Context, r PostRow, body string) error
	DeletePost(ctx context.Context, slug string) error
	AllChecksums(ctx context.Context) (map[string]string, error)
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
	Status(ctx context.Context) (Status, error)
	Close() error
}

var _ PostIndex = (*DB)(nil)
