package index

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/wanderlog/internal/catalog"
	"github.com/starford/wanderlog/internal/models"
	"github.com/starford/wanderlog/internal/plaintext"
)

const defaultSearchLimit = 20

// BodyReader loads the Markdown body of a catalogued post.
type BodyReader interface {
	ReadBody(p models.Post) (string, error)
}

// Sync brings the mirror up to date with snap:
//   - posts whose checksum changed (or that are new) are re-read and upserted
//   - posts no longer in snap are deleted
//
// Per-post failures are logged and skipped; only database errors on the
// bookkeeping queries abort the sync.
func Sync(ctx context.Context, db *DB, snap *catalog.Snapshot, bodies BodyReader, logger *slog.Logger) error {
	checksums, err := db.AllChecksums(ctx)
	if err != nil {
		return err
	}

	var upserted, removed int
	live := make(map[string]struct{}, snap.Len())
	for _, p := range snap.Posts() {
		live[p.Slug] = struct{}{}
		if checksums[p.Slug] == p.Checksum {
			continue
		}
		body, err := bodies.ReadBody(p)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("slug", p.Slug), slog.String("error", err.Error()))
			continue
		}
		if err := db.UpsertPost(ctx, rowOf(p), plaintext.FromMarkdown(body)); err != nil {
			logger.Warn("sync: index failed", slog.String("slug", p.Slug), slog.String("error", err.Error()))
			continue
		}
		upserted++
		logger.Debug("sync: indexed", slog.String("slug", p.Slug))
	}

	for slug := range checksums {
		if _, ok := live[slug]; ok {
			continue
		}
		if err := db.DeletePost(ctx, slug); err != nil {
			logger.Warn("sync: delete failed", slog.String("slug", slug), slog.String("error", err.Error()))
			continue
		}
		removed++
		logger.Debug("sync: removed stale", slog.String("slug", slug))
	}

	if err := db.MarkSynced(ctx, snap.ID, time.Now()); err != nil {
		return err
	}
	logger.Info("sync: done",
		slog.String("snapshot", snap.ID),
		slog.Int("upserted", upserted),
		slog.Int("removed", removed))
	return nil
}

func rowOf(p models.Post) PostRow {
	return PostRow{
		Slug:        p.Slug,
		Path:        p.Rel,
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Tags:        p.Tags,
		Date:        p.Date,
		Featured:    p.Featured,
		Checksum:    p.Checksum,
	}
}
