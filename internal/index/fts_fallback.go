//go:build !sqlite_fts5

package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const fullTextEnabled = false

// FTS5 is not compiled in; search reads posts.body directly.
func initFTS(_ *sql.DB) error { return nil }

func ftsUpsert(_ context.Context, _ *sql.Tx, _ PostRow, _ string) error { return nil }

func ftsDelete(_ context.Context, _ *sql.Tx, _ string) error { return nil }

// Search matches query as a substring of the title, description, body or
// tags, newest first. Matching is case-insensitive for ASCII only.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	out := []SearchHit{}
	query = strings.TrimSpace(query)
	if query == "" {
		return out, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	like := "%" + escapeLike(query) + "%"
	rows, err := db.conn.QueryContext(ctx, `
		SELECT slug, title, substr(body, 1, 200)
		FROM posts
		WHERE title LIKE ?1 ESCAPE '\'
		   OR description LIKE ?1 ESCAPE '\'
		   OR body LIKE ?1 ESCAPE '\'
		   OR tags LIKE ?1 ESCAPE '\'
		ORDER BY date DESC, slug ASC
		LIMIT ?2
	`, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.Slug, &h.Title, &h.Snippet); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
