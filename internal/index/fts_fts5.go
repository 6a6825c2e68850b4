//go:build sqlite_fts5

package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode"
)

const fullTextEnabled = true

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS posts_fts USING fts5(
			slug UNINDEXED,
			title,
			description,
			body,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(ctx context.Context, tx *sql.Tx, r PostRow, body string) error {
	if err := ftsDelete(ctx, tx, r.Slug); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO posts_fts (slug, title, description, body, tags) VALUES (?, ?, ?, ?, ?)`,
		r.Slug, r.Title, r.Description, body, strings.Join(r.Tags, " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(ctx context.Context, tx *sql.Tx, slug string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM posts_fts WHERE slug = ?`, slug); err != nil {
		return fmt.Errorf("index: delete fts: %w", err)
	}
	return nil
}

// matchExpr turns free text into an FTS5 query: every word must match as a
// prefix. Quoting each word keeps FTS5 operators in user input inert.
func matchExpr(query string) string {
	var words []string
	for _, w := range strings.Fields(query) {
		if strings.IndexFunc(w, isWordRune) < 0 {
			continue
		}
		words = append(words, `"`+strings.ReplaceAll(w, `"`, `""`)+`"*`)
	}
	return strings.Join(words, " ")
}

func isWordRune(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }

// Search runs an FTS5 query over titles, descriptions, bodies and tags and
// returns hits ranked by relevance with a highlighted body snippet.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	out := []SearchHit{}
	expr := matchExpr(query)
	if expr == "" {
		return out, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT slug,
		       title,
		       snippet(posts_fts, 3, '<b>', '</b>', '...', 32)
		FROM posts_fts
		WHERE posts_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, expr, limit)
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
