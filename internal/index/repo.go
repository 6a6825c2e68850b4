package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PostRow is the searchable projection of a post.
type PostRow struct {
	Slug        string
	Path        string
	Title       string
	Description string
	Category    string
	Tags        []string
	Date        time.Time
	Featured    bool
	Checksum    string
}

// SearchHit is one full-text match.
type SearchHit struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Status describes the last completed sync.
type Status struct {
	Posts      int       `json:"posts"`
	SnapshotID string    `json:"snapshotId"`
	SyncedAt   time.Time `json:"syncedAt"`
	FullText   bool      `json:"fullText"`
}

const (
	metaSnapshotID = "snapshot_id"
	metaSyncedAt   = "synced_at"
)

// UpsertPost inserts or replaces a post and its FTS entry within a transaction.
func (db *DB) UpsertPost(ctx context.Context, r PostRow, body string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("index: encode tags: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO posts (slug, path, title, description, category, tags, date, featured, checksum, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			path        = excluded.path,
			title       = excluded.title,
			description = excluded.description,
			category    = excluded.category,
			tags        = excluded.tags,
			date        = excluded.date,
			featured    = excluded.featured,
			checksum    = excluded.checksum,
			body        = excluded.body
	`, r.Slug, r.Path, r.Title, r.Description, r.Category, string(tagsJSON), r.Date.UTC(), r.Featured, r.Checksum, body)
	if err != nil {
		return fmt.Errorf("index: upsert post: %w", err)
	}

	if err := ftsUpsert(ctx, tx, r, body); err != nil {
		return err
	}
	return tx.Commit()
}

// DeletePost removes a post and its FTS entry.
func (db *DB) DeletePost(ctx context.Context, slug string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(ctx, tx, slug); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE slug = ?`, slug); err != nil {
		return fmt.Errorf("index: delete post: %w", err)
	}
	return tx.Commit()
}

// AllChecksums returns slug -> checksum for every indexed post.
func (db *DB) AllChecksums(ctx context.Context) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT slug, checksum FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var slug, cs string
		if err := rows.Scan(&slug, &cs); err != nil {
			return nil, err
		}
		out[slug] = cs
	}
	return out, rows.Err()
}

func (db *DB) setMeta(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("index: set meta %s: %w", key, err)
	}
	return nil
}

func (db *DB) meta(ctx context.Context, key string) (string, error) {
	var v string
	err := db.conn.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get meta %s: %w", key, err)
	}
	return v, nil
}

// MarkSynced records the snapshot the mirror now reflects.
func (db *DB) MarkSynced(ctx context.Context, snapshotID string, at time.Time) error {
	if err := db.setMeta(ctx, metaSnapshotID, snapshotID); err != nil {
		return err
	}
	return db.setMeta(ctx, metaSyncedAt, at.UTC().Format(time.RFC3339Nano))
}

// Status reports the row count and the last recorded sync.
func (db *DB) Status(ctx context.Context) (Status, error) {
	st := Status{FullText: fullTextEnabled}
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM posts`).Scan(&st.Posts); err != nil {
		return Status{}, fmt.Errorf("index: count posts: %w", err)
	}
	id, err := db.meta(ctx, metaSnapshotID)
	if err != nil {
		return Status{}, err
	}
	st.SnapshotID = id
	at, err := db.meta(ctx, metaSyncedAt)
	if err != nil {
		return Status{}, err
	}
	if at != "" {
		if t, err := time.Parse(time.RFC3339Nano, at); err == nil {
			st.SyncedAt = t
		}
	}
	return st, nil
}
