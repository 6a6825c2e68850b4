package internal

import (
	"context"
	"testing"

	"github.com/starford/wanderlog/internal/index"
	"github.com/starford/wanderlog/internal/testutil"
)

func TestRefreshJob_ResyncsMirror(t *testing.T) {
	root := testutil.ContentRoot(t)
	testutil.WriteFile(t, root, "kansai/kyoto.mdx", testutil.Post("Kyoto", "date: 2024-06-20"))

	cfg := NewDefaultConfig()
	cfg.Content.Roots = []string{root}
	logger := testutil.Logger()

	db, err := index.Open(testutil.DBPath(t))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	cat, err := newCatalog(cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	job := refreshJob(cat, db, logger)

	if err := job(ctx); err != nil {
		t.Fatalf("job: %v", err)
	}
	sums, err := db.AllChecksums(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := sums["kansai-kyoto"]; !ok {
		t.Fatalf("mirror = %v, want kansai-kyoto", sums)
	}

	// Content is unchanged, so no change hook would fire; the job must still
	// restore a row the mirror lost.
	if err := db.DeletePost(ctx, "kansai-kyoto"); err != nil {
		t.Fatal(err)
	}
	first := cat.Current().ID
	if err := job(ctx); err != nil {
		t.Fatalf("job: %v", err)
	}
	if cat.Current().ID == first {
		t.Error("job should force a rebuild")
	}
	sums, _ = db.AllChecksums(ctx)
	if _, ok := sums["kansai-kyoto"]; !ok {
		t.Errorf("mirror not re-synced: %v", sums)
	}
}

func TestRefreshJob_NoMirror(t *testing.T) {
	root := testutil.ContentRoot(t)
	testutil.WriteFile(t, root, "a.mdx", testutil.Post("Alpha"))
	cfg := NewDefaultConfig()
	cfg.Content.Roots = []string{root}

	cat, err := newCatalog(cfg, testutil.Logger())
	if err != nil {
		t.Fatal(err)
	}
	if err := refreshJob(cat, nil, testutil.Logger())(context.Background()); err != nil {
		t.Fatalf("job: %v", err)
	}
	if cat.Current() == nil {
		t.Error("job should build a snapshot")
	}
}
