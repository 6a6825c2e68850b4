package postservice

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/starford/wanderlog/internal/apperr"
	"github.com/starford/wanderlog/internal/catalog"
	"github.com/starford/wanderlog/internal/content"
	"github.com/starford/wanderlog/internal/index"
	"github.com/starford/wanderlog/internal/testutil"
)

func testService(t *testing.T, withDB bool) (*Service, string) {
	t.Helper()
	root := testutil.ContentRoot(t)
	src, err := content.NewFS([]string{root})
	if err != nil {
		t.Fatal(err)
	}
	cat := catalog.New(src, catalog.WithLogger(testutil.Logger()))
	if !withDB {
		return NewService(cat, nil), root
	}
	db, err := index.Open(testutil.DBPath(t))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return NewService(cat, db), root
}

func seed(t *testing.T, root string) {
	t.Helper()
	testutil.WriteFile(t, root, "a.mdx", testutil.Post("Sapporo Snow", "date: 2024-01-10", "category: Domestic", "subcategory: Hokkaido", "tags: [snow]"))
	testutil.WriteFile(t, root, "b.mdx", testutil.Post("Osaka Eats", "date: 2024-02-10", "category: Gourmet", "subcategory: [Local Food, Kansai]", "tags: [food]", "featured: true"))
	testutil.WriteFile(t, root, "c.mdx", testutil.Post("Kyoto Temples", "date: 2024-03-10", "category: Domestic", "subcategory: Kansai", "tags: [temples, food]"))
}

func TestListPosts_FiltersAndPages(t *testing.T) {
	svc, root := testService(t, false)
	seed(t, root)
	ctx := context.Background()

	all, err := svc.ListPosts(ctx, ListQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if all.Total != 3 || len(all.Posts) != 3 || all.Posts[0].Slug != "c" {
		t.Errorf("all = %+v", all)
	}

	dom, err := svc.ListPosts(ctx, ListQuery{Category: "domestic", Subcategory: "kansai"})
	if err != nil {
		t.Fatal(err)
	}
	if dom.Total != 1 || dom.Posts[0].Slug != "c" {
		t.Errorf("domestic/kansai = %+v", dom)
	}

	anyKansai, err := svc.ListPosts(ctx, ListQuery{Subcategory: "kansai"})
	if err != nil {
		t.Fatal(err)
	}
	if anyKansai.Total != 2 {
		t.Errorf("kansai anywhere total = %d, want 2", anyKansai.Total)
	}

	food, err := svc.ListPosts(ctx, ListQuery{Tag: "food", Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if food.Total != 2 || len(food.Posts) != 1 || food.Posts[0].Slug != "c" {
		t.Errorf("food page = %+v", food)
	}

	if _, err := svc.ListPosts(ctx, ListQuery{Category: "moon"}); !errors.Is(err, apperr.ErrUnknownCategory) {
		t.Errorf("unknown category err = %v", err)
	}
}

func TestByCategory(t *testing.T) {
	svc, root := testService(t, false)
	seed(t, root)
	ctx := context.Background()

	got, err := svc.ByCategory(ctx, "gourmet", "local-food")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Slug != "b" {
		t.Errorf("gourmet/local-food = %v", got)
	}
	if _, err := svc.ByCategory(ctx, "gourmet", "nope"); !errors.Is(err, apperr.ErrUnknownCategory) {
		t.Errorf("unknown subcategory err = %v", err)
	}
}

func TestCategories_Counts(t *testing.T) {
	svc, root := testService(t, false)
	seed(t, root)

	cats, err := svc.Categories(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	counts := map[string]int{}
	for _, c := range cats {
		counts[c.Slug] = c.Posts
	}
	if counts["domestic"] != 2 || counts["gourmet"] != 1 || counts["stay"] != 0 {
		t.Errorf("counts = %v", counts)
	}
}

func TestScanFailureIsUnavailable(t *testing.T) {
	root := testutil.ContentRoot(t)
	file := testutil.WriteFile(t, root, "x.txt", "x")
	src, err := content.NewFS([]string{file})
	if err != nil {
		t.Fatal(err)
	}
	svc := NewService(catalog.New(src, catalog.WithLogger(testutil.Logger())), nil)

	if _, err := svc.ListPosts(context.Background(), ListQuery{}); !errors.Is(err, apperr.ErrIndexUnavailable) {
		t.Errorf("err = %v, want ErrIndexUnavailable", err)
	}
	st, err := svc.Status(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st.Ready {
		t.Error("status should not be ready without a snapshot")
	}
}

func TestFullText(t *testing.T) {
	svc, root := testService(t, false)
	seed(t, root)
	if _, err := svc.FullText(context.Background(), "snow", 5); !errors.Is(err, apperr.ErrIndexUnavailable) {
		t.Errorf("no-db err = %v", err)
	}

	svc, root = testService(t, true)
	seed(t, root)
	ctx := context.Background()
	snap, err := svc.cat.Refresh(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := index.Sync(ctx, svc.db.(*index.DB), snap, svc.cat, testutil.Logger()); err != nil {
		t.Fatal(err)
	}
	hits, err := svc.FullText(ctx, "Kyoto", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Slug != "c" {
		t.Errorf("hits = %+v", hits)
	}
	st, err := svc.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Mirror == nil || st.Mirror.Posts != 3 || st.Mirror.SnapshotID != snap.ID {
		t.Errorf("mirror status = %+v", st.Mirror)
	}
}

func TestRefresh_ReportsSnapshot(t *testing.T) {
	svc, root := testService(t, false)
	seed(t, root)
	testutil.WriteFile(t, root, "draft.mdx", testutil.Post("Draft", "draft: true"))

	st, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !st.Ready || st.Posts != 3 || st.Files != 4 || st.Discarded["draft"] != 1 {
		t.Errorf("status = %+v", st)
	}
}

// countingSource counts fingerprint passes over the content roots.
type countingSource struct {
	content.Source
	fingerprints atomic.Int32
}

func (c *countingSource) Fingerprint(ctx context.Context) (string, error) {
	c.fingerprints.Add(1)
	return c.Source.Fingerprint(ctx)
}

func TestGetPost_SingleFingerprintPass(t *testing.T) {
	root := testutil.ContentRoot(t)
	seed(t, root)
	fs, err := content.NewFS([]string{root})
	if err != nil {
		t.Fatal(err)
	}
	src := &countingSource{Source: fs}
	svc := NewService(catalog.New(src, catalog.WithLogger(testutil.Logger())), nil)
	ctx := context.Background()

	if _, err := svc.GetPost(ctx, "c"); err != nil {
		t.Fatal(err)
	}
	src.fingerprints.Store(0)

	p, err := svc.GetPost(ctx, "c")
	if err != nil {
		t.Fatal(err)
	}
	if p.Content == "" {
		t.Error("content should be loaded")
	}
	if n := src.fingerprints.Load(); n != 1 {
		t.Errorf("fingerprint passes = %d, want 1", n)
	}
}
