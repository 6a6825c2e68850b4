package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/wanderlog/internal/catalog"
	"github.com/starford/wanderlog/internal/content"
	"github.com/starford/wanderlog/internal/index"
	"github.com/starford/wanderlog/internal/postservice"
	"github.com/starford/wanderlog/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	root := testutil.ContentRoot(t)
	testutil.WriteFile(t, root, "kanto/tokyo-solo.mdx", testutil.Post("Tokyo Solo",
		"date: 2024-05-01", "category: Domestic", "subcategory: Kanto", "tags: [tokyo, solo]", "featured: true"))
	testutil.WriteFile(t, root, "kansai/osaka.mdx", testutil.Post("Osaka Street Food",
		"date: 2024-04-01", "category: Gourmet", "subcategory: [Local Food, Kansai]", "tags: [food]"))
	testutil.WriteFile(t, root, "draft.mdx", testutil.Post("Unfinished", "draft: true"))

	src, err := content.NewFS([]string{root})
	if err != nil {
		t.Fatal(err)
	}
	cat := catalog.New(src, catalog.WithLogger(testutil.Logger()))

	db, err := index.Open(testutil.DBPath(t))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	snap, err := cat.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := index.Sync(context.Background(), db, snap, cat, testutil.Logger()); err != nil {
		t.Fatal(err)
	}

	return New(postservice.NewService(cat, db), "test")
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_posts":
		result, err = srv.searchPosts(ctx, req)
	case "get_post":
		result, err = srv.getPost(ctx, req)
	case "list_posts":
		result, err = srv.listPosts(ctx, req)
	case "list_tags":
		result, err = srv.listTags(ctx, req)
	case "list_categories":
		result, err = srv.listCategories(ctx, req)
	case "get_frontmatter_contract":
		result, err = srv.getContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSearchPosts(t *testing.T) {
	srv := testServer(t)

	res := callTool(t, srv, "search_posts", map[string]any{"query": "OSAKA"})
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(res))
	}
	var hits []summary
	if err := json.Unmarshal([]byte(resultText(res)), &hits); err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Slug != "kansai-osaka" {
		t.Errorf("hits = %+v", hits)
	}
}

func TestSearchPosts_FullText(t *testing.T) {
	srv := testServer(t)

	res := callTool(t, srv, "search_posts", map[string]any{"query": "Body", "fulltext": true})
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(res))
	}
	var hits []index.SearchHit
	if err := json.Unmarshal([]byte(resultText(res)), &hits); err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Errorf("got %d hits, want 2 (draft excluded)", len(hits))
	}
}

func TestSearchPosts_MissingQuery(t *testing.T) {
	srv := testServer(t)

	res := callTool(t, srv, "search_posts", map[string]any{})
	if !res.IsError {
		t.Error("expected error for missing query")
	}
}

func TestGetPost(t *testing.T) {
	srv := testServer(t)

	res := callTool(t, srv, "get_post", map[string]any{"slug": "kanto-tokyo-solo"})
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(res))
	}
	var got struct {
		Slug    string `json:"slug"`
		Title   string `json:"title"`
		Content string `json:"content"`
		Excerpt string `json:"excerpt"`
	}
	if err := json.Unmarshal([]byte(resultText(res)), &got); err != nil {
		t.Fatal(err)
	}
	if got.Title != "Tokyo Solo" {
		t.Errorf("title = %q", got.Title)
	}
	if !strings.Contains(got.Content, "Body of Tokyo Solo") {
		t.Errorf("content = %q", got.Content)
	}
	if got.Excerpt != "Body of Tokyo Solo." {
		t.Errorf("excerpt = %q", got.Excerpt)
	}
}

func TestGetPost_NotFound(t *testing.T) {
	srv := testServer(t)

	for _, slug := range []string{"nope", "draft"} {
		res := callTool(t, srv, "get_post", map[string]any{"slug": slug})
		if !res.IsError {
			t.Errorf("get_post(%q): expected error", slug)
		}
	}
}

func TestListPosts(t *testing.T) {
	srv := testServer(t)

	res := callTool(t, srv, "list_posts", map[string]any{})
	var all struct {
		Posts []summary `json:"posts"`
		Total int       `json:"total"`
	}
	if err := json.Unmarshal([]byte(resultText(res)), &all); err != nil {
		t.Fatal(err)
	}
	if all.Total != 2 || all.Posts[0].Slug != "kanto-tokyo-solo" {
		t.Errorf("list = %+v", all)
	}

	res = callTool(t, srv, "list_posts", map[string]any{"category": "gourmet", "limit": float64(1)})
	var gourmet struct {
		Posts []summary `json:"posts"`
		Total int       `json:"total"`
	}
	if err := json.Unmarshal([]byte(resultText(res)), &gourmet); err != nil {
		t.Fatal(err)
	}
	if gourmet.Total != 1 || gourmet.Posts[0].Slug != "kansai-osaka" {
		t.Errorf("gourmet = %+v", gourmet)
	}
}

func TestListPosts_UnknownCategory(t *testing.T) {
	srv := testServer(t)

	res := callTool(t, srv, "list_posts", map[string]any{"category": "moon"})
	if !res.IsError {
		t.Fatal("expected error for unknown category")
	}
	if !strings.Contains(resultText(res), "list_categories") {
		t.Errorf("error text = %q", resultText(res))
	}
}

func TestListTags(t *testing.T) {
	srv := testServer(t)

	res := callTool(t, srv, "list_tags", nil)
	var tags []string
	if err := json.Unmarshal([]byte(resultText(res)), &tags); err != nil {
		t.Fatal(err)
	}
	want := []string{"food", "solo", "tokyo"}
	if strings.Join(tags, ",") != strings.Join(want, ",") {
		t.Errorf("tags = %v, want %v", tags, want)
	}
}

func TestListCategories(t *testing.T) {
	srv := testServer(t)

	res := callTool(t, srv, "list_categories", nil)
	text := resultText(res)
	for _, want := range []string{`"slug": "domestic"`, `"slug": "gourmet"`, `"slug": "kanto"`} {
		if !strings.Contains(text, want) {
			t.Errorf("categories missing %s", want)
		}
	}
}

func TestGetFrontmatterContract(t *testing.T) {
	srv := testServer(t)

	res := callTool(t, srv, "get_frontmatter_contract", nil)
	text := resultText(res)
	if !strings.Contains(text, "Wanderlog Post Frontmatter") || !strings.Contains(text, "draft") {
		t.Error("contract should describe the frontmatter fields")
	}
}

func TestReadContractResource(t *testing.T) {
	srv := testServer(t)

	contents, err := srv.readContractResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != contractURI || tc.Text != FrontmatterContract {
		t.Errorf("resource = %+v", contents[0])
	}
}
