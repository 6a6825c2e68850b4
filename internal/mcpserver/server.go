// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the post index to LLM tooling via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/wanderlog/internal/apperr"
	"github.com/starford/wanderlog/internal/models"
	"github.com/starford/wanderlog/internal/plaintext"
	"github.com/starford/wanderlog/internal/postservice"
)

const (
	contractURI    = "wanderlog://frontmatter-format"
	excerptLength  = 200
	defaultListLen = 20
)

// Server wraps the MCP server with the post tools.
type Server struct {
	mcp *server.MCPServer
	svc *postservice.Service
}

// New creates an MCP server with every tool registered.
func New(svc *postservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Wanderlog",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_posts",
		mcp.WithDescription("Search posts by title, description, category, subcategory and tags. "+
			"Set fulltext to search post bodies instead."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
		mcp.WithBoolean("fulltext", mcp.Description("Search post bodies through the full-text index")),
	), s.searchPosts)

	s.mcp.AddTool(mcp.NewTool("get_post",
		mcp.WithDescription("Read one post, including its MDX body."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Post slug, e.g. kanto-tokyo-solo")),
	), s.getPost)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List posts newest first, optionally filtered."),
		mcp.WithString("category", mcp.Description("Category URL slug, e.g. domestic")),
		mcp.WithString("subcategory", mcp.Description("Subcategory URL slug, e.g. kansai")),
		mcp.WithString("tag", mcp.Description("Exact tag")),
		mcp.WithNumber("limit", mcp.Description("Maximum posts to return (default 20)")),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List every tag used by a published post."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List categories and subcategories with their URL slugs and post counts."),
	), s.listCategories)

	s.mcp.AddTool(mcp.NewTool("get_frontmatter_contract",
		mcp.WithDescription("Returns the frontmatter fields a post file may carry and how they are interpreted."),
	), s.getContract)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Post Frontmatter Format",
			mcp.WithResourceDescription("Frontmatter fields a post file may carry."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// summary is the compact post shape returned by list and search tools.
type summary struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Category    string   `json:"category,omitempty"`
	Subcategory string   `json:"subcategory,omitempty"`
	Tags        []string `json:"tags"`
	Description string   `json:"description,omitempty"`
}

// postDetail is a full post plus a plain-text excerpt of its body.
type postDetail struct {
	*models.Post
	Excerpt string `json:"excerpt"`
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func errorResult(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found")
	case errors.Is(err, apperr.ErrUnknownCategory):
		return mcp.NewToolResultError("unknown category; call list_categories for valid slugs")
	case errors.Is(err, apperr.ErrIndexUnavailable):
		return mcp.NewToolResultError("index unavailable: " + err.Error())
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) searchPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if req.GetBool("fulltext", false) {
		hits, err := s.svc.FullText(ctx, query, defaultListLen)
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(hits)
	}
	posts, err := s.svc.Search(ctx, query)
	if err != nil {
		return errorResult(err), nil
	}
	out := make([]summary, 0, len(posts))
	for _, p := range posts {
		out = append(out, summary{
			Slug:        p.Slug,
			Title:       p.Title,
			Date:        p.Date.Format("2006-01-02"),
			Category:    p.Category,
			Subcategory: p.Subcategory,
			Tags:        p.Tags,
			Description: p.Description,
		})
	}
	return jsonResult(out)
}

func (s *Server) getPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	post, err := s.svc.GetPost(ctx, slug)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(postDetail{
		Post:    post,
		Excerpt: plaintext.Excerpt(plaintext.FromMarkdown(post.Content), excerptLength),
	})
}

func (s *Server) listPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.svc.ListPosts(ctx, postservice.ListQuery{
		Category:    req.GetString("category", ""),
		Subcategory: req.GetString("subcategory", ""),
		Tag:         req.GetString("tag", ""),
		Limit:       req.GetInt("limit", defaultListLen),
	})
	if err != nil {
		return errorResult(err), nil
	}
	out := make([]summary, 0, len(list.Posts))
	for _, p := range list.Posts {
		out = append(out, summary{
			Slug:        p.Slug,
			Title:       p.Title,
			Date:        p.Date.Format("2006-01-02"),
			Category:    p.Category,
			Subcategory: p.Subcategory,
			Tags:        p.Tags,
		})
	}
	return jsonResult(map[string]any{"posts": out, "total": list.Total})
}

func (s *Server) listTags(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.svc.Tags(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(tags)
}

func (s *Server) listCategories(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cats, err := s.svc.Categories(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(cats)
}

func (s *Server) getContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FrontmatterContract), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     FrontmatterContract,
		},
	}, nil
}
