package api

import (
	"github.com/starford/wanderlog/internal/index"
	"github.com/starford/wanderlog/internal/models"
	"github.com/starford/wanderlog/internal/postservice"
)

// Post is the post response type (aliased from the domain layer).
type Post = models.Post

// PostListResponse wraps paginated post listings.
type PostListResponse = postservice.PostList

// PostsResponse wraps an unpaged list of posts.
type PostsResponse struct {
	Posts []Post `json:"posts" validate:"required"`
}

// SearchResponse wraps metadata search results.
type SearchResponse struct {
	Results []Post `json:"results" validate:"required"`
}

// FullTextResponse wraps body search hits.
type FullTextResponse struct {
	Results []index.SearchHit `json:"results" validate:"required"`
}

// TagsResponse lists every distinct tag.
type TagsResponse struct {
	Tags []string `json:"tags" validate:"required"`
}

// CategoriesResponse lists the taxonomy with post counts.
type CategoriesResponse struct {
	Categories []postservice.CategorySummary `json:"categories" validate:"required"`
}

// IndexStatusResponse describes the current snapshot.
type IndexStatusResponse = postservice.IndexStatus
