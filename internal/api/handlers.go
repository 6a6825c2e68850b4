package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/wanderlog/internal/postservice"
)

const maxLimit = 100

// Handler holds API route handlers.
type Handler struct {
	svc *postservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *postservice.Service) *Handler {
	return &Handler{svc: svc}
}

// param returns a decoded URL parameter. Tags and slugs may arrive
// percent-encoded (e.g. "sake%20%26%20drinks").
func param(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// intQuery parses a non-negative integer query parameter; absent means 0.
func intQuery(r *http.Request, name string) (int, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func pageParams(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	limit, ok = intQuery(r, "limit")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("limit must be a non-negative integer"))
		return 0, 0, false
	}
	offset, ok = intQuery(r, "offset")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("offset must be a non-negative integer"))
		return 0, 0, false
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, offset, true
}

// ListPosts handles GET /api/posts.
//
//	@Summary		List posts, most recent first
//	@Tags			posts
//	@Produce		json
//	@Param			category	query		string	false	"Category slug"
//	@Param			subcategory	query		string	false	"Subcategory slug"
//	@Param			tag			query		string	false	"Exact tag"
//	@Param			limit		query		int		false	"Page size"
//	@Param			offset		query		int		false	"Page offset"
//	@Success		200			{object}	PostListResponse
//	@Failure		404			{object}	errResponse
//	@Failure		503			{object}	errResponse
//	@Router			/posts [get]
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pageParams(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	list, err := h.svc.ListPosts(r.Context(), postservice.ListQuery{
		Category:    q.Get("category"),
		Subcategory: q.Get("subcategory"),
		Tag:         q.Get("tag"),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Featured handles GET /api/featured.
//
//	@Summary		List featured posts
//	@Tags			posts
//	@Produce		json
//	@Success		200	{object}	PostsResponse
//	@Router			/featured [get]
func (h *Handler) Featured(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.Featured(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PostsResponse{Posts: posts})
}

// GetPost handles GET /api/posts/{slug}.
//
//	@Summary		Get a single post with its body
//	@Tags			posts
//	@Produce		json
//	@Param			slug	path		string	true	"Post slug"
//	@Success		200		{object}	Post
//	@Failure		404		{object}	errResponse
//	@Router			/posts/{slug} [get]
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.GetPost(r.Context(), param(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// Search handles GET /api/search. An empty query returns no results.
//
//	@Summary		Search post metadata
//	@Tags			search
//	@Produce		json
//	@Param			q	query		string	false	"Search text"
//	@Success		200	{object}	SearchResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: posts})
}

// FullText handles GET /api/search/fulltext.
//
//	@Summary		Full-text search over post bodies
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search text"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	FullTextResponse
//	@Failure		400		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Router			/search/fulltext [get]
func (h *Handler) FullText(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, ok := intQuery(r, "limit")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("limit must be a non-negative integer"))
		return
	}
	hits, err := h.svc.FullText(r.Context(), q, min(limit, maxLimit))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FullTextResponse{Results: hits})
}

// Tags handles GET /api/tags.
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.Tags(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TagsResponse{Tags: tags})
}

// PostsByTag handles GET /api/tags/{tag}/posts.
func (h *Handler) PostsByTag(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ByTag(r.Context(), param(r, "tag"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PostsResponse{Posts: posts})
}

// Categories handles GET /api/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CategoriesResponse{Categories: cats})
}

// PostsByCategory handles GET /api/categories/{category}/posts and
// GET /api/categories/{category}/{subcategory}/posts.
//
//	@Summary		List posts in a category
//	@Tags			categories
//	@Produce		json
//	@Param			category	path		string	true	"Category slug"
//	@Param			subcategory	path		string	false	"Subcategory slug"
//	@Success		200			{object}	PostsResponse
//	@Failure		404			{object}	errResponse
//	@Router			/categories/{category}/posts [get]
func (h *Handler) PostsByCategory(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ByCategory(r.Context(), param(r, "category"), param(r, "subcategory"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PostsResponse{Posts: posts})
}

// IndexStatus handles GET /api/index/status.
func (h *Handler) IndexStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// RefreshIndex handles POST /api/index/refresh.
//
//	@Summary		Force a rebuild of the index
//	@Tags			index
//	@Produce		json
//	@Success		200	{object}	IndexStatusResponse
//	@Failure		401	{object}	errResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/index/refresh [post]
func (h *Handler) RefreshIndex(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Refresh(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
