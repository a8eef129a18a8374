package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/conduit/internal/auth"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/service"
)

// ArticleService is the subset of *service.ArticleService the handler calls.
type ArticleService interface {
	Create(ctx context.Context, userID string, in service.CreateArticleInput) (*model.Article, error)
	Get(ctx context.Context, slug, viewerID string) (*model.Article, error)
	List(ctx context.Context, f service.ListFilter, viewerID string) (*service.ArticleList, error)
	Feed(ctx context.Context, userID string, limit, offset int) (*service.ArticleList, error)
	Update(ctx context.Context, userID, slug string, patch model.ArticlePatch) (*model.Article, error)
	Delete(ctx context.Context, userID, slug string) error
	Tags(ctx context.Context) ([]string, error)
}

// FavoriteService is the subset of *service.FavoriteService the handler calls.
type FavoriteService interface {
	Favorite(ctx context.Context, userID, slug string) (*model.Article, error)
	Unfavorite(ctx context.Context, userID, slug string) (*model.Article, error)
}

// ArticleHandler serves /articles, the feed, favorites and /tags.
type ArticleHandler struct {
	articles  ArticleService
	favorites FavoriteService
	logger    *slog.Logger
}

// NewArticleHandler creates an ArticleHandler.
func NewArticleHandler(articles ArticleService, favorites FavoriteService, logger *slog.Logger) *ArticleHandler {
	return &ArticleHandler{articles: articles, favorites: favorites, logger: logger}
}

type articleRequest struct {
	Article struct {
		Title       *string   `json:"title"`
		Description *string   `json:"description"`
		Body        *string   `json:"body"`
		TagList     *[]string `json:"tagList"`
	} `json:"article"`
}

type articleResponse struct {
	Article *model.Article `json:"article"`
}

type articlesResponse struct {
	Articles      []model.Article `json:"articles"`
	ArticlesCount int             `json:"articlesCount"`
}

type tagsResponse struct {
	Tags []string `json:"tags"`
}

func newArticlesResponse(list *service.ArticleList) articlesResponse {
	articles := list.Articles
	if articles == nil {
		articles = []model.Article{}
	}
	return articlesResponse{Articles: articles, ArticlesCount: list.Count}
}

// HandleList lists articles, newest first.
//
// HTTP: GET /api/articles?tag=&author=&favorited=&limit=&offset=
func (h *ArticleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	q := r.URL.Query()
	list, err := h.articles.List(r.Context(), service.ListFilter{
		Tag:         q.Get("tag"),
		Author:      q.Get("author"),
		FavoritedBy: q.Get("favorited"),
		Limit:       limit,
		Offset:      offset,
	}, viewerID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newArticlesResponse(list))
}

// HandleFeed lists articles by users the caller follows.
//
// HTTP: GET /api/articles/feed?limit=&offset=
func (h *ArticleHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	list, err := h.articles.Feed(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newArticlesResponse(list))
}

// HandleGet returns one article.
//
// HTTP: GET /api/articles/{slug}
func (h *ArticleHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	article, err := h.articles.Get(r.Context(), chi.URLParam(r, "slug"), viewerID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, articleResponse{Article: article})
}

// HandleCreate publishes an article.
//
// HTTP: POST /api/articles
// REQUEST BODY: {"article":{"title":"...","description":"...","body":"...","tagList":["..."]}}
func (h *ArticleHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req articleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	in := service.CreateArticleInput{
		Title:       req.Article.Title,
		Description: req.Article.Description,
		Body:        req.Article.Body,
	}
	if req.Article.TagList != nil {
		in.TagList = *req.Article.TagList
	}

	article, err := h.articles.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, articleResponse{Article: article})
}

// HandleUpdate changes any subset of title, description, body and tags.
//
// HTTP: PUT /api/articles/{slug}
func (h *ArticleHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req articleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	article, err := h.articles.Update(r.Context(), userID, chi.URLParam(r, "slug"), model.ArticlePatch{
		Title:       req.Article.Title,
		Description: req.Article.Description,
		Body:        req.Article.Body,
		TagList:     req.Article.TagList,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, articleResponse{Article: article})
}

// HandleDelete removes an article with its comments and favorites.
//
// HTTP: DELETE /api/articles/{slug} → 204 No Content
func (h *ArticleHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.articles.Delete(r.Context(), userID, chi.URLParam(r, "slug")); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleFavorite favorites an article.
//
// HTTP: POST /api/articles/{slug}/favorite
func (h *ArticleHandler) HandleFavorite(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	article, err := h.favorites.Favorite(r.Context(), userID, chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, articleResponse{Article: article})
}

// HandleUnfavorite removes a favorite.
//
// HTTP: DELETE /api/articles/{slug}/favorite
func (h *ArticleHandler) HandleUnfavorite(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	article, err := h.favorites.Unfavorite(r.Context(), userID, chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, articleResponse{Article: article})
}

// HandleTags lists every tag in use.
//
// HTTP: GET /api/tags
func (h *ArticleHandler) HandleTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.articles.Tags(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}

	writeJSON(w, http.StatusOK, tagsResponse{Tags: tags})
}
