package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/auth"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/service"
)

// CommentService is the subset of *service.CommentService the handler calls.
type CommentService interface {
	Create(ctx context.Context, userID, slug string, in service.CommentInput) (*model.Comment, error)
	List(ctx context.Context, slug, viewerID string) ([]model.Comment, error)
	Delete(ctx context.Context, userID, slug string, id int64) error
}

// CommentHandler serves /articles/{slug}/comments.
type CommentHandler struct {
	comments CommentService
	logger   *slog.Logger
}

// NewCommentHandler creates a CommentHandler.
func NewCommentHandler(comments CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, logger: logger}
}

type commentRequest struct {
	Comment struct {
		Body *string `json:"body"`
	} `json:"comment"`
}

type commentResponse struct {
	Comment *model.Comment `json:"comment"`
}

type commentsResponse struct {
	Comments []model.Comment `json:"comments"`
}

// HandleList returns an article's comments, oldest first.
//
// HTTP: GET /api/articles/{slug}/comments
func (h *CommentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	comments, err := h.comments.List(r.Context(), chi.URLParam(r, "slug"), viewerID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if comments == nil {
		comments = []model.Comment{}
	}

	writeJSON(w, http.StatusOK, commentsResponse{Comments: comments})
}

// HandleCreate adds a comment.
//
// HTTP: POST /api/articles/{slug}/comments
// REQUEST BODY: {"comment":{"body":"..."}}
func (h *CommentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	comment, err := h.comments.Create(r.Context(), userID, chi.URLParam(r, "slug"), service.CommentInput{
		Body: req.Comment.Body,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, commentResponse{Comment: comment})
}

// HandleDelete removes a comment.
//
// HTTP: DELETE /api/articles/{slug}/comments/{id} → 204 No Content
func (h *CommentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Comment IDs are integers; anything else cannot name a comment.
		writeError(w, h.logger, apperror.NotFound("comment", raw))
		return
	}

	if err := h.comments.Delete(r.Context(), userID, chi.URLParam(r, "slug"), id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
