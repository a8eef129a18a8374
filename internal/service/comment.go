package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/repository"
	"github.com/sakif/conduit/internal/validation"
)

// CommentInput is the body of POST /articles/:slug/comments.
type CommentInput struct {
	Body *string
}

// CommentService owns comments on articles.
//
// Referential integrity lives here, not in the schema: a comment is only
// written after both its article and its author have been found.
type CommentService struct {
	comments repository.CommentRepository
	articles repository.ArticleRepository
	users    repository.UserRepository
	follows  repository.FollowRepository
	logger   *slog.Logger
}

// NewCommentService creates a CommentService.
func NewCommentService(
	comments repository.CommentRepository,
	articles repository.ArticleRepository,
	users repository.UserRepository,
	follows repository.FollowRepository,
	logger *slog.Logger,
) *CommentService {
	return &CommentService{
		comments: comments,
		articles: articles,
		users:    users,
		follows:  follows,
		logger:   logger,
	}
}

// Create adds a comment by userID to the article at slug.
func (s *CommentService) Create(ctx context.Context, userID, slug string, in CommentInput) (*model.Comment, error) {
	author, err := callerUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}

	article, err := s.articles.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("service/comment: loading article %q: %w", slug, err)
	}

	v := validation.New()
	v.Required("body", in.Body)
	if err := v.Err(); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		Body:      *in.Body,
		AuthorID:  author.ID,
		ArticleID: article.ID,
		Author:    author.Profile(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("service/comment: creating on %q: %w", slug, err)
	}

	s.logger.Info("comment created",
		slog.Int64("commentID", comment.ID),
		slog.String("slug", slug),
	)

	return comment, nil
}

// List returns the comments on slug oldest first, rendered for viewerID.
func (s *CommentService) List(ctx context.Context, slug, viewerID string) ([]model.Comment, error) {
	article, err := s.articles.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("service/comment: loading article %q: %w", slug, err)
	}

	comments, err := s.comments.ListByArticle(ctx, article.ID)
	if err != nil {
		return nil, fmt.Errorf("service/comment: listing on %q: %w", slug, err)
	}

	authorIDs := make([]string, len(comments))
	for i := range comments {
		authorIDs[i] = comments[i].AuthorID
	}
	following, err := followingFlags(ctx, s.follows, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		comments[i].Author.Following = following[comments[i].AuthorID]
	}

	return comments, nil
}

// Delete removes comment id from the article at slug. A comment that belongs
// to a different article is reported as not found. Only its author may
// delete it.
func (s *CommentService) Delete(ctx context.Context, userID, slug string, id int64) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	article, err := s.articles.GetBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("service/comment: loading article %q: %w", slug, err)
	}

	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("service/comment: loading comment %d: %w", id, err)
	}
	if comment.ArticleID != article.ID {
		return apperror.NotFound("comment", strconv.FormatInt(id, 10))
	}
	if comment.AuthorID != userID {
		return apperror.Forbidden("only the author can delete this comment")
	}

	if err := s.comments.Delete(ctx, id); err != nil {
		return fmt.Errorf("service/comment: deleting %d: %w", id, err)
	}

	s.logger.Info("comment deleted",
		slog.Int64("commentID", id),
		slog.String("slug", slug),
	)
	return nil
}
