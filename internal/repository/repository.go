// Package repository declares the storage contracts the services depend on.
//
// Services only ever see these interfaces; internal/repository/sqlite is the
// production implementation. Implementations must:
//   - enforce uniqueness of username, email and slug atomically, reporting a
//     collision as an apperror of kind ErrConflict naming the field;
//   - make follow and favorite edge writes idempotent;
//   - return apperror.ErrNotFound for unknown rows.
package repository

import (
	"context"

	"github.com/sakif/conduit/internal/model"
)

// ListOptions pages a listing. Repositories apply them as given, with a zero
// Limit meaning no limit; page-size defaults and caps belong to the service.
type ListOptions struct {
	Limit  int
	Offset int
}

// ArticleFilter narrows an article listing. Every non-empty field must match.
// Author and FavoritedBy are usernames; FollowedBy is a user ID and restricts
// the listing to authors that user follows (the feed).
type ArticleFilter struct {
	Tag         string
	Author      string
	FavoritedBy string
	FollowedBy  string
	ListOptions
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type FollowRepository interface {
	Follow(ctx context.Context, followerID, followeeID string) error
	Unfollow(ctx context.Context, followerID, followeeID string) error
	// FollowingSet reports which of userIDs followerID follows.
	FollowingSet(ctx context.Context, followerID string, userIDs []string) (map[string]bool, error)
}

// ArticleRepository returns articles with TagList, Author (without
// Following) and FavoritesCount populated.
type ArticleRepository interface {
	Create(ctx context.Context, article *model.Article) error
	GetBySlug(ctx context.Context, slug string) (*model.Article, error)
	// List returns one page of matches, newest first, plus the total number
	// of matches ignoring Limit and Offset.
	List(ctx context.Context, filter ArticleFilter) ([]model.Article, int, error)
	Update(ctx context.Context, article *model.Article) error
	// Delete removes the article with its comments, favorite edges and tags
	// as one unit. Deleting an already deleted article is not an error.
	Delete(ctx context.Context, id string) error
	Tags(ctx context.Context) ([]string, error)
}

type FavoriteRepository interface {
	Add(ctx context.Context, userID, articleID string) error
	Remove(ctx context.Context, userID, articleID string) error
	// FavoritedSet reports which of articleIDs userID has favorited.
	FavoritedSet(ctx context.Context, userID string, articleIDs []string) (map[string]bool, error)
}

// CommentRepository returns comments with Author (without Following) populated.
type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, id int64) (*model.Comment, error)
	ListByArticle(ctx context.Context, articleID string) ([]model.Comment, error)
	Delete(ctx context.Context, id int64) error
}
