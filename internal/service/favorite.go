package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/repository"
)

// FavoriteService toggles favorite edges. Both directions are idempotent:
// favoriting twice leaves one edge, unfavoriting an unfavorited article is a
// no-op. The count shown on the article is always derived from the edges.
type FavoriteService struct {
	favorites repository.FavoriteRepository
	articles  *ArticleService
	logger    *slog.Logger
}

// NewFavoriteService creates a FavoriteService. The ArticleService resolves
// slugs and renders the resulting article.
func NewFavoriteService(favorites repository.FavoriteRepository, articles *ArticleService, logger *slog.Logger) *FavoriteService {
	return &FavoriteService{
		favorites: favorites,
		articles:  articles,
		logger:    logger,
	}
}

// Favorite marks slug as a favorite of userID and returns the article.
func (s *FavoriteService) Favorite(ctx context.Context, userID, slug string) (*model.Article, error) {
	article, err := s.resolve(ctx, userID, slug)
	if err != nil {
		return nil, err
	}

	if err := s.favorites.Add(ctx, userID, article.ID); err != nil {
		return nil, fmt.Errorf("service/favorite: favoriting %q: %w", slug, err)
	}

	s.logger.Info("article favorited",
		slog.String("slug", slug),
		slog.String("userID", userID),
	)

	return s.articles.Get(ctx, slug, userID)
}

// Unfavorite removes the favorite edge and returns the article.
func (s *FavoriteService) Unfavorite(ctx context.Context, userID, slug string) (*model.Article, error) {
	article, err := s.resolve(ctx, userID, slug)
	if err != nil {
		return nil, err
	}

	if err := s.favorites.Remove(ctx, userID, article.ID); err != nil {
		return nil, fmt.Errorf("service/favorite: unfavoriting %q: %w", slug, err)
	}

	s.logger.Info("article unfavorited",
		slog.String("slug", slug),
		slog.String("userID", userID),
	)

	return s.articles.Get(ctx, slug, userID)
}

func (s *FavoriteService) resolve(ctx context.Context, userID, slug string) (*model.Article, error) {
	if _, err := callerUser(ctx, s.articles.users, userID); err != nil {
		return nil, err
	}
	return s.articles.Get(ctx, slug, "")
}
