package service

import (
	"context"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/repository"
)

// =========================================================================
// FAKE REPOSITORIES
// =========================================================================
//
// A fake is an in-memory implementation of a repository interface. These
// exist only to drive code paths a real database cannot easily reach.

// alwaysTakenArticleRepo reports every insert as a slug collision, so
// the retry bound in ArticleService.Create can be observed.
type alwaysTakenArticleRepo struct {
	attempts int
	slugs    []string
}

var _ repository.ArticleRepository = (*alwaysTakenArticleRepo)(nil)

func (r *alwaysTakenArticleRepo) Create(_ context.Context, article *model.Article) error {
	r.attempts++
	r.slugs = append(r.slugs, article.Slug)
	return apperror.Conflict("article", "slug")
}

func (r *alwaysTakenArticleRepo) GetBySlug(_ context.Context, slug string) (*model.Article, error) {
	return nil, apperror.NotFound("article", slug)
}

func (r *alwaysTakenArticleRepo) List(context.Context, repository.ArticleFilter) ([]model.Article, int, error) {
	return []model.Article{}, 0, nil
}

func (r *alwaysTakenArticleRepo) Update(_ context.Context, article *model.Article) error {
	return apperror.NotFound("article", article.Slug)
}

func (r *alwaysTakenArticleRepo) Delete(context.Context, string) error { return nil }

func (r *alwaysTakenArticleRepo) Tags(context.Context) ([]string, error) { return []string{}, nil }
