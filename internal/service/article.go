package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/repository"
	"github.com/sakif/conduit/internal/validation"
)

const (
	MaxTitleLength = 255
	MaxTagLength   = 64

	// maxSlugAttempts bounds the insert retries when a slug is taken.
	maxSlugAttempts = 5
	// slugSuffixLength is how many trailing characters of a fresh xid are
	// appended to a colliding slug. The tail of an xid holds its per-process
	// counter, so two suffixes made by one process never repeat.
	slugSuffixLength = 8
)

// CreateArticleInput is the body of POST /articles.
type CreateArticleInput struct {
	Title       *string
	Description *string
	Body        *string
	TagList     []string
}

// ListFilter selects articles for GET /articles. Non-empty filters combine
// with AND.
type ListFilter struct {
	Tag         string
	Author      string
	FavoritedBy string
	Limit       int
	Offset      int
}

// ArticleList is one page of articles plus the total number of matches.
type ArticleList struct {
	Articles []model.Article
	Count    int
}

// ArticleService owns articles, their slugs and tags, listings and the feed.
//
// It reads the favorite and follow edges to render viewer-relative flags
// but never writes them. Users are read to check that an author exists.
type ArticleService struct {
	articles  repository.ArticleRepository
	users     repository.UserRepository
	favorites repository.FavoriteRepository
	follows   repository.FollowRepository
	logger    *slog.Logger
}

// NewArticleService creates an ArticleService.
func NewArticleService(
	articles repository.ArticleRepository,
	users repository.UserRepository,
	favorites repository.FavoriteRepository,
	follows repository.FollowRepository,
	logger *slog.Logger,
) *ArticleService {
	return &ArticleService{
		articles:  articles,
		users:     users,
		favorites: favorites,
		follows:   follows,
		logger:    logger,
	}
}

// Create validates in and stores a new article authored by userID.
//
// SLUG ASSIGNMENT:
// The slug is the lowercase-hyphenated title. When it is taken, the insert
// is retried with "-<suffix>" appended, where the suffix comes from a fresh
// xid. The UNIQUE constraint on articles.slug is what detects the collision,
// so two concurrent creates with the same title both succeed with distinct
// slugs. A title with no letters or digits gets a bare xid as its slug.
func (s *ArticleService) Create(ctx context.Context, userID string, in CreateArticleInput) (*model.Article, error) {
	author, err := callerUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}

	v := validation.New()
	v.Required("title", in.Title)
	v.Required("description", in.Description)
	v.Required("body", in.Body)
	v.MaxLength("title", in.Title, MaxTitleLength)
	checkTags(v, in.TagList)
	if err := v.Err(); err != nil {
		return nil, err
	}

	article := &model.Article{
		Title:       strings.TrimSpace(*in.Title),
		Description: strings.TrimSpace(*in.Description),
		Body:        *in.Body,
		TagList:     normalizeTags(in.TagList),
		AuthorID:    author.ID,
	}

	base := Slugify(article.Title)
	for attempt := 1; ; attempt++ {
		article.Slug = slugCandidate(base, attempt)

		err := s.articles.Create(ctx, article)
		if err == nil {
			break
		}
		if !errors.Is(err, apperror.ErrConflict) || attempt >= maxSlugAttempts {
			return nil, fmt.Errorf("service/article: creating %q: %w", article.Slug, err)
		}
		s.logger.Debug("slug taken, retrying",
			slog.String("slug", article.Slug),
			slog.Int("attempt", attempt),
		)
	}

	s.logger.Info("article created",
		slog.String("slug", article.Slug),
		slog.String("authorID", userID),
	)

	return s.Get(ctx, article.Slug, userID)
}

// Get returns the article at slug rendered for viewerID.
func (s *ArticleService) Get(ctx context.Context, slug, viewerID string) (*model.Article, error) {
	article, err := s.articles.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("service/article: loading %q: %w", slug, err)
	}

	articles := []model.Article{*article}
	if err := s.render(ctx, viewerID, articles); err != nil {
		return nil, err
	}
	return &articles[0], nil
}

// List returns one page of articles matching f, newest first.
func (s *ArticleService) List(ctx context.Context, f ListFilter, viewerID string) (*ArticleList, error) {
	limit, offset := clampPage(f.Limit, f.Offset)
	return s.list(ctx, viewerID, repository.ArticleFilter{
		Tag:         f.Tag,
		Author:      f.Author,
		FavoritedBy: f.FavoritedBy,
		ListOptions: repository.ListOptions{Limit: limit, Offset: offset},
	})
}

// Feed returns articles written by users that userID follows, newest first.
func (s *ArticleService) Feed(ctx context.Context, userID string, limit, offset int) (*ArticleList, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	return s.list(ctx, userID, repository.ArticleFilter{
		FollowedBy:  userID,
		ListOptions: repository.ListOptions{Limit: limit, Offset: offset},
	})
}

func (s *ArticleService) list(ctx context.Context, viewerID string, filter repository.ArticleFilter) (*ArticleList, error) {
	articles, total, err := s.articles.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service/article: listing: %w", err)
	}
	if err := s.render(ctx, viewerID, articles); err != nil {
		return nil, err
	}
	return &ArticleList{Articles: articles, Count: total}, nil
}

// Update applies the present fields of patch. Only the author may update.
// The slug stays what it was at creation even when the title changes.
func (s *ArticleService) Update(ctx context.Context, userID, slug string, patch model.ArticlePatch) (*model.Article, error) {
	article, err := s.owned(ctx, userID, slug, "update")
	if err != nil {
		return nil, err
	}

	v := validation.New()
	v.NotBlank("title", patch.Title)
	v.NotBlank("description", patch.Description)
	v.NotBlank("body", patch.Body)
	v.MaxLength("title", patch.Title, MaxTitleLength)
	if patch.TagList != nil {
		checkTags(v, *patch.TagList)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if patch.Title != nil {
		article.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		article.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Body != nil {
		article.Body = *patch.Body
	}
	if patch.TagList != nil {
		article.TagList = normalizeTags(*patch.TagList)
	}

	if err := s.articles.Update(ctx, article); err != nil {
		return nil, fmt.Errorf("service/article: updating %q: %w", slug, err)
	}

	s.logger.Info("article updated", slog.String("slug", slug))

	return s.Get(ctx, slug, userID)
}

// Delete removes the article and its comments, favorites and tags. Only the
// author may delete.
func (s *ArticleService) Delete(ctx context.Context, userID, slug string) error {
	article, err := s.owned(ctx, userID, slug, "delete")
	if err != nil {
		return err
	}

	if err := s.articles.Delete(ctx, article.ID); err != nil {
		return fmt.Errorf("service/article: deleting %q: %w", slug, err)
	}

	s.logger.Info("article deleted", slog.String("slug", slug))
	return nil
}

// Tags returns every tag in use, ascending.
func (s *ArticleService) Tags(ctx context.Context) ([]string, error) {
	tags, err := s.articles.Tags(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/article: listing tags: %w", err)
	}
	return tags, nil
}

// owned loads the article at slug and checks that userID wrote it.
func (s *ArticleService) owned(ctx context.Context, userID, slug, action string) (*model.Article, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	article, err := s.articles.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("service/article: loading %q: %w", slug, err)
	}
	if article.AuthorID != userID {
		return nil, apperror.Forbidden(fmt.Sprintf("only the author can %s this article", action))
	}
	return article, nil
}

// render fills the viewer-relative flags: Favorited on each article and
// Following on each author. Both are false for an anonymous viewer.
func (s *ArticleService) render(ctx context.Context, viewerID string, articles []model.Article) error {
	if viewerID == "" || len(articles) == 0 {
		return nil
	}

	articleIDs := make([]string, len(articles))
	authorIDs := make([]string, len(articles))
	for i := range articles {
		articleIDs[i] = articles[i].ID
		authorIDs[i] = articles[i].AuthorID
	}

	favorited, err := s.favorites.FavoritedSet(ctx, viewerID, articleIDs)
	if err != nil {
		return fmt.Errorf("service/article: loading favorite flags: %w", err)
	}
	following, err := followingFlags(ctx, s.follows, viewerID, authorIDs)
	if err != nil {
		return err
	}

	for i := range articles {
		articles[i].Favorited = favorited[articles[i].ID]
		articles[i].Author.Following = following[articles[i].AuthorID]
	}
	return nil
}

// Slugify lowercases title and joins its runs of ASCII letters and digits
// with single hyphens: "How to train your dragon" → "how-to-train-your-dragon".
func Slugify(title string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// slugCandidate returns the slug to try on the given attempt (1-based).
func slugCandidate(base string, attempt int) string {
	if base == "" {
		return xid.New().String()
	}
	if attempt == 1 {
		return base
	}
	id := xid.New().String()
	return base + "-" + id[len(id)-slugSuffixLength:]
}

// normalizeTags trims, drops empties, de-duplicates and sorts.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

func checkTags(v *validation.Validator, tags []string) {
	for _, tag := range tags {
		v.MaxLength("tagList", &tag, MaxTagLength)
	}
}
