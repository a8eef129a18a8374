package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/repository"
)

func createTestArticle(t *testing.T, db *DB, author *model.User, slug string, tags ...string) *model.Article {
	t.Helper()
	article := &model.Article{
		Slug:        slug,
		Title:       slug,
		Description: "description of " + slug,
		Body:        "body of " + slug,
		AuthorID:    author.ID,
		TagList:     tags,
	}
	if err := db.Articles().Create(context.Background(), article); err != nil {
		t.Fatalf("failed to create test article: %v", err)
	}
	return article
}

func slugsOf(articles []model.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.Slug
	}
	return out
}

// =========================================================================
// CREATE / GET TESTS
// =========================================================================

func TestArticleCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	jake := createTestUser(t, db, "jake")
	created := createTestArticle(t, db, jake, "how-to-train-your-dragon", "dragons", "angularjs")

	found, err := db.Articles().GetBySlug(context.Background(), "how-to-train-your-dragon")
	require.NoError(t, err)

	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "jake", found.Author.Username)
	assert.Equal(t, []string{"angularjs", "dragons"}, found.TagList, "tags come back sorted")
	assert.Equal(t, 0, found.FavoritesCount)
	assert.False(t, found.CreatedAt.IsZero())
}

func TestArticleCreate_DuplicateSlug(t *testing.T) {
	db := newTestDB(t)
	jake := createTestUser(t, db, "jake")
	createTestArticle(t, db, jake, "same-slug", "a")

	dup := &model.Article{Slug: "same-slug", Title: "x", AuthorID: jake.ID, TagList: []string{"orphan"}}
	err := db.Articles().Create(context.Background(), dup)
	require.True(t, errors.Is(err, apperror.ErrConflict), "error = %v", err)

	// The failed insert rolled back, so its tag never landed.
	tags, err := db.Articles().Tags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, tags)
}

func TestArticleGetBySlug_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Articles().GetBySlug(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestArticleGetBySlug_EmptyTagListIsNotNil(t *testing.T) {
	db := newTestDB(t)
	jake := createTestUser(t, db, "jake")
	createTestArticle(t, db, jake, "untagged")

	found, err := db.Articles().GetBySlug(context.Background(), "untagged")
	require.NoError(t, err)
	assert.NotNil(t, found.TagList)
	assert.Empty(t, found.TagList)
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestArticleList_Filters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	jake := createTestUser(t, db, "jake")
	celeb := createTestUser(t, db, "celeb")

	createTestArticle(t, db, jake, "jake-1", "dragons")
	j2 := createTestArticle(t, db, jake, "jake-2", "training")
	c1 := createTestArticle(t, db, celeb, "celeb-1", "dragons")

	require.NoError(t, db.Favorites().Add(ctx, celeb.ID, j2.ID))
	require.NoError(t, db.Favorites().Add(ctx, celeb.ID, c1.ID))
	require.NoError(t, db.Follows().Follow(ctx, jake.ID, celeb.ID))

	tests := []struct {
		name   string
		filter repository.ArticleFilter
		want   []string
	}{
		{"no filter, newest first", repository.ArticleFilter{}, []string{"celeb-1", "jake-2", "jake-1"}},
		{"by tag", repository.ArticleFilter{Tag: "dragons"}, []string{"celeb-1", "jake-1"}},
		{"by author", repository.ArticleFilter{Author: "jake"}, []string{"jake-2", "jake-1"}},
		{"by favoriter", repository.ArticleFilter{FavoritedBy: "celeb"}, []string{"celeb-1", "jake-2"}},
		{"filters are conjunctive", repository.ArticleFilter{Tag: "dragons", Author: "jake"}, []string{"jake-1"}},
		{"unknown author", repository.ArticleFilter{Author: "nobody"}, []string{}},
		{"feed of jake", repository.ArticleFilter{FollowedBy: jake.ID}, []string{"celeb-1"}},
		{"feed of celeb (follows nobody)", repository.ArticleFilter{FollowedBy: celeb.ID}, []string{}},
		{"limit and offset", repository.ArticleFilter{ListOptions: repository.ListOptions{Limit: 1, Offset: 1}}, []string{"jake-2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			articles, _, err := db.Articles().List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, slugsOf(articles))
		})
	}
}

func TestArticleList_TotalIgnoresPaging(t *testing.T) {
	db := newTestDB(t)
	jake := createTestUser(t, db, "jake")
	for _, slug := range []string{"a", "b", "c"} {
		createTestArticle(t, db, jake, slug)
	}

	articles, total, err := db.Articles().List(context.Background(), repository.ArticleFilter{
		ListOptions: repository.ListOptions{Limit: 2},
	})
	require.NoError(t, err)
	assert.Len(t, articles, 2)
	assert.Equal(t, 3, total)
}

func TestArticleList_ZeroLimitIsUnbounded(t *testing.T) {
	db := newTestDB(t)
	jake := createTestUser(t, db, "jake")
	for i := 0; i < 25; i++ {
		createTestArticle(t, db, jake, fmt.Sprintf("post-%d", i))
	}

	articles, total, err := db.Articles().List(context.Background(), repository.ArticleFilter{})
	require.NoError(t, err)
	assert.Len(t, articles, 25, "page-size defaults are applied by the caller")
	assert.Equal(t, 25, total)
}

func TestArticleList_FavoritesCount(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	jake := createTestUser(t, db, "jake")
	celeb := createTestUser(t, db, "celeb")
	article := createTestArticle(t, db, jake, "popular")

	require.NoError(t, db.Favorites().Add(ctx, jake.ID, article.ID))
	require.NoError(t, db.Favorites().Add(ctx, celeb.ID, article.ID))
	require.NoError(t, db.Favorites().Add(ctx, celeb.ID, article.ID)) // duplicate is a no-op

	articles, _, err := db.Articles().List(ctx, repository.ArticleFilter{})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, 2, articles[0].FavoritesCount)

	set, err := db.Favorites().FavoritedSet(ctx, celeb.ID, []string{article.ID, "other"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{article.ID: true}, set)
}

// =========================================================================
// UPDATE / DELETE TESTS
// =========================================================================

func TestArticleUpdate_ReplacesTagsKeepsSlug(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	jake := createTestUser(t, db, "jake")
	article := createTestArticle(t, db, jake, "stable-slug", "old")

	article.Title = "A whole new title"
	article.TagList = []string{"new", "fresh"}
	require.NoError(t, db.Articles().Update(ctx, article))

	found, err := db.Articles().GetBySlug(ctx, "stable-slug")
	require.NoError(t, err)
	assert.Equal(t, "A whole new title", found.Title)
	assert.Equal(t, []string{"fresh", "new"}, found.TagList)
}

func TestArticleDelete_Cascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	jake := createTestUser(t, db, "jake")
	article := createTestArticle(t, db, jake, "doomed", "gone")
	keep := createTestArticle(t, db, jake, "survivor", "kept")

	comment := &model.Comment{Body: "first", AuthorID: jake.ID, ArticleID: article.ID}
	require.NoError(t, db.Comments().Create(ctx, comment))
	require.NoError(t, db.Favorites().Add(ctx, jake.ID, article.ID))

	require.NoError(t, db.Articles().Delete(ctx, article.ID))

	_, err := db.Articles().GetBySlug(ctx, "doomed")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	comments, err := db.Comments().ListByArticle(ctx, article.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	tags, err := db.Articles().Tags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, tags)

	set, err := db.Favorites().FavoritedSet(ctx, jake.ID, []string{article.ID})
	require.NoError(t, err)
	assert.Empty(t, set)

	// Running the cascade again is harmless.
	assert.NoError(t, db.Articles().Delete(ctx, article.ID))

	_, err = db.Articles().GetBySlug(ctx, keep.Slug)
	assert.NoError(t, err)
}

// =========================================================================
// COMMENT TESTS
// =========================================================================

func TestComments_OrderAndDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	jake := createTestUser(t, db, "jake")
	article := createTestArticle(t, db, jake, "discussed")

	first := &model.Comment{Body: "first", AuthorID: jake.ID, ArticleID: article.ID}
	second := &model.Comment{Body: "second", AuthorID: jake.ID, ArticleID: article.ID}
	require.NoError(t, db.Comments().Create(ctx, first))
	require.NoError(t, db.Comments().Create(ctx, second))
	assert.Greater(t, second.ID, first.ID)

	comments, err := db.Comments().ListByArticle(ctx, article.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Body)
	assert.Equal(t, "jake", comments[0].Author.Username)

	require.NoError(t, db.Comments().Delete(ctx, first.ID))
	err = db.Comments().Delete(ctx, first.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = db.Comments().GetByID(ctx, first.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

// =========================================================================
// FOLLOW TESTS
// =========================================================================

func TestFollow_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	jake := createTestUser(t, db, "jake")
	celeb := createTestUser(t, db, "celeb")

	require.NoError(t, db.Follows().Follow(ctx, jake.ID, celeb.ID))
	require.NoError(t, db.Follows().Follow(ctx, jake.ID, celeb.ID))

	set, err := db.Follows().FollowingSet(ctx, jake.ID, []string{celeb.ID})
	require.NoError(t, err)
	assert.True(t, set[celeb.ID])

	require.NoError(t, db.Follows().Unfollow(ctx, jake.ID, celeb.ID))
	require.NoError(t, db.Follows().Unfollow(ctx, jake.ID, celeb.ID))

	set, err = db.Follows().FollowingSet(ctx, jake.ID, []string{celeb.ID})
	require.NoError(t, err)
	assert.False(t, set[celeb.ID])
}

// =========================================================================
// SEED TESTS
// =========================================================================

func TestSeed_AnyOrderThenClear(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Articles and comments reference a user that only arrives in a later Seed call.
	require.NoError(t, db.Seed(ctx, Fixture{
		Articles: []model.Article{{ID: "a1", Slug: "articleslug-1", Title: "t", AuthorID: "u1", TagList: []string{"seeded"}}},
		Comments: []model.Comment{{ID: 1, Body: "hi", AuthorID: "u1", ArticleID: "a1"}},
	}))
	require.NoError(t, db.Seed(ctx, Fixture{
		Users: []model.User{{ID: "u1", Username: "jake", Email: "jake@jake.jake"}},
	}))

	article, err := db.Articles().GetBySlug(ctx, "articleslug-1")
	require.NoError(t, err)
	assert.Equal(t, "jake", article.Author.Username)

	require.NoError(t, db.Clear(ctx))
	_, err = db.Articles().GetBySlug(ctx, "articleslug-1")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	// Comment numbering restarts after Clear.
	require.NoError(t, db.Seed(ctx, Fixture{
		Comments: []model.Comment{{Body: "again", AuthorID: "u1", ArticleID: "a1"}},
	}))
	comments, err := db.Comments().ListByArticle(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, int64(1), comments[0].ID)
}
