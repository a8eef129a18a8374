package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sakif/conduit/internal/auth"
	"github.com/sakif/conduit/internal/repository/sqlite"
)

// =========================================================================
// TEST ENVIRONMENT
// =========================================================================
//
// Services are tested against a real in-memory SQLite database rather than
// hand-written fakes for every repository: the rules under test (uniqueness,
// idempotent edges, cascades) are partly enforced by the schema, and a fake
// would have to reimplement them. Fakes are still used where a test needs
// storage behaviour a real database won't produce on demand (fakes_test.go).

type testEnv struct {
	db        *sqlite.DB
	auth      *AuthService
	users     *UserService
	profiles  *ProfileService
	articles  *ArticleService
	favorites *FavoriteService
	comments  *CommentService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", 0)
	require.NoError(t, err)

	logger := discardLogger()
	authSvc := NewAuthService(db.Users(), tokens, auth.NewPasswordServiceForTest(), logger)
	articles := NewArticleService(db.Articles(), db.Users(), db.Favorites(), db.Follows(), logger)

	return &testEnv{
		db:        db,
		auth:      authSvc,
		users:     NewUserService(db.Users(), authSvc, logger),
		profiles:  NewProfileService(db.Users(), db.Follows(), logger),
		articles:  articles,
		favorites: NewFavoriteService(db.Favorites(), articles, logger),
		comments:  NewCommentService(db.Comments(), db.Articles(), db.Users(), db.Follows(), logger),
	}
}

func strPtr(s string) *string { return &s }

// register creates a user with password "<username>pass" and returns its ID.
func (e *testEnv) register(t *testing.T, username string) string {
	t.Helper()
	res, err := e.users.Register(context.Background(), RegisterInput{
		Username: strPtr(username),
		Email:    strPtr(username + "@example.com"),
		Password: strPtr(username + "pass"),
	})
	require.NoError(t, err)
	return res.User.ID
}

// publish creates an article by userID and returns its slug.
func (e *testEnv) publish(t *testing.T, userID, title string, tags ...string) string {
	t.Helper()
	article, err := e.articles.Create(context.Background(), userID, CreateArticleInput{
		Title:       strPtr(title),
		Description: strPtr("about " + title),
		Body:        strPtr("body of " + title),
		TagList:     tags,
	})
	require.NoError(t, err)
	return article.Slug
}
