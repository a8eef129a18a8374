package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/conduit/internal/model"
)

// Fixture is a bulk snapshot of the persisted state: the same five
// collections the schema stores. It is written straight into the tables,
// bypassing every service rule, so tests and the seed command can set up
// arbitrary state, including articles whose author is loaded later.
//
// Empty IDs are generated, zero timestamps become "now", and a Comment with
// ID 0 gets the next AUTOINCREMENT value. Users must carry a PasswordHash if
// they are expected to log in.
type Fixture struct {
	Users     []model.User
	Articles  []model.Article
	Comments  []model.Comment
	Favorites []model.FavoriteEdge
	Follows   []model.FollowEdge
}

// Seed inserts the fixture in one transaction. Users and articles are
// written with INSERT OR REPLACE and edges with INSERT OR IGNORE, so
// re-seeding rows that carry the same IDs converges. A user or article that
// arrives under a new ID replaces the row holding its username, email or
// slug, but tags and comments stored under the old ID are left behind; reuse
// IDs (as cmd/seed does) or Clear first. Comments without an ID are always
// added.
func (db *DB) Seed(ctx context.Context, f Fixture) error {
	now := time.Now().UTC()
	orNow := func(t time.Time) time.Time {
		if t.IsZero() {
			return now
		}
		return t
	}

	return withTx(ctx, db.conn, func(tx *sql.Tx) error {
		for i := range f.Users {
			u := &f.Users[i]
			if u.ID == "" {
				u.ID = xid.New().String()
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				u.ID, u.Username, u.Email, u.PasswordHash,
				nullString(u.Bio), nullString(u.Image),
				orNow(u.CreatedAt), orNow(u.UpdatedAt),
			); err != nil {
				return fmt.Errorf("sqlite: seeding user %q: %w", u.Username, err)
			}
		}

		for i := range f.Articles {
			a := &f.Articles[i]
			if a.ID == "" {
				a.ID = xid.New().String()
			}
			if a.Slug == "" {
				a.Slug = a.ID
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO articles (id, slug, title, description, body, author_id, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				a.ID, a.Slug, a.Title, a.Description, a.Body, a.AuthorID,
				orNow(a.CreatedAt), orNow(a.UpdatedAt),
			); err != nil {
				return fmt.Errorf("sqlite: seeding article %q: %w", a.Slug, err)
			}
			if err := insertTags(ctx, tx, a.ID, a.TagList); err != nil {
				return err
			}
		}

		for i := range f.Comments {
			c := &f.Comments[i]
			var id any // NULL lets AUTOINCREMENT pick the next id
			if c.ID != 0 {
				id = c.ID
			}
			result, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO comments (id, body, author_id, article_id, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				id, c.Body, c.AuthorID, c.ArticleID,
				orNow(c.CreatedAt), orNow(c.UpdatedAt),
			)
			if err != nil {
				return fmt.Errorf("sqlite: seeding comment on %s: %w", c.ArticleID, err)
			}
			if c.ID == 0 {
				if c.ID, err = result.LastInsertId(); err != nil {
					return fmt.Errorf("sqlite: reading seeded comment id: %w", err)
				}
			}
		}

		for _, fav := range f.Favorites {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO favorites (user_id, article_id) VALUES (?, ?)`,
				fav.UserID, fav.ArticleID,
			); err != nil {
				return fmt.Errorf("sqlite: seeding favorite %s/%s: %w", fav.UserID, fav.ArticleID, err)
			}
		}

		for _, fol := range f.Follows {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO follows (follower_id, followee_id) VALUES (?, ?)`,
				fol.FollowerID, fol.FolloweeID,
			); err != nil {
				return fmt.Errorf("sqlite: seeding follow %s/%s: %w", fol.FollowerID, fol.FolloweeID, err)
			}
		}

		return nil
	})
}

// Clear empties every table and restarts comment numbering, so a fixture
// loaded afterwards gets comment IDs from 1 again.
func (db *DB) Clear(ctx context.Context) error {
	return withTx(ctx, db.conn, func(tx *sql.Tx) error {
		for _, table := range []string{"comments", "favorites", "follows", "article_tags", "articles", "users"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return fmt.Errorf("sqlite: clearing %s: %w", table, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name = 'comments'`); err != nil {
			return fmt.Errorf("sqlite: resetting comment ids: %w", err)
		}
		return nil
	})
}
