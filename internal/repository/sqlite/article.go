package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/repository"
)

var _ repository.ArticleRepository = (*ArticleDB)(nil)

// ArticleDB stores articles and their tags.
type ArticleDB struct {
	conn *sql.DB
}

// articleSelect reads an article with its author's public fields and its
// favorite count.
//
// LEFT JOIN (not JOIN) so an article whose author row is missing (possible
// with bulk-loaded fixtures) still shows up instead of silently vanishing.
//
// The favorite count is computed from the edge table on every read. There is
// no counter column that could drift out of sync with the edges.
const articleSelect = `
	SELECT a.id, a.slug, a.title, a.description, a.body, a.author_id,
	       COALESCE(u.username, ''), u.bio, u.image,
	       (SELECT COUNT(*) FROM favorites f WHERE f.article_id = a.id),
	       a.created_at, a.updated_at
	FROM articles a
	LEFT JOIN users u ON u.id = a.author_id`

// Create inserts the article and its tags in one transaction, filling in ID
// (when empty) and timestamps.
//
// A taken slug is reported as apperror.ErrConflict; the service reacts by
// retrying with a disambiguated slug. Because the whole insert is rolled back,
// a failed attempt leaves no orphaned tag rows behind.
func (a *ArticleDB) Create(ctx context.Context, article *model.Article) error {
	if article.ID == "" {
		article.ID = xid.New().String()
	}
	now := time.Now().UTC()
	article.CreatedAt = now
	article.UpdatedAt = now

	return withTx(ctx, a.conn, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO articles (id, slug, title, description, body, author_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			article.ID,
			article.Slug,
			article.Title,
			article.Description,
			article.Body,
			article.AuthorID,
			article.CreatedAt,
			article.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict("article", "slug")
			}
			return fmt.Errorf("sqlite: inserting article %q: %w", article.Slug, err)
		}
		return insertTags(ctx, tx, article.ID, article.TagList)
	})
}

// GetBySlug retrieves one article. Returns apperror.ErrNotFound for unknown slugs.
func (a *ArticleDB) GetBySlug(ctx context.Context, slug string) (*model.Article, error) {
	article, err := scanArticle(a.conn.QueryRowContext(ctx,
		articleSelect+` WHERE a.slug = ?`, slug,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("article", slug)
		}
		return nil, fmt.Errorf("sqlite: getting article %q: %w", slug, err)
	}

	articles := []model.Article{*article}
	if err := loadTags(ctx, a.conn, articles); err != nil {
		return nil, err
	}
	return &articles[0], nil
}

// List returns one page of articles matching filter, newest first.
//
// ORDERING:
// created_at DESC, then rowid DESC. rowid grows with every insert, so rows
// created in the same instant still come out in a fixed order (latest
// insert first) instead of whatever order SQLite happens to scan them.
//
// The total ignores Limit/Offset so clients can render page counts.
func (a *ArticleDB) List(ctx context.Context, filter repository.ArticleFilter) ([]model.Article, int, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	where, args := articleWhere(filter)

	var total int
	err := a.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM articles a LEFT JOIN users u ON u.id = a.author_id`+where,
		args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting articles: %w", err)
	}

	articles, err := a.queryArticles(ctx,
		articleSelect+where+` ORDER BY a.created_at DESC, a.rowid DESC LIMIT ? OFFSET ?`,
		append(args, limit, filter.Offset)...,
	)
	if err != nil {
		return nil, 0, err
	}

	// Tags are loaded only after queryArticles has closed its rows: with a
	// single pooled connection, a second query while rows are open would block.
	if err := loadTags(ctx, a.conn, articles); err != nil {
		return nil, 0, err
	}

	return articles, total, nil
}

// articleWhere builds the conjunctive WHERE clause for filter.
func articleWhere(filter repository.ArticleFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.Tag != "" {
		clauses = append(clauses, `a.id IN (SELECT article_id FROM article_tags WHERE tag = ?)`)
		args = append(args, filter.Tag)
	}
	if filter.Author != "" {
		clauses = append(clauses, `u.username = ?`)
		args = append(args, filter.Author)
	}
	if filter.FavoritedBy != "" {
		clauses = append(clauses, `a.id IN (
			SELECT f.article_id FROM favorites f
			JOIN users fu ON fu.id = f.user_id
			WHERE fu.username = ?)`)
		args = append(args, filter.FavoritedBy)
	}
	if filter.FollowedBy != "" {
		clauses = append(clauses, `a.author_id IN (SELECT followee_id FROM follows WHERE follower_id = ?)`)
		args = append(args, filter.FollowedBy)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (a *ArticleDB) queryArticles(ctx context.Context, query string, args ...any) ([]model.Article, error) {
	rows, err := a.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing articles: %w", err)
	}
	defer rows.Close()

	articles := make([]model.Article, 0)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning article row: %w", err)
		}
		articles = append(articles, *article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating articles: %w", err)
	}

	return articles, nil
}

// Update saves title, description, body and the full tag set. The slug is
// deliberately not part of the UPDATE.
func (a *ArticleDB) Update(ctx context.Context, article *model.Article) error {
	article.UpdatedAt = time.Now().UTC()

	return withTx(ctx, a.conn, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE articles
			 SET title = ?, description = ?, body = ?, updated_at = ?
			 WHERE id = ?`,
			article.Title,
			article.Description,
			article.Body,
			article.UpdatedAt,
			article.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating article %s: %w", article.ID, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return apperror.NotFound("article", article.Slug)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM article_tags WHERE article_id = ?`, article.ID); err != nil {
			return fmt.Errorf("sqlite: clearing tags of article %s: %w", article.ID, err)
		}
		return insertTags(ctx, tx, article.ID, article.TagList)
	})
}

// Delete removes an article and everything hanging off it.
//
// EXPLICIT CASCADE:
// The schema has no ON DELETE CASCADE. Children are removed here, leaf tables
// first, inside one transaction: either all of it happens or none does. Every
// statement is a plain DELETE ... WHERE, so running Delete again for an
// article that is already (partly) gone is harmless.
func (a *ArticleDB) Delete(ctx context.Context, id string) error {
	steps := []struct {
		what  string
		query string
	}{
		{"comments", `DELETE FROM comments WHERE article_id = ?`},
		{"favorites", `DELETE FROM favorites WHERE article_id = ?`},
		{"tags", `DELETE FROM article_tags WHERE article_id = ?`},
		{"article", `DELETE FROM articles WHERE id = ?`},
	}

	return withTx(ctx, a.conn, func(tx *sql.Tx) error {
		for _, step := range steps {
			if _, err := tx.ExecContext(ctx, step.query, id); err != nil {
				return fmt.Errorf("sqlite: deleting %s of article %s: %w", step.what, id, err)
			}
		}
		return nil
	})
}

// Tags returns every distinct tag in ascending order.
func (a *ArticleDB) Tags(ctx context.Context) ([]string, error) {
	rows, err := a.conn.QueryContext(ctx, `SELECT DISTINCT tag FROM article_tags ORDER BY tag`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tags: %w", err)
	}
	defer rows.Close()

	tags := make([]string, 0)
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tags: %w", err)
	}

	return tags, nil
}

func insertTags(ctx context.Context, q querier, articleID string, tags []string) error {
	for _, tag := range tags {
		if _, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO article_tags (article_id, tag) VALUES (?, ?)`,
			articleID, tag,
		); err != nil {
			return fmt.Errorf("sqlite: tagging article %s with %q: %w", articleID, tag, err)
		}
	}
	return nil
}

// loadTags fills TagList (ascending) for every article in one query.
// Articles without tags get an empty, non-nil slice so they render as [].
func loadTags(ctx context.Context, q querier, articles []model.Article) error {
	if len(articles) == 0 {
		return nil
	}

	index := make(map[string]int, len(articles))
	ids := make([]string, len(articles))
	for i := range articles {
		articles[i].TagList = []string{}
		index[articles[i].ID] = i
		ids[i] = articles[i].ID
	}

	rows, err := q.QueryContext(ctx,
		`SELECT article_id, tag FROM article_tags
		 WHERE article_id IN (`+placeholders(len(ids))+`)
		 ORDER BY tag`,
		stringArgs(ids)...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: loading tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var articleID, tag string
		if err := rows.Scan(&articleID, &tag); err != nil {
			return fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		if i, ok := index[articleID]; ok {
			articles[i].TagList = append(articles[i].TagList, tag)
		}
	}
	return rows.Err()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(s scanner) (*model.Article, error) {
	var (
		article    model.Article
		bio, image sql.NullString
	)
	if err := s.Scan(
		&article.ID,
		&article.Slug,
		&article.Title,
		&article.Description,
		&article.Body,
		&article.AuthorID,
		&article.Author.Username,
		&bio,
		&image,
		&article.FavoritesCount,
		&article.CreatedAt,
		&article.UpdatedAt,
	); err != nil {
		return nil, err
	}
	article.Author.Bio = nullable(bio)
	article.Author.Image = nullable(image)
	return &article, nil
}
