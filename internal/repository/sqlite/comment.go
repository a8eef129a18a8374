package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/repository"
)

var _ repository.CommentRepository = (*CommentDB)(nil)

// CommentDB stores comments.
type CommentDB struct {
	conn *sql.DB
}

const commentSelect = `
	SELECT c.id, c.body, c.author_id, c.article_id,
	       COALESCE(u.username, ''), u.bio, u.image,
	       c.created_at, c.updated_at
	FROM comments c
	LEFT JOIN users u ON u.id = c.author_id`

// Create inserts the comment; the ID comes from SQLite's AUTOINCREMENT via
// LastInsertId.
func (c *CommentDB) Create(ctx context.Context, comment *model.Comment) error {
	now := time.Now().UTC()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	result, err := c.conn.ExecContext(ctx,
		`INSERT INTO comments (body, author_id, article_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		comment.Body,
		comment.AuthorID,
		comment.ArticleID,
		comment.CreatedAt,
		comment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting comment on article %s: %w", comment.ArticleID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading comment id: %w", err)
	}
	comment.ID = id

	return nil
}

func (c *CommentDB) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	comment, err := scanComment(c.conn.QueryRowContext(ctx, commentSelect+` WHERE c.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("comment", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting comment %d: %w", id, err)
	}
	return comment, nil
}

// ListByArticle returns an article's comments oldest first. IDs are assigned
// in insertion order, so ordering by id is ordering by creation.
func (c *CommentDB) ListByArticle(ctx context.Context, articleID string) ([]model.Comment, error) {
	rows, err := c.conn.QueryContext(ctx,
		commentSelect+` WHERE c.article_id = ? ORDER BY c.id ASC`,
		articleID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments of article %s: %w", articleID, err)
	}
	defer rows.Close()

	comments := make([]model.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		comments = append(comments, *comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}

	return comments, nil
}

// Delete removes one comment. Returns apperror.ErrNotFound if it is already gone.
func (c *CommentDB) Delete(ctx context.Context, id int64) error {
	result, err := c.conn.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting comment %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("comment", strconv.FormatInt(id, 10))
	}

	return nil
}

func scanComment(s scanner) (*model.Comment, error) {
	var (
		comment    model.Comment
		bio, image sql.NullString
	)
	if err := s.Scan(
		&comment.ID,
		&comment.Body,
		&comment.AuthorID,
		&comment.ArticleID,
		&comment.Author.Username,
		&bio,
		&image,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	); err != nil {
		return nil, err
	}
	comment.Author.Bio = nullable(bio)
	comment.Author.Image = nullable(image)
	return &comment, nil
}
