package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/conduit/internal/repository"
)

var _ repository.FavoriteRepository = (*FavoriteDB)(nil)

// FavoriteDB stores favorite edges as a set. There is no stored counter:
// favoritesCount is always COUNT(*) over this table (see articleSelect).
type FavoriteDB struct {
	conn *sql.DB
}

// Add is idempotent; see FollowDB.Follow.
func (f *FavoriteDB) Add(ctx context.Context, userID, articleID string) error {
	_, err := f.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO favorites (user_id, article_id) VALUES (?, ?)`,
		userID, articleID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: favoriting article %s for %s: %w", articleID, userID, err)
	}
	return nil
}

// Remove is idempotent.
func (f *FavoriteDB) Remove(ctx context.Context, userID, articleID string) error {
	_, err := f.conn.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND article_id = ?`,
		userID, articleID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: unfavoriting article %s for %s: %w", articleID, userID, err)
	}
	return nil
}

func (f *FavoriteDB) FavoritedSet(ctx context.Context, userID string, articleIDs []string) (map[string]bool, error) {
	set := make(map[string]bool, len(articleIDs))
	if userID == "" || len(articleIDs) == 0 {
		return set, nil
	}

	args := append([]any{userID}, stringArgs(articleIDs)...)
	rows, err := f.conn.QueryContext(ctx,
		`SELECT article_id FROM favorites
		 WHERE user_id = ? AND article_id IN (`+placeholders(len(articleIDs))+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading favorites of %s: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning favorite row: %w", err)
		}
		set[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating favorites: %w", err)
	}

	return set, nil
}
