package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/conduit/internal/repository"
)

var _ repository.FollowRepository = (*FollowDB)(nil)

// FollowDB stores follow edges as a set.
type FollowDB struct {
	conn *sql.DB
}

// Follow adds the edge. Adding an edge that already exists is a no-op:
// INSERT OR IGNORE swallows the primary-key collision, so two concurrent
// follow requests both succeed and leave exactly one row.
func (f *FollowDB) Follow(ctx context.Context, followerID, followeeID string) error {
	_, err := f.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO follows (follower_id, followee_id) VALUES (?, ?)`,
		followerID, followeeID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: following %s -> %s: %w", followerID, followeeID, err)
	}
	return nil
}

// Unfollow removes the edge. Removing a missing edge is a no-op.
func (f *FollowDB) Unfollow(ctx context.Context, followerID, followeeID string) error {
	_, err := f.conn.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`,
		followerID, followeeID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: unfollowing %s -> %s: %w", followerID, followeeID, err)
	}
	return nil
}

func (f *FollowDB) FollowingSet(ctx context.Context, followerID string, userIDs []string) (map[string]bool, error) {
	set := make(map[string]bool, len(userIDs))
	if followerID == "" || len(userIDs) == 0 {
		return set, nil
	}

	args := append([]any{followerID}, stringArgs(userIDs)...)
	rows, err := f.conn.QueryContext(ctx,
		`SELECT followee_id FROM follows
		 WHERE follower_id = ? AND followee_id IN (`+placeholders(len(userIDs))+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading follows of %s: %w", followerID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning follow row: %w", err)
		}
		set[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating follows: %w", err)
	}

	return set, nil
}
