// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database: it lives inside the Go binary as a single file.
// No separate database server to install or manage, and ":memory:" gives every
// test its own throwaway database.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go translation
// of the SQLite C code.
//
// STRUCTURE:
// DB owns the connection pool and the schema. Each table group gets its own small
// repository type (UserDB, ArticleDB, ...) handed out by an accessor:
//
//	db, _ := sqlite.New("data/conduit.db")
//	users := db.Users()       // implements repository.UserRepository
//	articles := db.Articles() // implements repository.ArticleRepository
//
// CONSISTENCY GUARANTEES THE SERVICES RELY ON:
//   - UNIQUE constraints on users.username, users.email and articles.slug decide
//     races between concurrent creations; the loser gets apperror.ErrConflict.
//   - Follow and favorite edges have composite primary keys and are written with
//     INSERT OR IGNORE, so duplicate toggles converge without error.
//   - Multi-row writes (article + tags, cascading article delete) run in one transaction.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	// DRIVER IMPORT:
	// The driver registers itself as "sqlite" in init(). We also need its
	// *Error type to recognise constraint violations, so it is imported by name
	// (aliased to avoid clashing with this package's own name).
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and hands out the table repositories.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/conduit.db" → file-based database (persistent)
//   - ":memory:"        → in-memory database (great for tests, lost on close)
//
// ONE CONNECTION:
// SQLite allows a single writer at a time, and every new connection to ":memory:"
// would open a brand new empty database. Capping the pool at one connection
// avoids both problems. The catch: while a *sql.Rows is open, no other query can
// run, so every reader in this package drains and closes its rows before issuing
// the next query.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight (file databases only;
	// SQLite silently keeps "memory" mode for ":memory:").
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Wait for a competing writer instead of failing immediately with SQLITE_BUSY.
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) Users() *UserDB         { return &UserDB{conn: db.conn} }
func (db *DB) Follows() *FollowDB     { return &FollowDB{conn: db.conn} }
func (db *DB) Articles() *ArticleDB   { return &ArticleDB{conn: db.conn} }
func (db *DB) Favorites() *FavoriteDB { return &FavoriteDB{conn: db.conn} }
func (db *DB) Comments() *CommentDB   { return &CommentDB{conn: db.conn} }

// migrate creates the schema.
//
// NO FOREIGN KEYS:
// Referential integrity (a comment needs an existing article, a follow needs an
// existing user) is checked by the services before writing, and the article
// delete removes its children explicitly. Leaving REFERENCES out lets fixtures
// be bulk-loaded in any order and keeps the cascade behaviour identical on any
// backend.
//
// CREATE ... IF NOT EXISTS keeps this safe to run on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			bio           TEXT,
			image         TEXT,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// A follow edge is a set member: the composite key forbids duplicates and
	// the CHECK forbids following yourself even for seeded data.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS follows (
			follower_id TEXT NOT NULL,
			followee_id TEXT NOT NULL,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (follower_id, followee_id),
			CHECK (follower_id <> followee_id)
		);
		CREATE INDEX IF NOT EXISTS idx_follows_followee_id ON follows(followee_id);
	`)
	if err != nil {
		return fmt.Errorf("creating follows table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS articles (
			id          TEXT PRIMARY KEY,
			slug        TEXT NOT NULL UNIQUE,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			body        TEXT NOT NULL DEFAULT '',
			author_id   TEXT NOT NULL,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_articles_author_id ON articles(author_id);
		CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles(created_at);

		CREATE TABLE IF NOT EXISTS article_tags (
			article_id TEXT NOT NULL,
			tag        TEXT NOT NULL,
			PRIMARY KEY (article_id, tag)
		);
		CREATE INDEX IF NOT EXISTS idx_article_tags_tag ON article_tags(tag);
	`)
	if err != nil {
		return fmt.Errorf("creating articles tables: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS favorites (
			user_id    TEXT NOT NULL,
			article_id TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, article_id)
		);
		CREATE INDEX IF NOT EXISTS idx_favorites_article_id ON favorites(article_id);
	`)
	if err != nil {
		return fmt.Errorf("creating favorites table: %w", err)
	}

	// AUTOINCREMENT (not just INTEGER PRIMARY KEY) guarantees comment IDs are
	// never reused after a delete, so they increase monotonically.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS comments (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			body       TEXT NOT NULL,
			author_id  TEXT NOT NULL,
			article_id TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_comments_article_id ON comments(article_id);
	`)
	if err != nil {
		return fmt.Errorf("creating comments table: %w", err)
	}

	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx, so helpers can run inside
// or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn inside a transaction, committing on success and rolling back
// on error.
func withTx(ctx context.Context, conn *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() // no-op after Commit

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint failure.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *moderncsqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// violatedColumns returns which of the given "table.column" names appear in a
// constraint error, stripped to the column name.
func violatedColumns(err error, columns ...string) []string {
	var out []string
	for _, c := range columns {
		if strings.Contains(err.Error(), c) {
			out = append(out, c[strings.IndexByte(c, '.')+1:])
		}
	}
	return out
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// stringArgs converts a []string into the []any that QueryContext wants.
func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// nullString is the inverse of nullable, for query arguments.
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// nullable converts a scanned NULL-able column into the model's *string.
func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
