package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/model"
)

// TESTING WITH IN-MEMORY SQLITE:
// ":memory:" gives each test a fresh database that disappears when the
// connection closes. t.Cleanup closes it when the test (and its subtests) finish.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser creates a user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
	}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{Username: "jake", Email: "jake@jake.jake", PasswordHash: "hash"}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if user.ID == "" {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("Create() did not set user.CreatedAt")
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "jake")

	dup := &model.User{Username: "other", Email: "jake@example.com"}
	err := db.Users().Create(context.Background(), dup)

	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() error = %v, want ErrConflict", err)
	}
	if got := apperror.FieldErrors(err); len(got["email"]) == 0 {
		t.Errorf("FieldErrors = %v, want an email entry", got)
	}
}

func TestUserCreate_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "jake")

	dup := &model.User{Username: "jake", Email: "different@example.com"}
	err := db.Users().Create(context.Background(), dup)

	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() error = %v, want ErrConflict", err)
	}
	if got := apperror.FieldErrors(err); len(got["username"]) == 0 {
		t.Errorf("FieldErrors = %v, want a username entry", got)
	}
}

// =========================================================================
// GET TESTS
// =========================================================================

func TestUserGetters(t *testing.T) {
	db := newTestDB(t)
	bio := "I work at statefarm"
	created := &model.User{Username: "jake", Email: "jake@jake.jake", PasswordHash: "hash", Bio: &bio}
	if err := db.Users().Create(context.Background(), created); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	lookups := map[string]func() (*model.User, error){
		"GetByID":       func() (*model.User, error) { return db.Users().GetByID(context.Background(), created.ID) },
		"GetByEmail":    func() (*model.User, error) { return db.Users().GetByEmail(context.Background(), "jake@jake.jake") },
		"GetByUsername": func() (*model.User, error) { return db.Users().GetByUsername(context.Background(), "jake") },
	}

	for name, lookup := range lookups {
		t.Run(name, func(t *testing.T) {
			found, err := lookup()
			if err != nil {
				t.Fatalf("%s() error = %v", name, err)
			}
			if found.ID != created.ID {
				t.Errorf("ID = %q, want %q", found.ID, created.ID)
			}
			if found.Bio == nil || *found.Bio != bio {
				t.Errorf("Bio = %v, want %q", found.Bio, bio)
			}
			if found.Image != nil {
				t.Errorf("Image = %v, want nil", *found.Image)
			}
			if found.PasswordHash != "hash" {
				t.Errorf("PasswordHash = %q, want %q", found.PasswordHash, "hash")
			}
		})
	}
}

func TestUserGetByUsername_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetByUsername(context.Background(), "nobody")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByUsername() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestUserUpdate(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "jake")

	image := "https://i.stack.imgur.com/xHWG8.jpg"
	user.Image = &image
	user.Email = "new@example.com"
	if err := db.Users().Update(context.Background(), user); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	found, err := db.Users().GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Email != "new@example.com" {
		t.Errorf("Email = %q, want %q", found.Email, "new@example.com")
	}
	if found.Image == nil || *found.Image != image {
		t.Errorf("Image = %v, want %q", found.Image, image)
	}
}

func TestUserUpdate_TakenUsername(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "jake")
	other := createTestUser(t, db, "celeb")

	other.Username = "jake"
	err := db.Users().Update(context.Background(), other)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Update() error = %v, want ErrConflict", err)
	}
}

func TestUserUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Users().Update(context.Background(), &model.User{ID: "missing", Username: "x", Email: "x@x.x"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}
