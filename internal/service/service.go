// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take repository interfaces, never *sqlite.DB, and know nothing
// about HTTP. They return apperror kinds; the handler maps kinds to status
// codes.
//
// IDENTITY:
// The caller's user ID is always an explicit argument. An empty string means
// an anonymous caller. Services never read identity from the context, so the
// same method can be called from a handler, the seed command, or a test.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/repository"
)

// Paging limits for article listings.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// requireUser returns apperror.ErrUnauthenticated for anonymous callers.
func requireUser(userID string) error {
	if userID == "" {
		return apperror.Unauthenticated()
	}
	return nil
}

// callerUser loads the authenticated caller. Every write that records the
// caller as an author, follower or favoriter goes through here first: a
// token can outlive its user (tokens need not expire), and such a token is
// treated as no token at all.
func callerUser(ctx context.Context, users repository.UserRepository, userID string) (*model.User, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthenticated()
		}
		return nil, fmt.Errorf("service: loading user %s: %w", userID, err)
	}
	return user, nil
}

// followingFlags reports which of authorIDs the viewer follows. Anonymous
// viewers follow nobody.
func followingFlags(ctx context.Context, follows repository.FollowRepository, viewerID string, authorIDs []string) (map[string]bool, error) {
	if viewerID == "" || len(authorIDs) == 0 {
		return map[string]bool{}, nil
	}
	set, err := follows.FollowingSet(ctx, viewerID, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("service: loading follow flags: %w", err)
	}
	return set, nil
}

// clampPage applies the default and maximum page size and floors the offset
// at zero.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
