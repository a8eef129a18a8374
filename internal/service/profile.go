package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/repository"
)

// ProfileService serves public profiles and the follow graph.
type ProfileService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
	logger  *slog.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(users repository.UserRepository, follows repository.FollowRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		users:   users,
		follows: follows,
		logger:  logger,
	}
}

// Get returns username's profile as seen by viewerID ("" for anonymous).
func (s *ProfileService) Get(ctx context.Context, username, viewerID string) (*model.Profile, error) {
	target, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service/profile: loading %q: %w", username, err)
	}

	flags, err := followingFlags(ctx, s.follows, viewerID, []string{target.ID})
	if err != nil {
		return nil, err
	}

	profile := target.Profile()
	profile.Following = flags[target.ID]
	return &profile, nil
}

// Follow makes viewerID follow username. Following someone already followed
// succeeds without change.
func (s *ProfileService) Follow(ctx context.Context, viewerID, username string) (*model.Profile, error) {
	target, err := s.target(ctx, viewerID, username)
	if err != nil {
		return nil, err
	}

	if err := s.follows.Follow(ctx, viewerID, target.ID); err != nil {
		return nil, fmt.Errorf("service/profile: following %q: %w", username, err)
	}

	s.logger.Info("user followed",
		slog.String("followerID", viewerID),
		slog.String("followeeID", target.ID),
	)

	profile := target.Profile()
	profile.Following = true
	return &profile, nil
}

// Unfollow removes the follow edge. Unfollowing someone not followed succeeds
// without change.
func (s *ProfileService) Unfollow(ctx context.Context, viewerID, username string) (*model.Profile, error) {
	target, err := s.target(ctx, viewerID, username)
	if err != nil {
		return nil, err
	}

	if err := s.follows.Unfollow(ctx, viewerID, target.ID); err != nil {
		return nil, fmt.Errorf("service/profile: unfollowing %q: %w", username, err)
	}

	s.logger.Info("user unfollowed",
		slog.String("followerID", viewerID),
		slog.String("followeeID", target.ID),
	)

	profile := target.Profile()
	profile.Following = false
	return &profile, nil
}

// target resolves username for a follow change and rejects self-follows.
func (s *ProfileService) target(ctx context.Context, viewerID, username string) (*model.User, error) {
	if _, err := callerUser(ctx, s.users, viewerID); err != nil {
		return nil, err
	}

	target, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service/profile: loading %q: %w", username, err)
	}

	if target.ID == viewerID {
		return nil, apperror.InvalidOperation("username", "can't follow yourself")
	}
	return target, nil
}
