package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/repository"
	"github.com/sakif/conduit/internal/validation"
)

// Validation constants.
const (
	MaxUsernameLength = 64
	MaxEmailLength    = 254
	MaxPasswordLength = 72 // bcrypt reads no further
)

// RegisterInput is the body of POST /users. Fields are pointers so "absent"
// and "empty" both fail the required check.
type RegisterInput struct {
	Username *string
	Email    *string
	Password *string
}

// LoginInput is the body of POST /users/login.
type LoginInput struct {
	Email    *string
	Password *string
}

// UserService owns registration, login and the current user's account.
type UserService struct {
	users  repository.UserRepository
	auth   *AuthService
	logger *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(users repository.UserRepository, authSvc *AuthService, logger *slog.Logger) *UserService {
	return &UserService{
		users:  users,
		auth:   authSvc,
		logger: logger,
	}
}

// Register validates in, rejects taken usernames/emails, stores the user with
// a bcrypt hash and returns it with a token.
//
// VALIDATION ORDER:
//  1. Field rules. Every violation is collected and returned together.
//  2. Uniqueness. Username and email are both checked so a client that
//     collides on both hears about both in one Conflict.
//  3. The insert itself. The UNIQUE constraints still decide a race between
//     two concurrent registrations; the loser gets the same Conflict kind.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	v := validation.New()
	v.Required("username", in.Username)
	if v.Required("email", in.Email) {
		v.Email("email", in.Email)
	}
	v.Required("password", in.Password)
	v.MaxLength("username", in.Username, MaxUsernameLength)
	v.MaxLength("email", in.Email, MaxEmailLength)
	checkPasswordLength(v, in.Password)
	if err := v.Err(); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(*in.Username)
	email := strings.TrimSpace(*in.Email)

	if err := s.checkAvailable(ctx, "", &username, &email); err != nil {
		return nil, err
	}

	hash, err := s.auth.HashPassword(*in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/user: hashing password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/user: creating %q: %w", username, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return s.auth.IssueToken(user)
}

// Login checks that both fields are present before looking at credentials,
// so an empty body reports both missing fields rather than "invalid".
func (s *UserService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	v := validation.New()
	v.Required("email", in.Email)
	v.Required("password", in.Password)
	if err := v.Err(); err != nil {
		return nil, err
	}

	user, err := s.auth.Authenticate(ctx, strings.TrimSpace(*in.Email), *in.Password)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return s.auth.IssueToken(user)
}

// Current returns the authenticated user with a fresh token.
//
// A valid token whose user no longer exists is treated as unauthenticated.
func (s *UserService) Current(ctx context.Context, userID string) (*AuthResult, error) {
	user, err := s.currentUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.auth.IssueToken(user)
}

// Update applies the present fields of patch to the authenticated user.
//
// Absent fields are left alone. Username, email and password may not be set
// to blank. An empty bio or image clears it to null. A changed username or
// email is checked for availability; a new password is re-hashed.
func (s *UserService) Update(ctx context.Context, userID string, patch model.UserPatch) (*AuthResult, error) {
	user, err := s.currentUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	v := validation.New()
	v.NotBlank("username", patch.Username)
	if v.NotBlank("email", patch.Email) {
		v.Email("email", patch.Email)
	}
	v.NotBlank("password", patch.Password)
	v.MaxLength("username", patch.Username, MaxUsernameLength)
	v.MaxLength("email", patch.Email, MaxEmailLength)
	checkPasswordLength(v, patch.Password)
	if err := v.Err(); err != nil {
		return nil, err
	}

	var newUsername, newEmail *string
	if patch.Username != nil {
		if u := strings.TrimSpace(*patch.Username); u != user.Username {
			newUsername = &u
		}
	}
	if patch.Email != nil {
		if e := strings.TrimSpace(*patch.Email); e != user.Email {
			newEmail = &e
		}
	}
	if err := s.checkAvailable(ctx, user.ID, newUsername, newEmail); err != nil {
		return nil, err
	}

	if newUsername != nil {
		user.Username = *newUsername
	}
	if newEmail != nil {
		user.Email = *newEmail
	}
	if patch.Password != nil {
		hash, err := s.auth.HashPassword(*patch.Password)
		if err != nil {
			return nil, fmt.Errorf("service/user: hashing password: %w", err)
		}
		user.PasswordHash = hash
	}
	if patch.Bio != nil {
		user.Bio = emptyToNil(*patch.Bio)
	}
	if patch.Image != nil {
		user.Image = emptyToNil(*patch.Image)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("service/user: updating %s: %w", user.ID, err)
	}

	s.logger.Info("user updated", slog.String("userID", user.ID))

	return s.auth.IssueToken(user)
}

func (s *UserService) currentUser(ctx context.Context, userID string) (*model.User, error) {
	return callerUser(ctx, s.users, userID)
}

// checkAvailable returns one Conflict naming every field already used by a
// user other than selfID. Nil arguments are skipped.
func (s *UserService) checkAvailable(ctx context.Context, selfID string, username, email *string) error {
	var taken []string

	if username != nil {
		other, err := s.users.GetByUsername(ctx, *username)
		switch {
		case err == nil && other.ID != selfID:
			taken = append(taken, "username")
		case err != nil && !errors.Is(err, apperror.ErrNotFound):
			return fmt.Errorf("service/user: checking username: %w", err)
		}
	}
	if email != nil {
		other, err := s.users.GetByEmail(ctx, *email)
		switch {
		case err == nil && other.ID != selfID:
			taken = append(taken, "email")
		case err != nil && !errors.Is(err, apperror.ErrNotFound):
			return fmt.Errorf("service/user: checking email: %w", err)
		}
	}

	if len(taken) > 0 {
		return apperror.Conflict("user", taken...)
	}
	return nil
}

func checkPasswordLength(v *validation.Validator, password *string) {
	if password != nil {
		v.Check(len(*password) <= MaxPasswordLength, "password",
			fmt.Sprintf("is too long (maximum is %d bytes)", MaxPasswordLength))
	}
}

func emptyToNil(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
