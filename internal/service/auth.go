package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/auth"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/repository"
)

// AuthService checks credentials and issues tokens.
//
//	UserHandler (HTTP) → UserService → AuthService → UserRepository (DB)
//	                                              ↘ TokenService (JWT)
//	                                              ↘ PasswordService (bcrypt)
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles a user with a freshly issued token, which is what every
// /users and /user endpoint renders.
type AuthResult struct {
	User  *model.User
	Token string
}

// Authenticate returns the user owning email if password matches.
//
// An unknown email and a wrong password produce the same
// apperror.ErrInvalidCredentials, so the response never reveals which
// emails are registered.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: looking up %q: %w", email, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			// A malformed hash (e.g. a fixture loaded without one) is logged
			// but still answered as bad credentials.
			s.logger.Warn("password verification failed",
				slog.String("userID", user.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperror.InvalidCredentials()
	}

	return user, nil
}

// IssueToken signs a token for userID and bundles it with user.
func (s *AuthService) IssueToken(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// ValidateToken returns the user ID a token was issued for, or
// apperror.ErrUnauthenticated when the token is missing, malformed, expired
// or signed with another key.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", apperror.Unauthenticated()
	}
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		s.logger.Debug("token rejected", slog.String("error", err.Error()))
		return "", apperror.Unauthenticated()
	}
	return userID, nil
}

// HashPassword exposes the configured PasswordService to the user service.
func (s *AuthService) HashPassword(plaintext string) (string, error) {
	return s.passwords.Hash(plaintext)
}
