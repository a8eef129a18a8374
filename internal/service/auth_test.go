package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/model"
)

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.register(t, "jake")

	user, err := env.auth.Authenticate(ctx, "jake@example.com", "jakepass")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "jake@example.com", "nope"},
		{"unknown email", "nobody@example.com", "jakepass"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Authenticate(ctx, tt.email, tt.password)
			require.True(t, errors.Is(err, apperror.ErrInvalidCredentials), "error = %v", err)
			assert.Equal(t, map[string][]string{"email or password": {"is invalid"}}, apperror.FieldErrors(err))
		})
	}
}

func TestAuthenticate_SeededUserWithoutHash(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Fixtures may bypass registration and leave the hash empty.
	require.NoError(t, env.db.Users().Create(ctx, &model.User{Username: "seeded", Email: "seeded@example.com"}))

	_, err := env.auth.Authenticate(ctx, "seeded@example.com", "anything")
	assert.True(t, errors.Is(err, apperror.ErrInvalidCredentials))
}

func TestIssueAndValidateToken(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.auth.IssueToken(&model.User{ID: "user-123"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)

	userID, err := env.auth.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)

	for _, bad := range []string{"", "garbage", res.Token + "x"} {
		_, err := env.auth.ValidateToken(bad)
		assert.True(t, errors.Is(err, apperror.ErrUnauthenticated), "ValidateToken(%q) error = %v", bad, err)
	}
}
