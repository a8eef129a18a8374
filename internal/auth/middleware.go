package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// contextKey is package-private so no other package can read or shadow the
// identity stored in a request context.
type contextKey string

const userIDKey contextKey = "userID"

// Accepted Authorization schemes. "Token" is what the Conduit front-ends send;
// "Bearer" is the standard scheme.
var authSchemes = []string{"Token", "Bearer"}

var errNoToken = errors.New("auth: no token in request")

// RequireAuth rejects requests without a valid token with 401 and an empty
// body. On success the user ID is stored in the request context.
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets
// the request through anonymously otherwise. Used on public reads, where a
// logged-in viewer additionally sees "following" and "favorited" flags.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, err := extractUserID(r, tokens); err == nil {
				r = r.WithContext(WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUserID returns a copy of ctx carrying the authenticated user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user's ID, or ("", false) for
// an anonymous request.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// extractUserID reads "Authorization: <scheme> <jwt>" and validates the token.
func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	token := tokenFromHeader(r.Header.Get("Authorization"))
	if token == "" {
		return "", errNoToken
	}
	return tokens.Validate(token)
}

// tokenFromHeader returns the token part of an Authorization header value, or
// "" when the scheme is missing or unknown. Scheme matching is case-insensitive.
func tokenFromHeader(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return ""
	}
	for _, s := range authSchemes {
		if strings.EqualFold(scheme, s) {
			return strings.TrimSpace(token)
		}
	}
	return ""
}
