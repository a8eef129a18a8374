package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/conduit/internal/auth"
	"github.com/sakif/conduit/internal/model"
)

// ProfileService is the subset of *service.ProfileService the handler calls.
type ProfileService interface {
	Get(ctx context.Context, username, viewerID string) (*model.Profile, error)
	Follow(ctx context.Context, viewerID, username string) (*model.Profile, error)
	Unfollow(ctx context.Context, viewerID, username string) (*model.Profile, error)
}

// ProfileHandler serves /profiles/{username} and its follow sub-resource.
type ProfileHandler struct {
	profiles ProfileService
	logger   *slog.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(profiles ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

type profileResponse struct {
	Profile *model.Profile `json:"profile"`
}

// HandleGet returns a profile; "following" is relative to the caller.
//
// HTTP: GET /api/profiles/{username}
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	profile, err := h.profiles.Get(r.Context(), chi.URLParam(r, "username"), viewerID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{Profile: profile})
}

// HandleFollow follows a user.
//
// HTTP: POST /api/profiles/{username}/follow
func (h *ProfileHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	profile, err := h.profiles.Follow(r.Context(), viewerID, chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{Profile: profile})
}

// HandleUnfollow unfollows a user.
//
// HTTP: DELETE /api/profiles/{username}/follow
func (h *ProfileHandler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	profile, err := h.profiles.Unfollow(r.Context(), viewerID, chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{Profile: profile})
}
