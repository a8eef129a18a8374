package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/conduit/internal/auth"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/service"
)

// UserService is the subset of *service.UserService the handler calls.
// Accepting an interface lets tests substitute a stub.
type UserService interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, in service.LoginInput) (*service.AuthResult, error)
	Current(ctx context.Context, userID string) (*service.AuthResult, error)
	Update(ctx context.Context, userID string, patch model.UserPatch) (*service.AuthResult, error)
}

// UserHandler serves /users, /users/login and /user.
type UserHandler struct {
	users  UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// REQUEST AND RESPONSE SHAPES:
// Request fields are pointers so an absent field (nil) can be told apart
// from an empty one. Responses use the {"user": {...}} envelope.

type userRequest struct {
	User struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Bio      *string `json:"bio"`
		Image    *string `json:"image"`
	} `json:"user"`
}

type userBody struct {
	Email    string  `json:"email"`
	Token    string  `json:"token"`
	Username string  `json:"username"`
	Bio      *string `json:"bio"`
	Image    *string `json:"image"`
}

type userResponse struct {
	User userBody `json:"user"`
}

func newUserResponse(res *service.AuthResult) userResponse {
	return userResponse{User: userBody{
		Email:    res.User.Email,
		Token:    res.Token,
		Username: res.User.Username,
		Bio:      res.User.Bio,
		Image:    res.User.Image,
	}}
}

// HandleRegister creates an account.
//
// HTTP: POST /api/users
// REQUEST BODY: {"user":{"username":"jake","email":"jake@jake.jake","password":"jakejake"}}
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.users.Register(r.Context(), service.RegisterInput{
		Username: req.User.Username,
		Email:    req.User.Email,
		Password: req.User.Password,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(res))
}

// HandleLogin exchanges email and password for a token.
//
// HTTP: POST /api/users/login
// REQUEST BODY: {"user":{"email":"jake@jake.jake","password":"jakejake"}}
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.users.Login(r.Context(), service.LoginInput{
		Email:    req.User.Email,
		Password: req.User.Password,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(res))
}

// HandleCurrent returns the authenticated user.
//
// HTTP: GET /api/user
func (h *UserHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	res, err := h.users.Current(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(res))
}

// HandleUpdate changes any subset of the authenticated user's fields.
//
// HTTP: PUT /api/user
// REQUEST BODY: {"user":{"bio":"I like to skateboard","image":"https://..."}}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.users.Update(r.Context(), userID, model.UserPatch{
		Username: req.User.Username,
		Email:    req.User.Email,
		Password: req.User.Password,
		Bio:      req.User.Bio,
		Image:    req.User.Image,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(res))
}
