package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// ERROR FORMAT:
// Every error response with a body has the same shape:
//
//	{"errors": {"<field>": ["<message>", ...]}}
//
// Field-level failures (validation, taken username, bad credentials) key the
// messages by field. Errors that are about the request as a whole (not found,
// forbidden) use the key "body". 401 responses have no body at all.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/validation"
)

// maxBodyBytes caps request bodies; an article body is the largest payload.
const maxBodyBytes = 1 << 20

// ErrorResponse is the error envelope returned by all API endpoints.
type ErrorResponse struct {
	Errors map[string][]string `json:"errors"`
}

// writeJSON sends a JSON response with the given status code.
//
// Headers and status must be written before the body: once Encode writes,
// any later header change is silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and error body.
//
//	ErrValidation, ErrConflict,
//	ErrInvalidCredentials, ErrInvalidOperation → 422, field map
//	ErrUnauthenticated                         → 401, no body
//	ErrForbidden                               → 403, {"body": [message]}
//	ErrNotFound                                → 404, {"body": [message]}
//	anything else                              → 500, generic message
//
// errors.Is walks the whole chain, so a service error like
// fmt.Errorf("service/article: loading %q: %w", slug, apperror.NotFound(...))
// still maps to 404.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		// Never expose internal details: the raw message may contain SQL or paths.
		logger.Error("internal error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, bodyError("An internal error occurred"))
		return
	}

	switch {
	case errors.Is(err, apperror.ErrUnauthenticated):
		w.WriteHeader(http.StatusUnauthorized)

	case errors.Is(err, apperror.ErrValidation),
		errors.Is(err, apperror.ErrConflict),
		errors.Is(err, apperror.ErrInvalidCredentials),
		errors.Is(err, apperror.ErrInvalidOperation):
		fields := appErr.Fields
		if len(fields) == 0 {
			fields = map[string][]string{"body": {appErr.Message}}
		}
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Errors: fields})

	case errors.Is(err, apperror.ErrForbidden):
		writeJSON(w, http.StatusForbidden, bodyError(appErr.Message))

	case errors.Is(err, apperror.ErrNotFound):
		writeJSON(w, http.StatusNotFound, bodyError(appErr.Message))

	default:
		logger.Error("unmapped application error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, bodyError("An internal error occurred"))
	}
}

func bodyError(message string) ErrorResponse {
	return ErrorResponse{Errors: map[string][]string{"body": {message}}}
}

// decodeJSON reads the request body into dst. An empty body leaves dst at
// its zero value, so a missing envelope surfaces as "can't be blank" on
// every required field rather than as a parse error.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperror.ValidationFailed("body", fmt.Sprintf("is not valid JSON (%v)", err))
	}
	return nil
}

// pageParams reads ?limit= and ?offset=. Absent values are returned as 0;
// the service applies defaults and bounds.
func pageParams(r *http.Request) (limit, offset int, err error) {
	v := validation.New()
	limit = intParam(v, r, "limit")
	offset = intParam(v, r, "offset")
	return limit, offset, v.Err()
}

func intParam(v *validation.Validator, r *http.Request, name string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	v.Check(err == nil, name, "is not a number")
	return n
}
