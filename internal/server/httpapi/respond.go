package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/interntrack/internal/common"
)

const maxJSONBody = 1 << 20

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// decodeJSON reads a bounded JSON body into dst. Malformed input is a
// validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return common.NewValidationError("", "request body is empty")
		}
		return common.NewValidationError("", "request body is not valid JSON")
	}
	return nil
}

// statusFor maps a service error to an HTTP status and client message.
// Unknown errors become a generic 500; their detail only goes to the log.
func statusFor(err error, notFound string) (int, string) {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error()
	case errors.Is(err, common.ErrDuplicateEmail):
		return http.StatusConflict, "user already exists"
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, common.ErrMissingToken):
		return http.StatusUnauthorized, "not authorized, no token"
	case errors.Is(err, common.ErrTokenInvalid), errors.Is(err, common.ErrUserNotFound):
		return http.StatusUnauthorized, "not authorized, token failed"
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, "not authorized"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, notFound
	default:
		return http.StatusInternalServerError, "server error"
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	status, msg := statusFor(err, notFound)
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, msg)
}
