package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
)

// envelope wraps every response body.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeOK(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func writeList[T any](w http.ResponseWriter, message string, items []T) {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: items, Count: &n})
}

// statusOf maps service errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, common.ErrMalformedPath),
		errors.Is(err, common.ErrInvalidSectionsJSON),
		errors.Is(err, common.ErrArgumentInvalid),
		errors.Is(err, common.ErrFileTooLarge),
		errors.Is(err, common.ErrUnsupportedFileType),
		errors.Is(err, common.ErrIncompatibleNode):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrRateLimited):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// writeError answers with the mapped status. Unexpected failures are logged
// with their full cause and reported with a generic message only.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusOf(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), message, "error", err, "method", r.Method, "path", r.URL.Path)
		message, detail = common.GenericErrorMessage, common.GenericErrorMessage
	}
	writeJSON(w, status, envelope{Message: message, Error: detail})
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &requestError{msg: "invalid JSON body: " + err.Error()}
	}
	return nil
}

// requestError is a malformed request detected by the transport itself.
type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }

func (e *requestError) Unwrap() error { return common.ErrArgumentInvalid }
