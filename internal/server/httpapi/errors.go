package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gestcard/internal/common"
	"github.com/dmitrijs2005/gestcard/internal/logging"
)

const msgInternal = "Internal server error"

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// StatusFor maps the error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorStatus(w http.ResponseWriter, code int, message string) {
	writeJSONStatus(w, code, ErrorResponse{StatusCode: code, Message: message, Error: http.StatusText(code)})
}

// writeError replies with the mapped status. Anything outside the taxonomy
// is logged and hidden behind a generic message.
func writeError(w http.ResponseWriter, r *http.Request, l logging.Logger, err error) {
	code := StatusFor(err)
	if code == http.StatusInternalServerError {
		l.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeErrorStatus(w, code, msgInternal)
		return
	}
	writeErrorStatus(w, code, common.Message(err, http.StatusText(code)))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return common.Validation("invalid request body")
	}
	return nil
}
