package pkg

import (
	"encoding/json"
	"errors"
	"net/http"
)

// APIResponse is the envelope of every API response.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Notice  string `json:"notice,omitempty"`
}

// Translator turns a message key into text. *i18n.Localizer satisfies it.
type Translator interface {
	T(key string) string
}

// JSON writes a successful response.
func JSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, APIResponse{Success: true, Data: data})
}

// JSONWithNotice writes a successful response together with a translated
// notice, e.g. "Recommendation generated successfully".
func JSONWithNotice(w http.ResponseWriter, status int, data any, notice string) {
	writeEnvelope(w, status, APIResponse{Success: true, Data: data, Notice: notice})
}

// Error writes an error response. Domain errors are mapped to the matching
// HTTP status code; the raw error text is used as the message.
func Error(w http.ResponseWriter, err error) {
	writeEnvelope(w, StatusFor(err), APIResponse{Error: err.Error()})
}

// LocalizedError is like Error but, when err carries a Notice, writes the
// translated notice instead of the raw error text. Internal errors never leak
// their message.
func LocalizedError(w http.ResponseWriter, tr Translator, err error) {
	writeEnvelope(w, StatusFor(err), APIResponse{Error: Message(tr, err)})
}

// Message is the user-facing text of err.
func Message(tr Translator, err error) string {
	if key, ok := NoticeKey(err); ok {
		return tr.T(key)
	}
	if StatusFor(err) == http.StatusInternalServerError {
		return tr.T("error.internal")
	}
	return err.Error()
}

// ErrorWithMessage writes an error response with a custom message.
func ErrorWithMessage(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, APIResponse{Error: message})
}

func writeEnvelope(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// StatusFor maps domain errors to HTTP status codes.
// When err carries a Notice, the outermost Notice's kind decides; otherwise
// errors.Is walks the chain, so wrapped sentinels match too.
func StatusFor(err error) int {
	var n *Notice
	if errors.As(err, &n) {
		return statusForKind(n.Kind)
	}
	return statusForKind(err)
}

func statusForKind(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict), errors.Is(err, ErrCanceled):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
