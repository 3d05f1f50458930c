package httputil

import (
	"encoding/json"
	"net/http"
)

// DefaultBodyLimit is the default maximum request body size (1 MB).
const DefaultBodyLimit int64 = 1 << 20

// ErrorBody is the shape of every error response.
type ErrorBody struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// WriteJSON sends a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteMessage sends {"message": msg}.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorBody{Message: msg})
}

// MaxBody wraps r.Body with a size limit to prevent oversized payloads.
func MaxBody(w http.ResponseWriter, r *http.Request, n int64) {
	r.Body = http.MaxBytesReader(w, r.Body, n)
}

// DecodeJSON reads a size-limited JSON body into dst. Decode failures are
// returned unchanged so WriteError can classify them.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	MaxBody(w, r, DefaultBodyLimit)
	return json.NewDecoder(r.Body).Decode(dst)
}
