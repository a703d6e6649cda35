package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"railpulse/internal/upstream"
)

// ErrorBody is the uniform failure envelope.
type ErrorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON is the helper for consistent JSON responses.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	// best-effort encode; in the event of error there's not much we can do
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string, details any) {
	WriteJSON(w, status, ErrorBody{Success: false, Message: message, Details: details})
}

// ErrorDetails is the upstream body when there was one, else the error text.
func ErrorDetails(err error) any {
	var se *upstream.StatusError
	if errors.As(err, &se) {
		return se.Details()
	}
	return err.Error()
}

func serverError(w http.ResponseWriter, err error) {
	WriteError(w, http.StatusInternalServerError, "Server Error", ErrorDetails(err))
}

// DecodeBody reads a JSON request body into v. An empty body leaves v untouched.
func DecodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
