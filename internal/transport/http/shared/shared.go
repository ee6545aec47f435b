// Package shared centralizes the JSON envelope and domain error translation
// so every handler renders errors the same way.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "suratdesa/pkg/domain-errors"
)

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteError maps a domain error to its HTTP status and a stable error code
// body. Unknown errors become opaque 500s; details stay in the logs.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := errorBody{Error: string(code)}
	if code != dErrors.CodeInternal {
		body.Message = err.Error()
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}
