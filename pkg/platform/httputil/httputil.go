// Package httputil writes JSON responses and the uniform error envelope.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "govportal/pkg/domain-errors"
)

// ErrorResponse is the failure body every endpoint returns.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into the error envelope. Uncoded errors and
// internal_error never expose their message.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, StatusOf(err), ErrorBody(err))
}

// StatusOf returns the HTTP status for err.
func StatusOf(err error) int {
	return dErrors.ToHTTPStatus(dErrors.CodeOf(err))
}

// ErrorBody builds the envelope for err.
func ErrorBody(err error) ErrorResponse {
	de, ok := dErrors.As(err)
	if !ok || de.Code == dErrors.CodeInternal {
		return ErrorResponse{Error: "Internal server error", Code: string(dErrors.CodeInternal)}
	}
	return ErrorResponse{
		Error:   de.Message,
		Details: de.Details,
		Code:    string(de.Code),
		Hint:    de.Hint,
	}
}
