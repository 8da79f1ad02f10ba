// Package json holds the transport layer's response envelope helpers.
package json

import (
	"encoding/json"
	"net/http"

	dErrors "fleetgate/pkg/domain-errors"
	httpErrors "fleetgate/pkg/http-errors"
)

// WriteJSON encodes the response with the given status.
func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		// Headers are already sent; nothing more useful can be done.
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// ErrorEnvelope is the uniform error body. Clients branch on Code.
type ErrorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError translates a domain error into the uniform envelope. Internal
// details never leak: non-domain errors collapse to a generic 500 body.
func WriteError(w http.ResponseWriter, err error) {
	status := httpErrors.StatusFor(err)
	code := httpErrors.CodeFor(err)

	message := "internal error"
	if code != dErrors.CodeInternal {
		message = err.Error()
	}

	WriteJSON(w, status, ErrorEnvelope{
		Code:    string(code),
		Message: message,
	})
}
