package api

import (
	"encoding/json"
	"net/http"

	"github.com/lzjever/wsorch/internal/core"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, err *core.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code.HTTPStatus())
	json.NewEncoder(w).Encode(ErrorResponse{
		Code:    string(err.Code),
		Message: err.Message,
		Kind:    err.Kind,
	})
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteAccepted writes a 202 for a state change the control plane applies
// asynchronously.
func WriteAccepted(w http.ResponseWriter, name string, state core.StateIntent) {
	WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"name":        name,
		"state":       state,
		"status_href": "/v1/workspaces/" + name,
	})
}

func decodeJSON(r *http.Request, v interface{}) *core.AppError {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return core.NewAppError(core.ErrValidation, "invalid request body: "+err.Error())
	}
	return nil
}
