package handler

import (
	"encoding/json"
	"net/http"

	"github.com/MooMaker/moo-solver/internal/domain"
)

// errorBody is the structured error response: a machine-readable kind plus a
// human-readable description.
type errorBody struct {
	ErrorType   string `json:"errorType"`
	Description string `json:"description"`
}

// writeJSON marshals v and writes it with the given status code. Marshal
// failures fall back to a plain 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"errorType":"InternalServerError","description":"response encoding failed"}`,
			http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a tagged error response.
func writeError(w http.ResponseWriter, status int, kind domain.ErrorKind, description string) {
	writeJSON(w, status, errorBody{ErrorType: string(kind), Description: description})
}
