package server

import (
	"encoding/json"
	"net/http"

	"github.com/desertthunder/relx/internal/shared"
)

// errorBody is the JSON body of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError answers with the taxonomy code and message of err. Wrapped detail stays in the logs.
func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: shared.ErrorCode(err), Message: shared.ErrorMessage(err)})
}
