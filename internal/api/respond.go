package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"balance-sheet-go/internal/balancesheet"
	"balance-sheet-go/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func decodeBody(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// resultStatus maps the error text of a failed facade result to an HTTP
// status. Store failures are reported as "failed to ..." or "unable to ...";
// anything else is a validation failure.
func resultStatus(msg string) int {
	switch {
	case msg == balancesheet.ErrNotAuthenticated.Error():
		return http.StatusUnauthorized
	case strings.Contains(msg, store.ErrDuplicateTransaction.Error()):
		return http.StatusConflict
	case strings.HasSuffix(msg, "not found"):
		return http.StatusNotFound
	case strings.HasPrefix(msg, "failed to"), strings.HasPrefix(msg, "unable to"):
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}
