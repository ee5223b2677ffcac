package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"codescan/internal/barcode"
	"codescan/internal/history"
	"codescan/internal/scanner"

	"github.com/gorilla/mux"
)

func writeJSON(w http.ResponseWriter, status int, payload map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, history.ErrRecordNotFound), errors.Is(err, scanner.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, scanner.ErrCameraBusy), errors.Is(err, history.ErrPartitionMismatch):
		return http.StatusConflict
	case errors.Is(err, barcode.ErrEncoding):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

// pathID parses the {id} route variable
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
