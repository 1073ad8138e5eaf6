package server

import (
	"encoding/json"
	"net/http"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Error kinds carried in every error body, so clients can tell input
// mistakes they can fix from failures worth retrying.
const (
	kindValidation   = "validation"
	kindUnauthorized = "unauthorized"
	kindForbidden    = "forbidden"
	kindNotFound     = "not_found"
	kindConflict     = "conflict"
	kindRemote       = "remote"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Kind: errorKind(status)})
}

func errorKind(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return kindUnauthorized
	case status == http.StatusForbidden:
		return kindForbidden
	case status == http.StatusNotFound:
		return kindNotFound
	case status == http.StatusConflict:
		return kindConflict
	case status >= 500:
		return kindRemote
	default:
		return kindValidation
	}
}
