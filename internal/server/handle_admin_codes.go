package server

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rsepme/rsemodule/internal/store"
)

const (
	codeAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength      = 6
	codeMaxAttempts = 10
)

var errNoFreeCode = errors.New("no free access code after retries")

// AdminCodeRequest is the request body for POST /api/admin/codes.
// ExpiresAt accepts RFC 3339 or the HTML datetime-local form.
type AdminCodeRequest struct {
	Label     string `json:"label"`
	ExpiresAt string `json:"expiresAt"`
	MaxUses   *int   `json:"maxUses"`
}

type AdminCodeUpdateRequest struct {
	IsActive *bool `json:"isActive"`
}

func handleAdminListCodes(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		codes, err := s.ListCodes(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, codes)
	}
}

func handleAdminCreateCode(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminCodeRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if req.MaxUses != nil && *req.MaxUses < 1 {
			writeError(w, http.StatusBadRequest, "La limite d'utilisations doit être un nombre positif")
			return
		}
		expiresAt, err := parseExpiry(req.ExpiresAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid expiresAt")
			return
		}

		code, err := createUniqueCode(r.Context(), s, store.NewAccessCode{
			Label:     strings.TrimSpace(req.Label),
			ExpiresAt: expiresAt,
			MaxUses:   req.MaxUses,
			CreatedBy: adminFrom(r).ID,
		})
		if errors.Is(err, errNoFreeCode) {
			writeError(w, http.StatusConflict, "Impossible de générer un code unique. Réessayez.")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, code)
	}
}

func handleAdminUpdateCode(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminCodeUpdateRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.IsActive == nil {
			writeError(w, http.StatusBadRequest, "isActive is required")
			return
		}

		code, err := s.SetCodeActive(r.Context(), chi.URLParam(r, "id"), *req.IsActive)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "code not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, code)
	}
}

// createUniqueCode draws random codes until one is free, up to
// codeMaxAttempts times.
func createUniqueCode(ctx context.Context, s *store.Store, nc store.NewAccessCode) (store.AccessCode, error) {
	for range codeMaxAttempts {
		text, err := generateCode()
		if err != nil {
			return store.AccessCode{}, err
		}
		nc.Code = text
		c, err := s.CreateCode(ctx, nc)
		if errors.Is(err, store.ErrDuplicate) {
			continue
		}
		return c, err
	}
	return store.AccessCode{}, errNoFreeCode
}

func generateCode() (string, error) {
	var b strings.Builder
	limit := big.NewInt(int64(len(codeAlphabet)))
	for range codeLength {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func parseExpiry(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("unrecognised time format")
}
