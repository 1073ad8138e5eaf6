package server

import (
	"context"
	"net/http"

	"github.com/rsepme/rsemodule/internal/store"
)

type ctxKey int

const (
	ctxKeyParticipant ctxKey = iota
	ctxKeyAdmin
)

const adminCookieName = "admin_session"

func participantAuthMiddleware(tokens *Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := participantToken(r)
			if tok == "" {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			claims, err := tokens.Parse(tok)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid participant token")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyParticipant, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminSessions resolves admin session cookies.
type AdminSessions interface {
	AdminFromSession(ctx context.Context, sessionID string) (store.Admin, error)
}

func adminAuthMiddleware(admins AdminSessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(adminCookieName)
			if err != nil || cookie.Value == "" {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			admin, err := admins.AdminFromSession(r.Context(), cookie.Value)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyAdmin, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func participantFrom(r *http.Request) *ParticipantClaims {
	return r.Context().Value(ctxKeyParticipant).(*ParticipantClaims)
}

func adminFrom(r *http.Request) store.Admin {
	return r.Context().Value(ctxKeyAdmin).(store.Admin)
}
