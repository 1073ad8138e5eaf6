package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("RSE Module API", "/openapi.json", "/docs"))

	// Participant routes.
	r.Post("/api/access", handleRedeem(logger, d.Gate, d.Tokens, d.Broker))
	r.Get("/api/modules/{number}", handleModuleContent(d.Modules))

	r.Group(func(r chi.Router) {
		r.Use(participantAuthMiddleware(d.Tokens))
		r.Post("/api/modules/{number}/sessions", handleStartSession(logger, d))
		r.Get("/api/sessions/{sessionID}/wizard", handleWizardState(d))
		r.Post("/api/sessions/{sessionID}/wizard/actions", handleWizardAction(logger, d))
		r.Get("/api/sessions/{sessionID}/wizard/ws", handleWizardWS(logger, d))
		r.Get("/api/sessions/{sessionID}/results", handleResults(d))
		r.Post("/api/sessions/{sessionID}/share", handleShare(logger, d))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", handleAdminLogin(d.Store))
		r.Post("/logout", handleAdminLogout(d.Store))

		r.Group(func(r chi.Router) {
			r.Use(adminAuthMiddleware(d.Store))
			r.Get("/me", handleAdminMe())
			r.Post("/users", handleAdminCreateUser(d.Store))

			r.Get("/codes", handleAdminListCodes(d.Store))
			r.Post("/codes", handleAdminCreateCode(d.Store))
			r.Patch("/codes/{id}", handleAdminUpdateCode(d.Store))

			r.Get("/results", handleAdminResults(d.Store))
			r.Get("/results.csv", handleAdminResultsCSV(d.Store))
			r.Get("/dashboard", handleAdminDashboard(d.Store))

			r.Get("/settings/whatsapp", handleAdminGetWhatsapp(d.Store))
			r.Put("/settings/whatsapp", handleAdminPutWhatsapp(d.Store))

			r.Get("/events", handleAdminEvents(d.Broker))
		})
	})

	if d.SPADir != "" {
		if info, err := os.Stat(d.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", d.SPADir)
			r.NotFound(handleSPA(d.SPADir))
		}
	}
}
