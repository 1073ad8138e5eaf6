package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rsepme/rsemodule/internal/module"
	"github.com/rsepme/rsemodule/internal/store"
)

// Seed writes every loaded module document to the modules table and, when
// no admin exists yet, creates one from adminEmail and adminPassword.
// Running it again refreshes module content and leaves admins alone.
func Seed(ctx context.Context, logger *slog.Logger, s *store.Store, modules *module.Loader, adminEmail, adminPassword string) error {
	for _, doc := range modules.All() {
		content, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encoding module %d: %w", doc.Number, err)
		}
		m, err := s.UpsertModule(ctx, store.Module{
			Number:           doc.Number,
			Title:            doc.Title,
			Description:      doc.Description,
			EstimatedMinutes: doc.EstimatedMinutes,
			IsActive:         true,
			Content:          content,
		})
		if err != nil {
			return fmt.Errorf("seeding module %d: %w", doc.Number, err)
		}
		logger.Info("module seeded", "number", m.Number, "id", m.ID)
	}

	n, err := s.AdminCount(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	adminEmail = strings.TrimSpace(strings.ToLower(adminEmail))
	if adminEmail == "" || adminPassword == "" {
		logger.Warn("no admin account exists; set ADMIN_EMAIL and ADMIN_PASSWORD to create one")
		return nil
	}
	if _, err := s.CreateAdmin(ctx, adminEmail, adminPassword); err != nil {
		return fmt.Errorf("creating admin: %w", err)
	}
	logger.Info("admin created", "email", adminEmail)
	return nil
}
