package store

import (
	"context"
	"database/sql"
	"errors"
)

// Module is the database row of a module. Its content is the JSON document
// served to participants.
type Module struct {
	ID               string
	Number           int
	Title            string
	Description      string
	EstimatedMinutes int
	IsActive         bool
	Content          []byte
}

func (s *Store) ModuleByNumber(ctx context.Context, number int) (Module, error) {
	var (
		m       Module
		active  int
		content string
	)
	err := s.queryRow(ctx, s.db, `
		SELECT id, number, title, description, estimated_duration_minutes, is_active, content
		FROM modules WHERE number = ?
	`, number).Scan(&m.ID, &m.Number, &m.Title, &m.Description, &m.EstimatedMinutes, &active, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrNotFound
	}
	m.IsActive = active != 0
	m.Content = []byte(content)
	return m, err
}

// UpsertModule inserts the module or refreshes its metadata and content,
// keeping its id stable.
func (s *Store) UpsertModule(ctx context.Context, m Module) (Module, error) {
	now := s.nowText()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var id string
		err := s.queryRow(ctx, tx, `SELECT id FROM modules WHERE number = ?`, m.Number).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			m.ID = newID()
			_, err = s.exec(ctx, tx, `
				INSERT INTO modules (id, number, title, description, estimated_duration_minutes, is_active, content, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, m.ID, m.Number, m.Title, m.Description, m.EstimatedMinutes, boolInt(m.IsActive), string(m.Content), now, now)
			return err
		case err != nil:
			return err
		}
		m.ID = id
		_, err = s.exec(ctx, tx, `
			UPDATE modules
			SET title = ?, description = ?, estimated_duration_minutes = ?, is_active = ?, content = ?, updated_at = ?
			WHERE id = ?
		`, m.Title, m.Description, m.EstimatedMinutes, boolInt(m.IsActive), string(m.Content), now, id)
		return err
	})
	return m, err
}
