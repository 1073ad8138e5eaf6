package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type Participant struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	AccessCodeID string    `json:"accessCodeId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreateParticipant registers a participant under a code and counts the
// use against the code's limit in the same transaction. When the limit was
// reached concurrently it returns ErrExhausted and nothing is written.
func (s *Store) CreateParticipant(ctx context.Context, codeID, name string) (Participant, error) {
	p := Participant{
		ID:           newID(),
		Name:         name,
		AccessCodeID: codeID,
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}
	now := formatTime(p.CreatedAt)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := s.exec(ctx, tx, `
			UPDATE access_codes
			SET current_uses = current_uses + 1, updated_at = ?
			WHERE id = ? AND (max_uses IS NULL OR current_uses < max_uses)
		`, now, codeID)
		if err != nil {
			return fmt.Errorf("counting code use: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrExhausted
		}

		_, err = s.exec(ctx, tx, `
			INSERT INTO participants (id, name, access_code_id, created_at)
			VALUES (?, ?, ?, ?)
		`, p.ID, p.Name, p.AccessCodeID, now)
		if err != nil {
			return fmt.Errorf("inserting participant: %w", err)
		}
		return nil
	})
	if err != nil {
		return Participant{}, err
	}
	return p, nil
}

func (s *Store) ParticipantByID(ctx context.Context, id string) (Participant, error) {
	var (
		p         Participant
		createdAt string
	)
	err := s.queryRow(ctx, s.db, `
		SELECT id, name, access_code_id, created_at FROM participants WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.AccessCodeID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	p.CreatedAt, err = parseTime(createdAt)
	return p, err
}
