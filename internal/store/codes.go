package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type AccessCode struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	Label       string     `json:"label"`
	IsActive    bool       `json:"isActive"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	MaxUses     *int       `json:"maxUses"`
	CurrentUses int        `json:"currentUses"`
	CreatedBy   string     `json:"createdBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// NewAccessCode holds the fields an admin chooses when creating a code.
type NewAccessCode struct {
	Code      string
	Label     string
	ExpiresAt *time.Time
	MaxUses   *int
	CreatedBy string
}

const codeColumns = `id, code, label, is_active, expires_at, max_uses, current_uses, created_by, created_at`

func scanCode(row interface{ Scan(...any) error }) (AccessCode, error) {
	var (
		c         AccessCode
		active    int
		expiresAt sql.NullString
		maxUses   sql.NullInt64
		createdBy sql.NullString
		createdAt string
	)
	if err := row.Scan(&c.ID, &c.Code, &c.Label, &active, &expiresAt, &maxUses, &c.CurrentUses, &createdBy, &createdAt); err != nil {
		return c, err
	}
	c.IsActive = active != 0
	c.MaxUses = nullInt(maxUses)
	c.CreatedBy = createdBy.String

	var err error
	if c.ExpiresAt, err = parseNullTime(expiresAt); err != nil {
		return c, fmt.Errorf("parsing expires_at: %w", err)
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return c, fmt.Errorf("parsing created_at: %w", err)
	}
	return c, nil
}

// CodeByText looks up a code by its exact text.
func (s *Store) CodeByText(ctx context.Context, code string) (AccessCode, error) {
	c, err := scanCode(s.queryRow(ctx, s.db, `
		SELECT `+codeColumns+` FROM access_codes WHERE code = ?
	`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

func (s *Store) CodeByID(ctx context.Context, id string) (AccessCode, error) {
	c, err := scanCode(s.queryRow(ctx, s.db, `
		SELECT `+codeColumns+` FROM access_codes WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

// ListCodes returns all codes, newest first.
func (s *Store) ListCodes(ctx context.Context) ([]AccessCode, error) {
	rows, err := s.query(ctx, s.db, `
		SELECT `+codeColumns+` FROM access_codes ORDER BY created_at DESC, code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	codes := []AccessCode{}
	for rows.Next() {
		c, err := scanCode(rows)
		if err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

func (s *Store) CodeExists(ctx context.Context, code string) (bool, error) {
	var n int
	err := s.queryRow(ctx, s.db, `SELECT COUNT(*) FROM access_codes WHERE code = ?`, code).Scan(&n)
	return n > 0, err
}

// CreateCode inserts a code. A code text that is already taken returns
// ErrDuplicate.
func (s *Store) CreateCode(ctx context.Context, nc NewAccessCode) (AccessCode, error) {
	id := newID()
	now := s.nowText()

	var createdBy any
	if nc.CreatedBy != "" {
		createdBy = nc.CreatedBy
	}
	var maxUses any
	if nc.MaxUses != nil {
		maxUses = *nc.MaxUses
	}

	_, err := s.exec(ctx, s.db, `
		INSERT INTO access_codes (id, code, label, is_active, expires_at, max_uses, current_uses, created_by, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?, 0, ?, ?, ?)
	`, id, nc.Code, nc.Label, nullTime(nc.ExpiresAt), maxUses, createdBy, now, now)
	if isUniqueViolation(err) {
		return AccessCode{}, ErrDuplicate
	}
	if err != nil {
		return AccessCode{}, err
	}
	return s.CodeByID(ctx, id)
}

// SetCodeActive enables or disables a code.
func (s *Store) SetCodeActive(ctx context.Context, id string, active bool) (AccessCode, error) {
	res, err := s.exec(ctx, s.db, `
		UPDATE access_codes SET is_active = ?, updated_at = ? WHERE id = ?
	`, boolInt(active), s.nowText(), id)
	if err != nil {
		return AccessCode{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return AccessCode{}, ErrNotFound
	}
	return s.CodeByID(ctx, id)
}
