package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// AdminSessionTTL is how long an admin login stays valid.
const AdminSessionTTL = 7 * 24 * time.Hour

var ErrBadCredentials = errors.New("invalid credentials")

type Admin struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (s *Store) AdminCount(ctx context.Context) (int, error) {
	var n int
	err := s.queryRow(ctx, s.db, `SELECT COUNT(*) FROM admins`).Scan(&n)
	return n, err
}

// CreateAdmin stores a new admin with a bcrypt hash of password.
func (s *Store) CreateAdmin(ctx context.Context, email, password string) (Admin, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Admin{}, fmt.Errorf("hashing password: %w", err)
	}
	a := Admin{ID: newID(), Email: email}
	_, err = s.exec(ctx, s.db, `
		INSERT INTO admins (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)
	`, a.ID, a.Email, string(hash), s.nowText())
	if isUniqueViolation(err) {
		return Admin{}, ErrDuplicate
	}
	return a, err
}

// Authenticate checks email and password and opens an admin session.
func (s *Store) Authenticate(ctx context.Context, email, password string) (Admin, string, error) {
	var (
		a    Admin
		hash string
	)
	err := s.queryRow(ctx, s.db, `
		SELECT id, email, password_hash FROM admins WHERE email = ?
	`, email).Scan(&a.ID, &a.Email, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return Admin{}, "", ErrBadCredentials
	}
	if err != nil {
		return Admin{}, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return Admin{}, "", ErrBadCredentials
	}

	sessionID := newID()
	now := s.now()
	_, err = s.exec(ctx, s.db, `
		INSERT INTO admin_sessions (id, admin_id, created_at, expires_at) VALUES (?, ?, ?, ?)
	`, sessionID, a.ID, formatTime(now), formatTime(now.Add(AdminSessionTTL)))
	if err != nil {
		return Admin{}, "", fmt.Errorf("creating admin session: %w", err)
	}
	return a, sessionID, nil
}

// AdminFromSession resolves an unexpired admin session.
func (s *Store) AdminFromSession(ctx context.Context, sessionID string) (Admin, error) {
	var a Admin
	err := s.queryRow(ctx, s.db, `
		SELECT a.id, a.email
		FROM admin_sessions s
		JOIN admins a ON a.id = s.admin_id
		WHERE s.id = ? AND s.expires_at > ?
	`, sessionID, s.nowText()).Scan(&a.ID, &a.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return Admin{}, ErrNotFound
	}
	return a, err
}

func (s *Store) DeleteAdminSession(ctx context.Context, sessionID string) error {
	_, err := s.exec(ctx, s.db, `DELETE FROM admin_sessions WHERE id = ?`, sessionID)
	return err
}
