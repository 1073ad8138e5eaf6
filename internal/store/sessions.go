package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
)

type Session struct {
	ID              string     `json:"id"`
	ParticipantID   string     `json:"participantId"`
	ParticipantName string     `json:"participantName"`
	ModuleID        string     `json:"moduleId"`
	ModuleNumber    int        `json:"moduleNumber"`
	AccessCodeID    string     `json:"accessCodeId"`
	Status          string     `json:"status"`
	StartedAt       time.Time  `json:"startedAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	DurationSeconds *int       `json:"durationSeconds,omitempty"`
	Score           *int       `json:"score,omitempty"`
	TotalQuestions  *int       `json:"totalQuestions,omitempty"`
	CorrectAnswers  *int       `json:"correctAnswers,omitempty"`
	ResponsesData   []byte     `json:"-"`
}

// SessionResult is written once when a session completes.
type SessionResult struct {
	Score           int
	TotalQuestions  int
	CorrectAnswers  int
	DurationSeconds int
	ResponsesData   []byte
	CompletedAt     time.Time
}

// EnsureSession returns the existing started or completed session for the
// (participant, code, module) triple, creating a started one when none
// exists. created reports whether a row was inserted.
func (s *Store) EnsureSession(ctx context.Context, participantID, codeID, moduleID string) (id string, created bool, err error) {
	lookup := func(q queryer) (string, error) {
		var id string
		err := s.queryRow(ctx, q, `
			SELECT id FROM sessions
			WHERE participant_id = ? AND access_code_id = ? AND module_id = ?
			  AND status IN ('started', 'completed')
			ORDER BY created_at DESC
			LIMIT 1
		`, participantID, codeID, moduleID).Scan(&id)
		return id, err
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := lookup(tx)
		if err == nil {
			id = existing
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		id = newID()
		now := s.nowText()
		_, err = s.exec(ctx, tx, `
			INSERT INTO sessions (id, participant_id, module_id, access_code_id, status, started_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, 'started', ?, ?, ?)
		`, id, participantID, moduleID, codeID, now, now, now)
		if err != nil {
			return err
		}
		created = true
		return nil
	})
	if isUniqueViolation(err) {
		// Another writer inserted the row first.
		id, err = lookup(s.db)
		return id, false, err
	}
	if err != nil {
		return "", false, fmt.Errorf("ensuring session: %w", err)
	}
	return id, created, nil
}

// CompleteSession marks a started session completed with its result.
// ErrNotStarted means the session is missing or already completed.
func (s *Store) CompleteSession(ctx context.Context, id string, r SessionResult) error {
	completedAt := formatTime(r.CompletedAt)
	res, err := s.exec(ctx, s.db, `
		UPDATE sessions
		SET status = 'completed', completed_at = ?, duration_seconds = ?, score = ?,
		    total_questions = ?, correct_answers = ?, responses_data = ?, updated_at = ?
		WHERE id = ? AND status = 'started'
	`, completedAt, r.DurationSeconds, r.Score, r.TotalQuestions, r.CorrectAnswers, string(r.ResponsesData), completedAt, id)
	if err != nil {
		return fmt.Errorf("completing session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotStarted
	}
	return nil
}

func (s *Store) SessionByID(ctx context.Context, id string) (Session, error) {
	var (
		ss          Session
		startedAt   string
		completedAt sql.NullString
		duration    sql.NullInt64
		score       sql.NullInt64
		total       sql.NullInt64
		correct     sql.NullInt64
		responses   sql.NullString
	)
	err := s.queryRow(ctx, s.db, `
		SELECT s.id, s.participant_id, p.name, s.module_id, m.number, s.access_code_id, s.status,
		       s.started_at, s.completed_at, s.duration_seconds, s.score,
		       s.total_questions, s.correct_answers, s.responses_data
		FROM sessions s
		JOIN participants p ON p.id = s.participant_id
		JOIN modules m ON m.id = s.module_id
		WHERE s.id = ?
	`, id).Scan(&ss.ID, &ss.ParticipantID, &ss.ParticipantName, &ss.ModuleID, &ss.ModuleNumber, &ss.AccessCodeID, &ss.Status,
		&startedAt, &completedAt, &duration, &score, &total, &correct, &responses)
	if errors.Is(err, sql.ErrNoRows) {
		return ss, ErrNotFound
	}
	if err != nil {
		return ss, err
	}

	if ss.StartedAt, err = parseTime(startedAt); err != nil {
		return ss, fmt.Errorf("parsing started_at: %w", err)
	}
	if ss.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return ss, fmt.Errorf("parsing completed_at: %w", err)
	}
	ss.DurationSeconds = nullInt(duration)
	ss.Score = nullInt(score)
	ss.TotalQuestions = nullInt(total)
	ss.CorrectAnswers = nullInt(correct)
	if responses.Valid {
		ss.ResponsesData = []byte(responses.String)
	}
	return ss, nil
}

// ResultRow is a completed session as listed in the admin console.
type ResultRow struct {
	SessionID       string    `json:"sessionId"`
	ParticipantName string    `json:"participantName"`
	CodeID          string    `json:"codeId"`
	Code            string    `json:"code"`
	CodeLabel       string    `json:"codeLabel"`
	Score           int       `json:"score"`
	TotalQuestions  int       `json:"totalQuestions"`
	DurationSeconds int       `json:"durationSeconds"`
	CompletedAt     time.Time `json:"completedAt"`
}

// ListCompletedSessions returns completed sessions, most recent first. An
// empty codeID lists every code.
func (s *Store) ListCompletedSessions(ctx context.Context, codeID string) ([]ResultRow, error) {
	rows, err := s.query(ctx, s.db, `
		SELECT s.id, p.name, c.id, c.code, c.label,
		       COALESCE(s.score, 0), COALESCE(s.total_questions, 0), COALESCE(s.duration_seconds, 0), s.completed_at
		FROM sessions s
		JOIN participants p ON p.id = s.participant_id
		JOIN access_codes c ON c.id = s.access_code_id
		WHERE s.status = 'completed' AND (? = '' OR c.id = ?)
		ORDER BY s.completed_at DESC
	`, codeID, codeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ResultRow{}
	for rows.Next() {
		var (
			r           ResultRow
			completedAt string
		)
		if err := rows.Scan(&r.SessionID, &r.ParticipantName, &r.CodeID, &r.Code, &r.CodeLabel,
			&r.Score, &r.TotalQuestions, &r.DurationSeconds, &completedAt); err != nil {
			return nil, err
		}
		if r.CompletedAt, err = parseTime(completedAt); err != nil {
			return nil, fmt.Errorf("parsing completed_at: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecentSession is a dashboard entry.
type RecentSession struct {
	ID              string    `json:"id"`
	ParticipantName string    `json:"participantName"`
	Code            string    `json:"code"`
	Status          string    `json:"status"`
	Score           *int      `json:"score"`
	StartedAt       time.Time `json:"startedAt"`
}

func (s *Store) RecentSessions(ctx context.Context, limit int) ([]RecentSession, error) {
	rows, err := s.query(ctx, s.db, `
		SELECT s.id, p.name, c.code, s.status, s.score, s.started_at
		FROM sessions s
		JOIN participants p ON p.id = s.participant_id
		JOIN access_codes c ON c.id = s.access_code_id
		ORDER BY s.started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []RecentSession{}
	for rows.Next() {
		var (
			r         RecentSession
			score     sql.NullInt64
			startedAt string
		)
		if err := rows.Scan(&r.ID, &r.ParticipantName, &r.Code, &r.Status, &score, &startedAt); err != nil {
			return nil, err
		}
		r.Score = nullInt(score)
		if r.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, fmt.Errorf("parsing started_at: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
