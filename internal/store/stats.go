package store

import (
	"context"
	"database/sql"
	"errors"
	"math"
)

// Stats are the dashboard counters.
type Stats struct {
	TotalParticipants     int `json:"totalParticipants"`
	TotalSessions         int `json:"totalSessions"`
	CompletedSessions     int `json:"completedSessions"`
	AverageScore          int `json:"averageScore"`
	TotalCodes            int `json:"totalCodes"`
	ActiveCodes           int `json:"activeCodes"`
	TotalWhatsappMessages int `json:"totalWhatsappMessages"`
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var (
		st  Stats
		avg sql.NullFloat64
	)
	err := s.queryRow(ctx, s.db, `
		SELECT
			(SELECT COUNT(*) FROM participants),
			(SELECT COUNT(*) FROM sessions),
			(SELECT COUNT(*) FROM sessions WHERE status = 'completed'),
			(SELECT AVG(score) FROM sessions WHERE status = 'completed' AND score IS NOT NULL),
			(SELECT COUNT(*) FROM access_codes),
			(SELECT COUNT(*) FROM access_codes WHERE is_active = 1),
			(SELECT COUNT(*) FROM whatsapp_messages)
	`).Scan(&st.TotalParticipants, &st.TotalSessions, &st.CompletedSessions, &avg,
		&st.TotalCodes, &st.ActiveCodes, &st.TotalWhatsappMessages)
	if err != nil {
		return st, err
	}
	if avg.Valid {
		st.AverageScore = int(math.Round(avg.Float64))
	}
	return st, nil
}

const SettingWhatsappGroupLink = "whatsapp_group_link"

// Setting returns the value stored under key, or "" when unset.
func (s *Store) Setting(ctx context.Context, key string) (string, error) {
	var v string
	err := s.queryRow(ctx, s.db, `SELECT value FROM admin_settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

func (s *Store) PutSetting(ctx context.Context, key, value string) error {
	_, err := s.exec(ctx, s.db, `
		INSERT INTO admin_settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, s.nowText())
	return err
}

// ShareMessage is an outbound share recorded for reporting.
type ShareMessage struct {
	SessionID     string
	ParticipantID string
	Message       string
	GroupLink     string
}

func (s *Store) LogShareMessage(ctx context.Context, m ShareMessage) error {
	_, err := s.exec(ctx, s.db, `
		INSERT INTO whatsapp_messages (id, session_id, participant_id, message, whatsapp_group_link, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, newID(), m.SessionID, m.ParticipantID, m.Message, m.GroupLink, s.nowText())
	return err
}
