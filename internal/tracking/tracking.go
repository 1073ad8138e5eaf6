// Package tracking records module attempts: one session per participant,
// code and module, started once and completed once.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rsepme/rsemodule/internal/store"
)

var (
	ErrModuleNotFound   = errors.New("module not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrAlreadyCompleted = errors.New("session already completed")
)

// SessionStore is the persistence the tracker needs.
type SessionStore interface {
	ModuleByNumber(ctx context.Context, number int) (store.Module, error)
	EnsureSession(ctx context.Context, participantID, codeID, moduleID string) (string, bool, error)
	CompleteSession(ctx context.Context, id string, r store.SessionResult) error
	SessionByID(ctx context.Context, id string) (store.Session, error)
}

// Started is the outcome of Start.
type Started struct {
	SessionID string
	ModuleID  string
	Created   bool
}

// Result is what a completed session records.
type Result struct {
	Score           int
	TotalQuestions  int
	CorrectAnswers  int
	DurationSeconds int
	ResponsesData   []byte
}

type Tracker struct {
	store SessionStore
	group singleflight.Group
	now   func() time.Time
}

func NewTracker(s SessionStore) *Tracker {
	return &Tracker{store: s, now: time.Now}
}

// Start returns the session for the triple, creating it on first call.
// Concurrent calls for the same triple share one store round trip.
func (t *Tracker) Start(ctx context.Context, participantID, codeID string, moduleNumber int) (Started, error) {
	key := fmt.Sprintf("%s|%s|%d", participantID, codeID, moduleNumber)
	v, err, _ := t.group.Do(key, func() (any, error) {
		m, err := t.store.ModuleByNumber(ctx, moduleNumber)
		if errors.Is(err, store.ErrNotFound) {
			return Started{}, ErrModuleNotFound
		}
		if err != nil {
			return Started{}, fmt.Errorf("looking up module: %w", err)
		}

		id, created, err := t.store.EnsureSession(ctx, participantID, codeID, m.ID)
		if err != nil {
			return Started{}, err
		}
		return Started{SessionID: id, ModuleID: m.ID, Created: created}, nil
	})
	if err != nil {
		return Started{}, err
	}
	return v.(Started), nil
}

// Complete records r on a started session. It is not retried.
func (t *Tracker) Complete(ctx context.Context, sessionID string, r Result) error {
	err := t.store.CompleteSession(ctx, sessionID, store.SessionResult{
		Score:           r.Score,
		TotalQuestions:  r.TotalQuestions,
		CorrectAnswers:  r.CorrectAnswers,
		DurationSeconds: r.DurationSeconds,
		ResponsesData:   r.ResponsesData,
		CompletedAt:     t.now(),
	})
	if errors.Is(err, store.ErrNotStarted) {
		return ErrAlreadyCompleted
	}
	return err
}

// Lookup reads a session back, with the participant's name.
func (t *Tracker) Lookup(ctx context.Context, sessionID string) (store.Session, error) {
	s, err := t.store.SessionByID(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return s, ErrSessionNotFound
	}
	return s, err
}
