// Package access redeems access codes: it checks a code is usable and
// registers the participant under it.
package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rsepme/rsemodule/internal/store"
)

var (
	ErrInvalidInput        = errors.New("code and name are required")
	ErrCodeNotFound        = errors.New("access code not found")
	ErrCodeInactive        = errors.New("access code is inactive")
	ErrCodeExpired         = errors.New("access code has expired")
	ErrCodeExhausted       = errors.New("access code usage limit reached")
	ErrParticipantCreation = errors.New("creating participant")
)

// Message returns the participant-facing text for a Redeem error.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "Veuillez saisir un code d'accès et votre nom"
	case errors.Is(err, ErrCodeNotFound):
		return "Code d'accès invalide"
	case errors.Is(err, ErrCodeInactive):
		return "Ce code d'accès n'est plus actif"
	case errors.Is(err, ErrCodeExpired):
		return "Ce code d'accès a expiré"
	case errors.Is(err, ErrCodeExhausted):
		return "Ce code d'accès a atteint sa limite d'utilisations"
	case errors.Is(err, ErrParticipantCreation):
		return "Erreur lors de la création du participant"
	default:
		return "Une erreur est survenue"
	}
}

// CodeStore is the persistence the gate needs.
type CodeStore interface {
	CodeByText(ctx context.Context, code string) (store.AccessCode, error)
	CreateParticipant(ctx context.Context, codeID, name string) (store.Participant, error)
}

// Redemption identifies the participant created by a successful redeem.
type Redemption struct {
	ParticipantID string `json:"participantId"`
	CodeID        string `json:"codeId"`
	Name          string `json:"name"`
}

type Gate struct {
	store CodeStore
	now   func() time.Time
}

func NewGate(s CodeStore) *Gate {
	return &Gate{store: s, now: time.Now}
}

// Normalize trims and upper-cases a code as typed by a participant.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Check returns the first reason c cannot be redeemed at now, or nil.
func Check(c store.AccessCode, now time.Time) error {
	switch {
	case !c.IsActive:
		return ErrCodeInactive
	case c.ExpiresAt != nil && c.ExpiresAt.Before(now):
		return ErrCodeExpired
	case c.MaxUses != nil && c.CurrentUses >= *c.MaxUses:
		return ErrCodeExhausted
	}
	return nil
}

// Redeem validates code and creates a participant named name under it.
func (g *Gate) Redeem(ctx context.Context, code, name string) (Redemption, error) {
	code = Normalize(code)
	name = strings.TrimSpace(name)
	if code == "" || name == "" {
		return Redemption{}, ErrInvalidInput
	}

	c, err := g.store.CodeByText(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return Redemption{}, ErrCodeNotFound
	}
	if err != nil {
		return Redemption{}, fmt.Errorf("looking up code: %w", err)
	}
	if err := Check(c, g.now()); err != nil {
		return Redemption{}, err
	}

	p, err := g.store.CreateParticipant(ctx, c.ID, name)
	if errors.Is(err, store.ErrExhausted) {
		return Redemption{}, ErrCodeExhausted
	}
	if err != nil {
		return Redemption{}, fmt.Errorf("%w: %w", ErrParticipantCreation, err)
	}
	return Redemption{ParticipantID: p.ID, CodeID: c.ID, Name: p.Name}, nil
}
