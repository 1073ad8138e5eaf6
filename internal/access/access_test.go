package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rsepme/rsemodule/internal/store"
)

type fakeStore struct {
	codes   map[string]store.AccessCode
	created []string
	err     error
}

func (f *fakeStore) CodeByText(_ context.Context, code string) (store.AccessCode, error) {
	c, ok := f.codes[code]
	if !ok {
		return c, store.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) CreateParticipant(_ context.Context, codeID, name string) (store.Participant, error) {
	if f.err != nil {
		return store.Participant{}, f.err
	}
	f.created = append(f.created, name)
	return store.Participant{ID: "p-" + name, Name: name, AccessCodeID: codeID}, nil
}

func intPtr(n int) *int { return &n }

func TestCheck(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		code store.AccessCode
		want error
	}{
		{"active unlimited", store.AccessCode{IsActive: true}, nil},
		{"inactive", store.AccessCode{IsActive: false}, ErrCodeInactive},
		{"inactive wins over expired", store.AccessCode{IsActive: false, ExpiresAt: &past}, ErrCodeInactive},
		{"expired", store.AccessCode{IsActive: true, ExpiresAt: &past}, ErrCodeExpired},
		{"expires exactly now", store.AccessCode{IsActive: true, ExpiresAt: &now}, nil},
		{"not yet expired", store.AccessCode{IsActive: true, ExpiresAt: &future}, nil},
		{"expired wins over exhausted", store.AccessCode{IsActive: true, ExpiresAt: &past, MaxUses: intPtr(1), CurrentUses: 1}, ErrCodeExpired},
		{"exhausted", store.AccessCode{IsActive: true, MaxUses: intPtr(3), CurrentUses: 3}, ErrCodeExhausted},
		{"over limit", store.AccessCode{IsActive: true, MaxUses: intPtr(3), CurrentUses: 4}, ErrCodeExhausted},
		{"under limit", store.AccessCode{IsActive: true, MaxUses: intPtr(3), CurrentUses: 2}, nil},
		{"no limit many uses", store.AccessCode{IsActive: true, CurrentUses: 100000}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Check(tt.code, now); !errors.Is(got, tt.want) || (tt.want == nil && got != nil) {
				t.Errorf("Check = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRedeem(t *testing.T) {
	fs := &fakeStore{codes: map[string]store.AccessCode{
		"ABC234": {ID: "c1", Code: "ABC234", IsActive: true},
		"OFF234": {ID: "c2", Code: "OFF234", IsActive: false},
	}}
	g := NewGate(fs)

	r, err := g.Redeem(context.Background(), "  abc234 ", " Alice ")
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if r.CodeID != "c1" || r.ParticipantID != "p-Alice" || r.Name != "Alice" {
		t.Errorf("redemption = %+v", r)
	}

	tests := []struct {
		name, code, who string
		want            error
	}{
		{"missing name", "ABC234", "  ", ErrInvalidInput},
		{"missing code", "", "Bob", ErrInvalidInput},
		{"unknown", "ZZZ999", "Bob", ErrCodeNotFound},
		{"inactive", "off234", "Bob", ErrCodeInactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := g.Redeem(context.Background(), tt.code, tt.who); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if len(fs.created) != 1 {
		t.Errorf("participants created = %d, want 1", len(fs.created))
	}
}

func TestRedeemStoreFailures(t *testing.T) {
	codes := map[string]store.AccessCode{"ABC234": {ID: "c1", IsActive: true}}

	g := NewGate(&fakeStore{codes: codes, err: store.ErrExhausted})
	if _, err := g.Redeem(context.Background(), "ABC234", "Bob"); !errors.Is(err, ErrCodeExhausted) {
		t.Errorf("race on limit: err = %v", err)
	}

	g = NewGate(&fakeStore{codes: codes, err: errors.New("disk full")})
	_, err := g.Redeem(context.Background(), "ABC234", "Bob")
	if !errors.Is(err, ErrParticipantCreation) {
		t.Errorf("write failure: err = %v", err)
	}
	if got := Message(err); got != "Erreur lors de la création du participant" {
		t.Errorf("message = %q", got)
	}
}

func TestRedeemUsesInjectedClock(t *testing.T) {
	exp := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	g := NewGate(&fakeStore{codes: map[string]store.AccessCode{
		"EXP234": {ID: "c1", IsActive: true, ExpiresAt: &exp},
	}})

	g.now = func() time.Time { return exp.Add(-time.Minute) }
	if _, err := g.Redeem(context.Background(), "EXP234", "Ann"); err != nil {
		t.Fatalf("before expiry: %v", err)
	}
	g.now = func() time.Time { return exp.Add(time.Minute) }
	if _, err := g.Redeem(context.Background(), "EXP234", "Ann"); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("after expiry: err = %v", err)
	}
}

func TestMessage(t *testing.T) {
	if got := Message(ErrCodeNotFound); got != "Code d'accès invalide" {
		t.Errorf("not found message = %q", got)
	}
	if got := Message(errors.New("boom")); got != "Une erreur est survenue" {
		t.Errorf("fallback message = %q", got)
	}
}
