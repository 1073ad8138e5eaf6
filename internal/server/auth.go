package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

var errNoParticipant = errors.New("no valid participant token")

// ParticipantClaims is the payload of a participant token, issued when an
// access code is redeemed.
type ParticipantClaims struct {
	ParticipantID string `json:"pid"`
	CodeID        string `json:"cid"`
	Name          string `json:"name"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies participant tokens with HS256.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *Tokens) Sign(participantID, codeID, name string) (string, error) {
	now := t.now()
	claims := ParticipantClaims{
		ParticipantID: participantID,
		CodeID:        codeID,
		Name:          name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   participantID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *Tokens) Parse(tok string) (*ParticipantClaims, error) {
	parsed, err := jwt.ParseWithClaims(tok, &ParticipantClaims{}, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}
	c, ok := parsed.Claims.(*ParticipantClaims)
	if !ok || !parsed.Valid || c.ParticipantID == "" {
		return nil, errNoParticipant
	}
	return c, nil
}

// participantToken reads the bearer token, or the token query parameter
// for clients that cannot set headers (websockets).
func participantToken(r *http.Request) string {
	if tok, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		return strings.TrimSpace(tok)
	}
	return r.URL.Query().Get("token")
}
