package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rsepme/rsemodule/internal/access"
	"github.com/rsepme/rsemodule/internal/database"
	"github.com/rsepme/rsemodule/internal/migrations"
	"github.com/rsepme/rsemodule/internal/module"
	"github.com/rsepme/rsemodule/internal/progress"
	"github.com/rsepme/rsemodule/internal/store"
	"github.com/rsepme/rsemodule/internal/tracking"
	"github.com/rsepme/rsemodule/internal/wizard"
)

const (
	testAdminEmail    = "admin@rse.test"
	testAdminPassword = "changeme"
)

type testEnv struct {
	t        *testing.T
	handler  http.Handler
	store    *store.Store
	broker   *Broker
	tokens   *Tokens
	progress progress.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	db, dialect, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db, dialect); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	st := store.New(db, dialect)

	modules := module.NewLoader()
	if err := modules.LoadBuiltin(); err != nil {
		t.Fatalf("load modules: %v", err)
	}
	if err := Seed(ctx, logger, st, modules, testAdminEmail, testAdminPassword); err != nil {
		t.Fatalf("seed: %v", err)
	}

	deps := Deps{
		Store:           st,
		Modules:         modules,
		Gate:            access.NewGate(st),
		Tracker:         tracking.NewTracker(st),
		Progress:        progress.NewMemoryStore(),
		Tokens:          NewTokens("test-secret", time.Hour),
		Broker:          NewBroker(),
		ShareModuleName: "Module 1 RSE",
		CORSOrigins:     []string{"*"},
	}
	srv := New(":0", logger, deps, nil)

	return &testEnv{
		t:        t,
		handler:  srv.srv.Handler,
		store:    st,
		broker:   deps.Broker,
		tokens:   deps.Tokens,
		progress: deps.Progress,
	}
}

type reqOption func(*http.Request)

func withToken(tok string) reqOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }
}

func withCookies(cookies []*http.Cookie) reqOption {
	return func(r *http.Request) {
		for _, c := range cookies {
			r.AddCookie(c)
		}
	}
}

func (e *testEnv) do(method, path string, body any, opts ...reqOption) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			e.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d: %s", rec.Code, status, rec.Body.String())
	}
}

func (e *testEnv) createCode(code string, maxUses *int) store.AccessCode {
	e.t.Helper()
	c, err := e.store.CreateCode(context.Background(), store.NewAccessCode{Code: code, Label: "Atelier", MaxUses: maxUses})
	if err != nil {
		e.t.Fatalf("create code: %v", err)
	}
	return c
}

func (e *testEnv) redeem(code, name string) RedeemResponse {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/access", RedeemRequest{Code: code, Name: name})
	wantStatus(e.t, rec, http.StatusOK)
	return decodeBody[RedeemResponse](e.t, rec)
}

// viewBody is the part of wizard.View tests inspect. Section is left out
// because it decodes to an interface.
type viewBody struct {
	Cursor     wizard.Cursor    `json:"cursor"`
	Responses  wizard.Responses `json:"responses"`
	CanProceed bool             `json:"canProceed"`
	CanGoBack  bool             `json:"canGoBack"`
	NextLabel  string           `json:"nextLabel"`
	Completed  bool             `json:"completed"`
}

type actionBody struct {
	Wizard    viewBody    `json:"wizard"`
	Completed bool        `json:"completed"`
	Result    *Completion `json:"result"`
}

type startBody struct {
	SessionID string   `json:"sessionId"`
	Status    string   `json:"status"`
	Wizard    viewBody `json:"wizard"`
}

func (e *testEnv) startSession(tok string) startBody {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/modules/1/sessions", nil, withToken(tok))
	wantStatus(e.t, rec, http.StatusOK)
	return decodeBody[startBody](e.t, rec)
}

func (e *testEnv) act(tok, sessionID string, a wizard.Action) actionBody {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/sessions/"+sessionID+"/wizard/actions", a, withToken(tok))
	wantStatus(e.t, rec, http.StatusOK)
	return decodeBody[actionBody](e.t, rec)
}

// walkToEnd answers every section of the builtin module, with three yes
// answers out of five, and stops on the summary.
func walkToEnd(e *testEnv, tok, sessionID string) {
	e.t.Helper()
	next := func() actionBody { return e.act(tok, sessionID, wizard.Action{Type: wizard.ActionNext}) }
	set := func(typ wizard.ActionType, id, value string) {
		e.act(tok, sessionID, wizard.Action{Type: typ, ID: id, Value: value})
	}

	next() // welcome
	next() // info
	for _, q := range [][2]string{{"q1", "yes"}, {"q2", "yes"}, {"q3", "no"}, {"q4", "yes"}, {"q5", "no"}} {
		set(wizard.ActionAnswerQuiz, q[0], q[1])
	}
	next()

	for range 9 {
		next()
	}
	set(wizard.ActionToggleStakeholder, "", "Employés")
	set(wizard.ActionToggleStakeholder, "", "Clients")
	next() // benefits
	next() // gestures

	for _, id := range []string{"g1", "g2", "g3"} {
		set(wizard.ActionSelectGesture, id, "Je vais le faire")
	}
	next()
	for _, id := range []string{"t1", "t2"} {
		set(wizard.ActionReactTestimonial, id, "Applicable chez moi")
	}
	next()
	set(wizard.ActionSetField, "action_name", "Tri sélectif")
	set(wizard.ActionSetField, "responsible", "Awa")
	set(wizard.ActionSetField, "objective", "Réduire les déchets")
	if v := next(); v.Wizard.Cursor.SectionIndex != 7 {
		e.t.Fatalf("expected summary, cursor = %+v", v.Wizard.Cursor)
	}
}

func (e *testEnv) login() []*http.Cookie {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/admin/login", AdminLoginRequest{Email: testAdminEmail, Password: testAdminPassword})
	wantStatus(e.t, rec, http.StatusOK)
	return rec.Result().Cookies()
}
