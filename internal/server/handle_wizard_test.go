package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/rsepme/rsemodule/internal/scoring"
	"github.com/rsepme/rsemodule/internal/store"
	"github.com/rsepme/rsemodule/internal/wizard"
)

func startedSession(t *testing.T, e *testEnv, code string) (token, sessionID string) {
	t.Helper()
	e.createCode(code, nil)
	tok := e.redeem(code, "Awa").Token
	return tok, e.startSession(tok).SessionID
}

func TestStartSessionIsIdempotent(t *testing.T) {
	e := newTestEnv(t)
	e.createCode("START2", nil)
	tok := e.redeem("START2", "Awa").Token

	first := e.startSession(tok)
	if first.SessionID == "" || first.Status != store.StatusStarted {
		t.Fatalf("first start = %+v", first)
	}
	if first.Wizard.Cursor != (wizard.Cursor{}) || first.Wizard.CanGoBack {
		t.Errorf("initial view = %+v", first.Wizard)
	}

	e.act(tok, first.SessionID, wizard.Action{Type: wizard.ActionNext})

	second := e.startSession(tok)
	if second.SessionID != first.SessionID {
		t.Fatalf("session id changed: %s → %s", first.SessionID, second.SessionID)
	}
	if second.Wizard.Cursor.SectionIndex != 1 {
		t.Errorf("progress not kept: cursor = %+v", second.Wizard.Cursor)
	}
}

func TestWizardActionErrors(t *testing.T) {
	e := newTestEnv(t)
	tok, id := startedSession(t, e, "WIZ222")
	path := "/api/sessions/" + id + "/wizard/actions"

	e.act(tok, id, wizard.Action{Type: wizard.ActionNext})
	e.act(tok, id, wizard.Action{Type: wizard.ActionNext})

	tests := []struct {
		name       string
		action     wizard.Action
		wantStatus int
	}{
		{"unknown action", wizard.Action{Type: "jump"}, http.StatusBadRequest},
		{"unknown question", wizard.Action{Type: wizard.ActionAnswerQuiz, ID: "q9", Value: "yes"}, http.StatusUnprocessableEntity},
		{"bad answer", wizard.Action{Type: wizard.ActionAnswerQuiz, ID: "q1", Value: "maybe"}, http.StatusUnprocessableEntity},
		{"wrong section", wizard.Action{Type: wizard.ActionSelectGesture, ID: "g1", Value: "Déjà fait"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantStatus(t, e.do(http.MethodPost, path, tt.action, withToken(tok)), tt.wantStatus)
		})
	}
}

func TestRefusedNextKeepsView(t *testing.T) {
	e := newTestEnv(t)
	tok, id := startedSession(t, e, "BLOCK2")

	e.act(tok, id, wizard.Action{Type: wizard.ActionNext})
	e.act(tok, id, wizard.Action{Type: wizard.ActionNext})
	e.act(tok, id, wizard.Action{Type: wizard.ActionAnswerQuiz, ID: "q1", Value: "yes"})

	got := e.act(tok, id, wizard.Action{Type: wizard.ActionNext})
	if got.Wizard.Cursor.SectionIndex != 2 || got.Wizard.CanProceed || got.Completed {
		t.Fatalf("blocked next = %+v", got)
	}
	if got.Wizard.Responses.Quiz["q1"] != "yes" {
		t.Errorf("answer lost: %+v", got.Wizard.Responses.Quiz)
	}
}

func TestSessionOwnership(t *testing.T) {
	e := newTestEnv(t)
	_, id := startedSession(t, e, "OWNER2")

	e.createCode("OTHER2", nil)
	intruder := e.redeem("OTHER2", "Mallory").Token

	wantStatus(t, e.do(http.MethodGet, "/api/sessions/"+id+"/wizard", nil, withToken(intruder)), http.StatusForbidden)
	wantStatus(t, e.do(http.MethodGet, "/api/sessions/missing/wizard", nil, withToken(intruder)), http.StatusNotFound)
}

func TestCompleteModule(t *testing.T) {
	e := newTestEnv(t)
	tok, id := startedSession(t, e, "DONE22")

	ch := e.broker.Subscribe(adminTopic)
	defer e.broker.Unsubscribe(adminTopic, ch)

	walkToEnd(e, tok, id)

	done := e.act(tok, id, wizard.Action{Type: wizard.ActionNext})
	if !done.Completed || done.Result == nil {
		t.Fatalf("expected completion, got %+v", done)
	}
	want := Completion{SessionID: id, Score: 60, YesCount: 3, TotalQuestions: 5, Profile: scoring.Beginner}
	if *done.Result != want {
		t.Errorf("result = %+v, want %+v", *done.Result, want)
	}

	sess, err := e.store.SessionByID(context.Background(), id)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if sess.Status != store.StatusCompleted || sess.Score == nil || *sess.Score != 60 {
		t.Fatalf("stored session = %+v", sess)
	}
	if sess.CorrectAnswers == nil || *sess.CorrectAnswers != 3 {
		t.Errorf("correct answers = %v, want 3", sess.CorrectAnswers)
	}

	var recorded wizard.Responses
	if err := json.Unmarshal(sess.ResponsesData, &recorded); err != nil {
		t.Fatalf("responses data: %v", err)
	}
	if recorded.Form["action_name"] != "Tri sélectif" || len(recorded.Stakeholders) != 2 {
		t.Errorf("recorded responses = %+v", recorded)
	}

	select {
	case data := <-ch:
		if !strings.Contains(string(data), `"type":"session_completed"`) || !strings.Contains(string(data), `"score":60`) {
			t.Errorf("event = %s", data)
		}
	default:
		t.Error("no completion event")
	}

	rec := e.do(http.MethodPost, "/api/sessions/"+id+"/wizard/actions", wizard.Action{Type: wizard.ActionNext}, withToken(tok))
	wantStatus(t, rec, http.StatusConflict)
}

func TestCompletedSessionRestoredWithoutProgress(t *testing.T) {
	e := newTestEnv(t)
	tok, id := startedSession(t, e, "LOST22")
	walkToEnd(e, tok, id)
	e.act(tok, id, wizard.Action{Type: wizard.ActionNext})

	if err := e.progress.Delete(context.Background(), id); err != nil {
		t.Fatalf("delete progress: %v", err)
	}

	rec := e.do(http.MethodGet, "/api/sessions/"+id+"/wizard", nil, withToken(tok))
	wantStatus(t, rec, http.StatusOK)
	v := decodeBody[viewBody](t, rec)
	if !v.Completed || v.Cursor.SectionIndex != 7 {
		t.Fatalf("view = %+v", v)
	}
	if v.Responses.Quiz["q1"] != "yes" || v.Responses.Form["responsible"] != "Awa" {
		t.Errorf("responses not restored: %+v", v.Responses)
	}
}
