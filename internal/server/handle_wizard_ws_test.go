package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/rsepme/rsemodule/internal/wizard"
)

// wsFrame covers both replies the socket sends.
type wsFrame struct {
	actionBody
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func TestWizardWebsocket(t *testing.T) {
	e := newTestEnv(t)
	tok, id := startedSession(t, e, "SOCK22")

	srv := httptest.NewServer(e.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + id + "/wizard/ws?token=" + tok
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	var first wsFrame
	if err := wsjson.Read(ctx, conn, &first); err != nil {
		t.Fatalf("read initial view: %v", err)
	}
	if first.Wizard.Cursor != (wizard.Cursor{}) {
		t.Fatalf("initial cursor = %+v", first.Wizard.Cursor)
	}

	steps := []struct {
		action      wizard.Action
		wantSection int
		wantStatus  int
	}{
		{wizard.Action{Type: wizard.ActionNext}, 1, 0},
		{wizard.Action{Type: wizard.ActionNext}, 2, 0},
		{wizard.Action{Type: wizard.ActionAnswerQuiz, ID: "q1", Value: "maybe"}, 0, http.StatusUnprocessableEntity},
		{wizard.Action{Type: wizard.ActionAnswerQuiz, ID: "q1", Value: "yes"}, 2, 0},
		{wizard.Action{Type: wizard.ActionPrevious}, 1, 0},
	}
	for _, s := range steps {
		if err := wsjson.Write(ctx, conn, s.action); err != nil {
			t.Fatalf("write %+v: %v", s.action, err)
		}
		var got wsFrame
		if err := wsjson.Read(ctx, conn, &got); err != nil {
			t.Fatalf("read reply to %+v: %v", s.action, err)
		}
		if s.wantStatus != 0 {
			if got.Status != s.wantStatus || got.Error == "" {
				t.Errorf("%+v: reply = %+v, want status %d", s.action, got, s.wantStatus)
			}
			continue
		}
		if got.Error != "" || got.Wizard.Cursor.SectionIndex != s.wantSection {
			t.Errorf("%+v: reply = %+v, want section %d", s.action, got, s.wantSection)
		}
	}

	conn.Close(websocket.StatusNormalClosure, "done")

	// Actions sent over the socket are visible over HTTP.
	rec := e.do(http.MethodGet, "/api/sessions/"+id+"/wizard", nil, withToken(tok))
	v := decodeBody[viewBody](t, rec)
	if v.Cursor.SectionIndex != 1 || v.Responses.Quiz["q1"] != "yes" {
		t.Errorf("http view = %+v", v)
	}
}

func TestWizardWebsocketRejectsOtherParticipant(t *testing.T) {
	e := newTestEnv(t)
	_, id := startedSession(t, e, "SOCK33")
	e.createCode("SOCK44", nil)
	intruder := e.redeem("SOCK44", "Mallory").Token

	rec := e.do(http.MethodGet, "/api/sessions/"+id+"/wizard/ws?token="+intruder, nil)
	wantStatus(t, rec, http.StatusForbidden)
}
