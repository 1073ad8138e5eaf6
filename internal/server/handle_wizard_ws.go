package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/rsepme/rsemodule/internal/wizard"
)

// WSError is sent in place of an ActionResponse when an action is refused.
type WSError struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// handleWizardWS carries wizard actions and views over a websocket. The
// first frame is the current view; each action frame gets one reply.
func handleWizardWS(logger *slog.Logger, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, doc, ok := ownedSession(w, r, d)
		if !ok {
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
		defer cancel()

		p, err := progressFor(ctx, d, sess, doc)
		if err != nil {
			logger.Error("loading progress", "error", err, "session_id", sess.ID)
			conn.Close(websocket.StatusInternalError, "internal error")
			return
		}
		if err := wsjson.Write(ctx, conn, ActionResponse{Wizard: wizard.BuildView(doc, p), Completed: p.Completed}); err != nil {
			return
		}

		for {
			var a wizard.Action
			if err := wsjson.Read(ctx, conn, &a); err != nil {
				logger.Debug("websocket read ended", "error", err, "session_id", sess.ID)
				return
			}

			var reply any
			resp, err := applyAction(ctx, logger, d, sess, doc, a)
			switch {
			case err == nil:
				reply = resp
			case actionStatus(err) == http.StatusInternalServerError:
				logger.Error("applying wizard action", "error", err, "session_id", sess.ID, "action", a.Type)
				reply = WSError{Error: "internal error", Status: http.StatusInternalServerError}
			default:
				reply = WSError{Error: err.Error(), Status: actionStatus(err)}
			}

			if err := wsjson.Write(ctx, conn, reply); err != nil {
				logger.Debug("websocket write failed", "error", err, "session_id", sess.ID)
				return
			}
		}
	}
}
