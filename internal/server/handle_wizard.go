package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rsepme/rsemodule/internal/module"
	"github.com/rsepme/rsemodule/internal/scoring"
	"github.com/rsepme/rsemodule/internal/store"
	"github.com/rsepme/rsemodule/internal/tracking"
	"github.com/rsepme/rsemodule/internal/wizard"
)

type StartSessionResponse struct {
	SessionID string      `json:"sessionId"`
	Status    string      `json:"status"`
	Wizard    wizard.View `json:"wizard"`
}

// Completion is the result returned when the last section is finished.
type Completion struct {
	SessionID      string          `json:"sessionId"`
	Score          int             `json:"score"`
	YesCount       int             `json:"yesCount"`
	TotalQuestions int             `json:"totalQuestions"`
	Profile        scoring.Profile `json:"profile"`
}

type ActionResponse struct {
	Wizard    wizard.View `json:"wizard"`
	Completed bool        `json:"completed"`
	Result    *Completion `json:"result,omitempty"`
}

func handleStartSession(logger *slog.Logger, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, ok := moduleFromPath(w, r, d.Modules)
		if !ok {
			return
		}
		claims := participantFrom(r)

		started, err := d.Tracker.Start(r.Context(), claims.ParticipantID, claims.CodeID, doc.Number)
		if errors.Is(err, tracking.ErrModuleNotFound) {
			writeError(w, http.StatusNotFound, "module not found")
			return
		}
		if err != nil {
			logger.Error("starting session", "error", err, "participant_id", claims.ParticipantID)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		sess, err := d.Tracker.Lookup(r.Context(), started.SessionID)
		if err != nil {
			logger.Error("reading session", "error", err, "session_id", started.SessionID)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		p, err := progressFor(r.Context(), d, sess, doc)
		if err != nil {
			logger.Error("creating progress", "error", err, "session_id", sess.ID)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if started.Created {
			d.Broker.Publish(adminTopic, ActivityEvent{
				Type:            eventSessionStarted,
				SessionID:       sess.ID,
				ParticipantName: sess.ParticipantName,
				CodeID:          sess.AccessCodeID,
			})
		}

		writeJSON(w, http.StatusOK, StartSessionResponse{
			SessionID: sess.ID,
			Status:    sess.Status,
			Wizard:    wizard.BuildView(doc, p),
		})
	}
}

func handleWizardState(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, doc, ok := ownedSession(w, r, d)
		if !ok {
			return
		}
		p, err := progressFor(r.Context(), d, sess, doc)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, wizard.BuildView(doc, p))
	}
}

func handleWizardAction(logger *slog.Logger, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, doc, ok := ownedSession(w, r, d)
		if !ok {
			return
		}

		var a wizard.Action
		if err := readJSON(r, &a); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := applyAction(r.Context(), logger, d, sess, doc, a)
		if err != nil {
			status := actionStatus(err)
			if status == http.StatusInternalServerError {
				logger.Error("applying wizard action", "error", err, "session_id", sess.ID, "action", a.Type)
				writeError(w, status, "internal error")
				return
			}
			writeError(w, status, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ownedSession loads the session named in the path and checks it belongs
// to the calling participant.
func ownedSession(w http.ResponseWriter, r *http.Request, d Deps) (store.Session, *module.Document, bool) {
	sess, err := d.Tracker.Lookup(r.Context(), chi.URLParam(r, "sessionID"))
	if errors.Is(err, tracking.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return sess, nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return sess, nil, false
	}

	if sess.ParticipantID != participantFrom(r).ParticipantID {
		writeError(w, http.StatusForbidden, "session belongs to another participant")
		return sess, nil, false
	}

	doc, err := d.Modules.Get(sess.ModuleNumber)
	if err != nil {
		writeError(w, http.StatusNotFound, "module not found")
		return sess, nil, false
	}
	return sess, doc, true
}

// progressFor returns the stored progress for sess, creating it on first
// use. A completed session whose progress was lost is rebuilt from the
// recorded responses.
func progressFor(ctx context.Context, d Deps, sess store.Session, doc *module.Document) (wizard.Progress, error) {
	initial := wizard.NewProgress(doc, sess.StartedAt)
	if sess.Status == store.StatusCompleted {
		initial.State = wizard.State{Section: doc.LastIndex()}
		initial.Completed = true
		if len(sess.ResponsesData) > 0 {
			if err := json.Unmarshal(sess.ResponsesData, &initial.Responses); err != nil {
				return wizard.Progress{}, fmt.Errorf("decoding recorded responses: %w", err)
			}
		}
	}
	return d.Progress.Create(ctx, sess.ID, initial)
}

// applyAction runs a against the session's progress and records the
// result when it completes the module.
func applyAction(ctx context.Context, logger *slog.Logger, d Deps, sess store.Session, doc *module.Document, a wizard.Action) (ActionResponse, error) {
	if _, err := progressFor(ctx, d, sess, doc); err != nil {
		return ActionResponse{}, err
	}

	var outcome wizard.Outcome
	p, err := d.Progress.Update(ctx, sess.ID, func(p *wizard.Progress) error {
		var err error
		outcome, err = p.Apply(doc, a)
		return err
	})
	if err != nil {
		return ActionResponse{}, err
	}

	resp := ActionResponse{Wizard: wizard.BuildView(doc, p)}
	if outcome != wizard.Completed {
		return resp, nil
	}

	res := scoring.Compute(p.Responses.Quiz, doc.TotalQuestions())
	recordCompletion(ctx, logger, d, sess, p, res)

	resp.Completed = true
	resp.Result = &Completion{
		SessionID:      sess.ID,
		Score:          res.Score,
		YesCount:       res.YesCount,
		TotalQuestions: res.TotalQuestions,
		Profile:        res.Profile,
	}
	return resp, nil
}

// recordCompletion persists the result. Failures are logged; the
// participant still sees their result.
func recordCompletion(ctx context.Context, logger *slog.Logger, d Deps, sess store.Session, p wizard.Progress, res scoring.Result) {
	data, err := json.Marshal(p.Responses)
	if err != nil {
		logger.Error("encoding responses", "error", err, "session_id", sess.ID)
	}

	err = d.Tracker.Complete(ctx, sess.ID, tracking.Result{
		Score:           res.Score,
		TotalQuestions:  res.TotalQuestions,
		CorrectAnswers:  res.YesCount,
		DurationSeconds: int(time.Since(p.StartedAt) / time.Second),
		ResponsesData:   data,
	})
	if err != nil {
		logger.Error("recording completion", "error", err, "session_id", sess.ID)
		return
	}

	score := res.Score
	d.Broker.Publish(adminTopic, ActivityEvent{
		Type:            eventSessionCompleted,
		SessionID:       sess.ID,
		ParticipantName: sess.ParticipantName,
		CodeID:          sess.AccessCodeID,
		Score:           &score,
	})
}

func actionStatus(err error) int {
	switch {
	case errors.Is(err, wizard.ErrInvalidResponse),
		errors.Is(err, wizard.ErrWrongSection),
		errors.Is(err, wizard.ErrSelectionFull):
		return http.StatusUnprocessableEntity
	case errors.Is(err, wizard.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, wizard.ErrCompleted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
