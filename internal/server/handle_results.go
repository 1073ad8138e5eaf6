package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rsepme/rsemodule/internal/scoring"
	"github.com/rsepme/rsemodule/internal/store"
)

type ResultsResponse struct {
	SessionID       string          `json:"sessionId"`
	ParticipantName string          `json:"participantName"`
	Completed       bool            `json:"completed"`
	Score           int             `json:"score"`
	YesCount        int             `json:"yesCount"`
	TotalQuestions  int             `json:"totalQuestions"`
	Profile         scoring.Profile `json:"profile"`
	CompletedAt     *time.Time      `json:"completedAt,omitempty"`
	DurationSeconds *int            `json:"durationSeconds,omitempty"`
}

// handleResults reads a session's result back. The score and yesCount
// query parameters are only used while the session has no recorded score;
// yesCount wins over score when both are given.
func handleResults(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, doc, ok := ownedSession(w, r, d)
		if !ok {
			return
		}

		resp := ResultsResponse{
			SessionID:       sess.ID,
			ParticipantName: sess.ParticipantName,
			Completed:       sess.Status == store.StatusCompleted,
			TotalQuestions:  doc.TotalQuestions(),
			CompletedAt:     sess.CompletedAt,
			DurationSeconds: sess.DurationSeconds,
		}
		if sess.TotalQuestions != nil && *sess.TotalQuestions > 0 {
			resp.TotalQuestions = *sess.TotalQuestions
		}

		q := r.URL.Query()
		switch {
		case sess.Score != nil:
			resp.Score = *sess.Score
			if sess.CorrectAnswers != nil {
				resp.YesCount = *sess.CorrectAnswers
			} else {
				resp.YesCount = scoring.YesCountFromScore(resp.Score, resp.TotalQuestions)
			}
		case q.Has("yesCount"):
			yes, err := strconv.Atoi(q.Get("yesCount"))
			if err != nil || yes < 0 || yes > resp.TotalQuestions {
				writeError(w, http.StatusBadRequest, "invalid yesCount")
				return
			}
			resp.YesCount = yes
			resp.Score = scoring.Score(yes, resp.TotalQuestions)
		case q.Has("score"):
			score, err := strconv.Atoi(q.Get("score"))
			if err != nil || score < 0 || score > 100 {
				writeError(w, http.StatusBadRequest, "invalid score")
				return
			}
			resp.Score = score
			resp.YesCount = scoring.YesCountFromScore(score, resp.TotalQuestions)
		}
		resp.Profile = scoring.ProfileFor(resp.YesCount)

		writeJSON(w, http.StatusOK, resp)
	}
}

type ShareRequest struct {
	Message string `json:"message"`
}

type ShareResponse struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

func handleShare(logger *slog.Logger, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _, ok := ownedSession(w, r, d)
		if !ok {
			return
		}

		var req ShareRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}

		link, err := d.Store.Setting(r.Context(), store.SettingWhatsappGroupLink)
		if err != nil {
			logger.Error("reading whatsapp link", "error", err)
			link = ""
		}

		err = d.Store.LogShareMessage(r.Context(), store.ShareMessage{
			SessionID:     sess.ID,
			ParticipantID: sess.ParticipantID,
			Message:       req.Message,
			GroupLink:     link,
		})
		if err != nil {
			// The link is still returned.
			logger.Error("logging share message", "error", err, "session_id", sess.ID)
		}

		text := shareText(d.ShareModuleName, sess.ParticipantName, req.Message)
		writeJSON(w, http.StatusOK, ShareResponse{
			Text: text,
			URL:  shareURL(link, text),
		})
	}
}

func shareText(moduleName, participantName, message string) string {
	if participantName == "" {
		participantName = "Participant"
	}
	return "Bonjour, je viens de terminer le " + moduleName + ".\n\nMon nom: " + participantName + "\n\n" + message
}

// uriComponent undoes the escapes url.QueryEscape adds beyond what
// encodeURIComponent does in browsers.
var uriComponent = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// shareURL appends text to the group link, or to a plain wa.me link when
// no group is configured.
func shareURL(groupLink, text string) string {
	enc := uriComponent.Replace(url.QueryEscape(text))
	if groupLink == "" {
		return "https://wa.me/?text=" + enc
	}
	sep := "?"
	if strings.Contains(groupLink, "?") {
		sep = "&"
	}
	return groupLink + sep + "text=" + enc
}
