package server

import (
	"bytes"
	"context"
	"encoding/csv"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rsepme/rsemodule/internal/scoring"
	"github.com/rsepme/rsemodule/internal/store"
)

// AdminResultItem is a completed session with its derived profile.
type AdminResultItem struct {
	store.ResultRow
	Profile scoring.Profile `json:"profile"`
}

// CodeStats summarises completed sessions for one code.
type CodeStats struct {
	CodeID       string `json:"codeId"`
	Code         string `json:"code"`
	Label        string `json:"label"`
	Count        int    `json:"count"`
	AverageScore int    `json:"averageScore"`
}

type AdminResultsResponse struct {
	Sessions    []AdminResultItem `json:"sessions"`
	StatsByCode []CodeStats       `json:"statsByCode"`
}

type AdminDashboardResponse struct {
	Stats          store.Stats           `json:"stats"`
	RecentSessions []store.RecentSession `json:"recentSessions"`
}

type WhatsappSetting struct {
	Link string `json:"link"`
}

const recentSessionsLimit = 10

func handleAdminResults(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		codes, err := s.ListCodes(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		rows, err := filteredResults(r.Context(), s, r)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		items := make([]AdminResultItem, 0, len(rows))
		for _, row := range rows {
			items = append(items, AdminResultItem{
				ResultRow: row,
				Profile:   scoring.ProfileFromScore(row.Score, row.TotalQuestions),
			})
		}

		writeJSON(w, http.StatusOK, AdminResultsResponse{
			Sessions:    items,
			StatsByCode: statsByCode(codes, rows),
		})
	}
}

func handleAdminResultsCSV(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := filteredResults(r.Context(), s, r)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		data, err := resultsCSV(rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="resultats.csv"`)
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

// filteredResults applies the code (id or "all") and q (participant name,
// code or label, case-insensitive) query parameters.
func filteredResults(ctx context.Context, s *store.Store, r *http.Request) ([]store.ResultRow, error) {
	codeID := r.URL.Query().Get("code")
	if codeID == "all" {
		codeID = ""
	}
	rows, err := s.ListCompletedSessions(ctx, codeID)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	if q == "" {
		return rows, nil
	}
	out := rows[:0]
	for _, row := range rows {
		if strings.Contains(strings.ToLower(row.ParticipantName), q) ||
			strings.Contains(strings.ToLower(row.Code), q) ||
			strings.Contains(strings.ToLower(row.CodeLabel), q) {
			out = append(out, row)
		}
	}
	return out, nil
}

// statsByCode counts rows per code with a rounded average score. Every
// code is listed, including those with no completed session.
func statsByCode(codes []store.AccessCode, rows []store.ResultRow) []CodeStats {
	type acc struct{ count, sum int }
	byCode := make(map[string]*acc, len(codes))
	for _, row := range rows {
		a := byCode[row.CodeID]
		if a == nil {
			a = &acc{}
			byCode[row.CodeID] = a
		}
		a.count++
		a.sum += row.Score
	}

	out := make([]CodeStats, 0, len(codes))
	for _, c := range codes {
		st := CodeStats{CodeID: c.ID, Code: c.Code, Label: c.Label}
		if a := byCode[c.ID]; a != nil {
			st.Count = a.count
			st.AverageScore = int(math.Round(float64(a.sum) / float64(a.count)))
		}
		out = append(out, st)
	}
	return out
}

func resultsCSV(rows []store.ResultRow) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	cw.Write([]string{"Participant", "Code", "Libellé", "Score", "Profil", "Durée (s)", "Terminé le"})
	for _, row := range rows {
		cw.Write([]string{
			row.ParticipantName,
			row.Code,
			row.CodeLabel,
			strconv.Itoa(row.Score),
			scoring.ProfileFromScore(row.Score, row.TotalQuestions).Label,
			strconv.Itoa(row.DurationSeconds),
			row.CompletedAt.Format(time.RFC3339),
		})
	}
	cw.Flush()
	return buf.Bytes(), cw.Error()
}

func handleAdminDashboard(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.Stats(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		recent, err := s.RecentSessions(r.Context(), recentSessionsLimit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, AdminDashboardResponse{Stats: stats, RecentSessions: recent})
	}
}

func handleAdminGetWhatsapp(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link, err := s.Setting(r.Context(), store.SettingWhatsappGroupLink)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, WhatsappSetting{Link: link})
	}
}

func handleAdminPutWhatsapp(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req WhatsappSetting
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Link = strings.TrimSpace(req.Link)
		if req.Link != "" && !strings.HasPrefix(req.Link, "https://") {
			writeError(w, http.StatusBadRequest, "link must be an https URL")
			return
		}

		if err := s.PutSetting(r.Context(), store.SettingWhatsappGroupLink, req.Link); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, req)
	}
}
