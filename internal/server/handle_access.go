package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rsepme/rsemodule/internal/access"
	"github.com/rsepme/rsemodule/internal/module"
)

// firstModule is where a redeemed participant is sent.
const firstModule = 1

type RedeemRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type RedeemResponse struct {
	ParticipantID string `json:"participantId"`
	CodeID        string `json:"codeId"`
	Module        int    `json:"module"`
	Token         string `json:"token"`
}

func handleRedeem(logger *slog.Logger, gate *access.Gate, tokens *Tokens, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RedeemRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		red, err := gate.Redeem(r.Context(), req.Code, req.Name)
		if err != nil {
			status := redeemStatus(err)
			if status == http.StatusInternalServerError {
				logger.Error("redeeming access code", "error", err)
			}
			writeError(w, status, access.Message(err))
			return
		}

		token, err := tokens.Sign(red.ParticipantID, red.CodeID, red.Name)
		if err != nil {
			logger.Error("signing participant token", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(adminTopic, ActivityEvent{
			Type:            eventParticipantJoined,
			ParticipantName: red.Name,
			CodeID:          red.CodeID,
		})

		writeJSON(w, http.StatusOK, RedeemResponse{
			ParticipantID: red.ParticipantID,
			CodeID:        red.CodeID,
			Module:        firstModule,
			Token:         token,
		})
	}
}

func redeemStatus(err error) int {
	switch {
	case errors.Is(err, access.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, access.ErrCodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, access.ErrCodeInactive),
		errors.Is(err, access.ErrCodeExpired),
		errors.Is(err, access.ErrCodeExhausted):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func handleModuleContent(modules *module.Loader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, ok := moduleFromPath(w, r, modules)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

func moduleFromPath(w http.ResponseWriter, r *http.Request, modules *module.Loader) (*module.Document, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, "invalid module number")
		return nil, false
	}
	doc, err := modules.Get(n)
	if err != nil {
		writeError(w, http.StatusNotFound, "module not found")
		return nil, false
	}
	return doc, true
}
