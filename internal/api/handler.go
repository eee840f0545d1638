// Package api provides the HTTP surface for the local tutoring server.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/darth-dodo/habla-hermano-sub001/internal/domain"
	"github.com/darth-dodo/habla-hermano-sub001/internal/usecase"
)

// TurnRunner is the usecase surface the HTTP handler depends on.
type TurnRunner interface {
	Turn(ctx context.Context, in usecase.TurnRequest) (usecase.TurnResult, error)
}

// Handler serves tutoring turns over HTTP.
type Handler struct {
	svc TurnRunner
}

func NewHandler(svc TurnRunner) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("api: turn runner must not be nil")
	}
	return &Handler{svc: svc}, nil
}

// RegisterRoutes mounts the tutoring endpoints on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/turn", h.handleTurn)
	r.Get("/healthz", handleHealth)
}

type turnRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId"`
	Level          string `json:"level"`
	TargetLanguage string `json:"targetLanguage"`
}

type turnResponse struct {
	Reply           string                    `json:"reply"`
	ConversationID  string                    `json:"conversationId"`
	Scaffolding     *domain.ScaffoldingConfig `json:"scaffolding,omitempty"`
	GrammarFeedback *domain.GrammarFeedback   `json:"grammarFeedback,omitempty"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func (h *Handler) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  string(usecase.ErrorInvalidInput),
			Reason: "malformed_body",
		})
		return
	}

	out, err := h.svc.Turn(r.Context(), usecase.TurnRequest{
		Message:        req.Message,
		ConversationID: req.ConversationID,
		Level:          req.Level,
		TargetLanguage: req.TargetLanguage,
	})
	if err != nil {
		status, body := mapError(err)
		writeJSON(w, status, body)
		return
	}

	writeJSON(w, http.StatusOK, turnResponse{
		Reply:           out.Reply,
		ConversationID:  out.ConversationID,
		Scaffolding:     out.Scaffolding,
		GrammarFeedback: out.GrammarFeedback,
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func mapError(err error) (int, errorResponse) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		return http.StatusInternalServerError, errorResponse{Error: string(usecase.ErrorInternal)}
	}
	body := errorResponse{Error: string(ucErr.Code), Reason: ucErr.Reason}
	switch ucErr.Code {
	case usecase.ErrorInvalidInput, usecase.ErrorInvalidMessage:
		return http.StatusBadRequest, body
	case usecase.ErrorRateLimited:
		return http.StatusTooManyRequests, body
	case usecase.ErrorUpstream:
		return http.StatusBadGateway, body
	default:
		return http.StatusInternalServerError, body
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"INTERNAL_ERROR"}`, http.StatusInternalServerError)
	}
}
