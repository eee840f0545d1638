package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"github.com/darth-dodo/habla-hermano-sub001/internal/domain"
	"github.com/darth-dodo/habla-hermano-sub001/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

// TurnRunner is the usecase surface the handler depends on.
type TurnRunner interface {
	Turn(ctx context.Context, in usecase.TurnRequest) (usecase.TurnResult, error)
}

// Handler adapts API Gateway proxy events to the tutor service.
type Handler struct {
	svc TurnRunner
}

func NewHandler(svc TurnRunner) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("handler: turn runner must not be nil")
	}
	return &Handler{svc: svc}, nil
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

func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := requestCorrelationID(event.Headers)

	var req turnRequest
	if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
		return jsonResponse(http.StatusBadRequest, correlationID, errorResponse{
			Error:  string(usecase.ErrorInvalidInput),
			Reason: "malformed_body",
		}), nil
	}

	out, err := h.svc.Turn(ctx, usecase.TurnRequest{
		Message:        req.Message,
		ConversationID: req.ConversationID,
		Level:          req.Level,
		TargetLanguage: req.TargetLanguage,
	})
	if err != nil {
		status, body := mapError(err)
		return jsonResponse(status, correlationID, body), nil
	}

	return jsonResponse(http.StatusOK, correlationID, turnResponse{
		Reply:           out.Reply,
		ConversationID:  out.ConversationID,
		Scaffolding:     out.Scaffolding,
		GrammarFeedback: out.GrammarFeedback,
	}), nil
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

func requestCorrelationID(headers map[string]string) string {
	for k, v := range headers {
		if http.CanonicalHeaderKey(k) == correlationHeader && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

func jsonResponse(status int, correlationID string, body any) events.APIGatewayProxyResponse {
	payload, err := json.Marshal(body)
	if err != nil {
		payload = []byte(`{"error":"INTERNAL_ERROR"}`)
		status = http.StatusInternalServerError
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: correlationID,
		},
		Body: string(payload),
	}
}
