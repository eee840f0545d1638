package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/darth-dodo/habla-hermano-sub001/internal/domain"
	"github.com/darth-dodo/habla-hermano-sub001/internal/integrations/paramstore"
	"github.com/darth-dodo/habla-hermano-sub001/internal/pipeline"
)

const (
	defaultMaxContext    = 20
	defaultMaxMessage    = 500
	maxConversationTurns = 30
	statusComplete       = "complete"
)

type ParamGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

type LLMClient interface {
	Chat(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
	Moderate(ctx context.Context, input string) (bool, error)
}

type StateReadWriter interface {
	GetConversationTurnCount(ctx context.Context, conversationID string) (int, error)
	GetHistory(ctx context.Context, conversationID string, limit int) ([]domain.TurnRecord, error)
	SaveCompletedTurn(ctx context.Context, conversationID, learnerText, tutorReply string, level domain.Level, language domain.Language, turns int) error
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// TutorService runs one tutoring turn end to end: validation and moderation,
// history loading, the pipeline execution, and persistence of the completed
// turn.
type TutorService struct {
	params          ParamGetter
	llm             LLMClient
	state           StateReadWriter
	engine          *pipeline.Engine
	paramPrefix     string
	maxContextItems int
	maxMessageLen   int

	cacheMu      sync.RWMutex
	cacheLoaded  bool
	tutorPersona string
	openaiModel  string
}

type TurnRequest struct {
	Message        string
	ConversationID string
	Level          string
	TargetLanguage string
}

type TurnResult struct {
	Reply           string
	ConversationID  string
	Scaffolding     *domain.ScaffoldingConfig
	GrammarFeedback *domain.GrammarFeedback
}

func NewTutorService(p ParamGetter, llm LLMClient, s StateReadWriter, paramPrefix string, maxContextItems, maxMessageLen int, engineOpts ...pipeline.Option) (*TutorService, error) {
	if p == nil {
		return nil, errors.New("usecase: param getter must not be nil")
	}
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if s == nil {
		return nil, errors.New("usecase: state store must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("usecase: parameter prefix must not be empty")
	}
	if maxContextItems <= 0 {
		maxContextItems = defaultMaxContext
	}
	if maxMessageLen <= 0 {
		maxMessageLen = defaultMaxMessage
	}
	svc := &TutorService{
		params:          p,
		llm:             llm,
		state:           s,
		paramPrefix:     paramPrefix,
		maxContextItems: maxContextItems,
		maxMessageLen:   maxMessageLen,
	}
	engine, err := pipeline.NewEngine(&llmGenerator{svc: svc}, engineOpts...)
	if err != nil {
		return nil, err
	}
	svc.engine = engine
	return svc, nil
}

func (s *TutorService) Turn(ctx context.Context, in TurnRequest) (TurnResult, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return TurnResult{}, newError(ErrorInvalidInput, "empty_message", nil)
	}
	if len(message) > s.maxMessageLen {
		return TurnResult{}, newError(ErrorInvalidInput, "message_too_long", nil)
	}
	level, err := domain.ParseLevel(strings.TrimSpace(in.Level))
	if err != nil {
		return TurnResult{}, newError(ErrorInvalidInput, "unknown_level", err)
	}
	language, err := domain.ParseLanguage(strings.TrimSpace(in.TargetLanguage))
	if err != nil {
		return TurnResult{}, newError(ErrorInvalidInput, "unknown_language", err)
	}
	if err := s.ensureConfig(ctx); err != nil {
		return TurnResult{}, newError(ErrorInternal, "ssm_load_error", err)
	}

	convID := strings.TrimSpace(in.ConversationID)
	if convID == "" {
		convID = newUUID()
	}

	existingTurns := 0
	if strings.TrimSpace(in.ConversationID) != "" {
		turnCount, err := s.state.GetConversationTurnCount(ctx, convID)
		if err != nil {
			return TurnResult{}, newError(ErrorInternal, "dynamodb_turn_count_error", err)
		}
		existingTurns = turnCount
		if existingTurns >= maxConversationTurns {
			return TurnResult{}, newError(ErrorInvalidInput, "conversation_turn_limit", nil)
		}
	}

	flagged, err := s.llm.Moderate(ctx, message)
	if err != nil {
		if status, ok := upstreamStatusCode(err); ok && status == 429 {
			return TurnResult{}, newError(ErrorRateLimited, "moderation_rate_limited", err)
		}
		return TurnResult{}, newError(ErrorUpstream, "moderation_error", err)
	}
	if flagged {
		return TurnResult{}, newError(ErrorInvalidMessage, "moderation_flagged", nil)
	}

	history, err := s.state.GetHistory(ctx, convID, s.maxContextItems)
	if err != nil {
		return TurnResult{}, newError(ErrorInternal, "dynamodb_history_error", err)
	}

	final, err := s.engine.RunTurn(ctx, pipeline.TurnInput{
		PriorMessages:  historyToTurns(history),
		LearnerMessage: message,
		Level:          level,
		TargetLanguage: language,
	})
	if err != nil {
		return TurnResult{}, mapTurnError(err)
	}

	if err := s.state.SaveCompletedTurn(ctx, convID, message, final.LastReply, level, language, existingTurns+1); err != nil {
		return TurnResult{}, newError(ErrorInternal, "dynamodb_write_error", err)
	}

	result := TurnResult{
		Reply:          final.LastReply,
		ConversationID: convID,
		Scaffolding:    final.Scaffolding,
	}
	if final.GrammarFeedback != nil && final.GrammarFeedback.HasFeedback {
		result.GrammarFeedback = final.GrammarFeedback
	}
	return result, nil
}

// mapTurnError translates pipeline errors into the service taxonomy.
func mapTurnError(err error) *Error {
	var turnErr *pipeline.Error
	if !errors.As(err, &turnErr) {
		return newError(ErrorInternal, "pipeline_error", err)
	}
	switch turnErr.Code {
	case pipeline.ErrorInvalidInput:
		return newError(ErrorInvalidInput, turnErr.Reason, err)
	case pipeline.ErrorGeneration:
		if status, ok := upstreamStatusCode(err); ok && status == 429 {
			return newError(ErrorRateLimited, "generation_rate_limited", err)
		}
		return newError(ErrorUpstream, "generation_error", err)
	}
	return newError(ErrorInternal, "pipeline_error", err)
}

func (s *TutorService) ensureConfig(ctx context.Context) error {
	s.cacheMu.RLock()
	if s.cacheLoaded {
		s.cacheMu.RUnlock()
		return nil
	}
	s.cacheMu.RUnlock()

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cacheLoaded {
		return nil
	}

	persona, model, err := s.loadSSMParams(ctx)
	if err != nil {
		return err
	}

	s.tutorPersona = persona
	s.openaiModel = model
	s.cacheLoaded = true
	return nil
}

func (s *TutorService) loadSSMParams(ctx context.Context) (persona, model string, err error) {
	persona, err = s.params.GetParameter(ctx, paramstore.Join(s.paramPrefix, "tutor_persona"))
	if err != nil {
		return "", "", fmt.Errorf("usecase: load tutor persona: %w", err)
	}
	model, err = s.params.GetParameter(ctx, paramstore.Join(s.paramPrefix, "config/openai_model"))
	if err != nil {
		return "", "", fmt.Errorf("usecase: load openai model: %w", err)
	}
	return persona, model, nil
}

// cachedConfig returns the SSM-backed persona and model. Callers must have
// run ensureConfig first.
func (s *TutorService) cachedConfig() (persona, model string) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.tutorPersona, s.openaiModel
}

// llmGenerator adapts the provider client to the pipeline's Generator
// interface, binding the SSM-configured model and tutor persona.
type llmGenerator struct {
	svc *TutorService
}

func (g *llmGenerator) GenerateText(ctx context.Context, instructions string, conversation []domain.ChatMessage) (string, error) {
	persona, model := g.svc.cachedConfig()

	messages := make([]domain.ChatMessage, 0, len(conversation)+2)
	if strings.TrimSpace(persona) != "" {
		messages = append(messages, domain.ChatMessage{Role: domain.ChatRoleSystem, Content: persona})
	}
	messages = append(messages, domain.ChatMessage{Role: domain.ChatRoleSystem, Content: instructions})
	messages = append(messages, conversation...)

	return g.svc.llm.Chat(ctx, model, messages)
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}

var newUUID = func() string {
	return uuid.NewString()
}
