package pipeline

import (
	"github.com/darth-dodo/habla-hermano-sub001/internal/domain"
)

// TurnInput is the caller-supplied starting point for one turn.
type TurnInput struct {
	PriorMessages  []domain.Turn
	LearnerMessage string
	Level          domain.Level
	TargetLanguage domain.Language
}

// ConversationState is the record threaded through one turn's pipeline.
// It is single-owner: steps mutate it strictly in sequence and it is never
// shared across concurrent turns. Scaffolding and GrammarFeedback are nil
// until their owning step runs, and write-once afterwards.
type ConversationState struct {
	Messages        []domain.Turn
	Level           domain.Level
	TargetLanguage  domain.Language
	LastReply       string
	Scaffolding     *domain.ScaffoldingConfig
	GrammarFeedback *domain.GrammarFeedback
}

// newState builds the turn's state from caller input: a private copy of the
// prior messages with the learner's message appended. Respond appends the
// tutor reply, bringing the total growth per successful turn to exactly two
// entries.
func newState(in TurnInput) *ConversationState {
	messages := make([]domain.Turn, 0, len(in.PriorMessages)+2)
	messages = append(messages, in.PriorMessages...)
	messages = append(messages, domain.Turn{Role: domain.RoleLearner, Content: in.LearnerMessage})
	return &ConversationState{
		Messages:       messages,
		Level:          in.Level,
		TargetLanguage: in.TargetLanguage,
	}
}

// lastLearnerMessage returns the most recent learner turn, or "" if none.
func (s *ConversationState) lastLearnerMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == domain.RoleLearner {
			return s.Messages[i].Content
		}
	}
	return ""
}

// chatHistory maps the conversation onto the provider chat shape.
func (s *ConversationState) chatHistory() []domain.ChatMessage {
	out := make([]domain.ChatMessage, 0, len(s.Messages))
	for _, turn := range s.Messages {
		role := domain.ChatRoleUser
		if turn.Role == domain.RoleTutor {
			role = domain.ChatRoleAssistant
		}
		out = append(out, domain.ChatMessage{Role: role, Content: turn.Content})
	}
	return out
}
