package pipeline

import (
	"context"
	"strings"

	"github.com/darth-dodo/habla-hermano-sub001/internal/domain"
)

// respond generates the tutor reply for the turn. This is the one mandatory
// generation call: any failure, timeout, or empty result aborts the turn.
func (e *Engine) respond(ctx context.Context, st *ConversationState) error {
	instructions := respondInstructions(st.Level, st.TargetLanguage)

	callCtx, cancel := e.stepCtx(ctx)
	defer cancel()

	reply, err := e.gen.GenerateText(callCtx, instructions, st.chatHistory())
	if err != nil {
		return newError(ErrorGeneration, StepRespond, "generate_reply_error", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return newError(ErrorGeneration, StepRespond, "empty_reply", nil)
	}

	st.LastReply = reply
	st.Messages = append(st.Messages, domain.Turn{Role: domain.RoleTutor, Content: reply})
	return nil
}
