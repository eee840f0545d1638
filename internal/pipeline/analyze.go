package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/darth-dodo/habla-hermano-sub001/internal/domain"
)

// grammarTipResponse is the JSON contract the grammar detection call must
// honor.
type grammarTipResponse struct {
	HasFeedback bool   `json:"has_feedback"`
	Tip         string `json:"tip"`
	Severity    string `json:"severity"`
}

// analyze runs unconditionally after respond (and scaffold, when it ran). It
// compares the learner's latest message with the tutor reply and attaches at
// most one grammar tip. Grammar feedback is best-effort: any failure
// degrades to no feedback rather than aborting the turn. It never mutates
// Messages or LastReply.
func (e *Engine) analyze(ctx context.Context, st *ConversationState) {
	if st.GrammarFeedback != nil {
		return
	}
	if ctx.Err() != nil {
		e.degradeAnalyze(st, "context_done", ctx.Err())
		return
	}

	callCtx, cancel := e.stepCtx(ctx)
	defer cancel()

	raw, err := e.gen.GenerateText(callCtx, analyzeInstructions(st.TargetLanguage), []domain.ChatMessage{
		{Role: domain.ChatRoleUser, Content: st.lastLearnerMessage()},
		{Role: domain.ChatRoleAssistant, Content: st.LastReply},
	})
	if err != nil {
		e.degradeAnalyze(st, "detection_error", err)
		return
	}

	parsed, err := parseGrammarTip(raw)
	if err != nil {
		e.degradeAnalyze(st, "malformed_grammar_tip", err)
		return
	}

	if !parsed.HasFeedback || strings.TrimSpace(parsed.Tip) == "" {
		st.GrammarFeedback = &domain.GrammarFeedback{HasFeedback: false}
		return
	}

	st.GrammarFeedback = &domain.GrammarFeedback{
		HasFeedback: true,
		TipText:     strings.TrimSpace(parsed.Tip),
		Severity:    normalizeSeverity(parsed.Severity),
	}
}

func (e *Engine) degradeAnalyze(st *ConversationState, reason string, err error) {
	e.logger.Warn("grammar analysis degraded", "reason", reason, "err", err)
	st.GrammarFeedback = &domain.GrammarFeedback{HasFeedback: false}
}

// normalizeSeverity clamps generator output to the known severity scale.
func normalizeSeverity(s string) domain.Severity {
	if domain.Severity(strings.ToLower(strings.TrimSpace(s))) == domain.SeverityModerate {
		return domain.SeverityModerate
	}
	return domain.SeverityMinor
}

func parseGrammarTip(raw string) (grammarTipResponse, error) {
	var out grammarTipResponse
	if err := decodeStrict(raw, &out); err != nil {
		return grammarTipResponse{}, fmt.Errorf("pipeline: decode grammar tip: %w", err)
	}
	return out, nil
}
