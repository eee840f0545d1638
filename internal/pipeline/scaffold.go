package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/darth-dodo/habla-hermano-sub001/internal/domain"
)

// wordBankResponse is the JSON contract the scaffold extraction call must
// honor.
type wordBankResponse struct {
	Words []domain.WordEntry `json:"words"`
}

// scaffold attaches learning aids to the turn for beginner tiers. It never
// fails the turn: extraction errors, timeouts, and empty word banks all
// resolve to a disabled scaffold. It reads LastReply only and must not touch
// Messages.
func (e *Engine) scaffold(ctx context.Context, st *ConversationState) {
	if st.Scaffolding != nil {
		return
	}
	if ctx.Err() != nil {
		e.degradeScaffold(st, "context_done", ctx.Err())
		return
	}

	callCtx, cancel := e.stepCtx(ctx)
	defer cancel()

	raw, err := e.gen.GenerateText(callCtx, scaffoldInstructions(st.Level, st.TargetLanguage), []domain.ChatMessage{
		{Role: domain.ChatRoleUser, Content: st.LastReply},
	})
	if err != nil {
		e.degradeScaffold(st, "extraction_error", err)
		return
	}

	parsed, err := parseWordBank(raw)
	if err != nil {
		e.degradeScaffold(st, "malformed_word_bank", err)
		return
	}

	words := e.normalizeWordBank(parsed.Words, st.Level)
	if len(words) == 0 {
		// An empty scaffold is a valid outcome, not an error.
		st.Scaffolding = &domain.ScaffoldingConfig{Enabled: false}
		return
	}

	st.Scaffolding = &domain.ScaffoldingConfig{
		Enabled:         true,
		WordBank:        words,
		HintText:        hintText(st.Level, st.TargetLanguage),
		SentenceStarter: sentenceStarter(st.Level, st.TargetLanguage),
		AutoExpand:      st.Level == domain.LevelA0,
	}
}

func (e *Engine) degradeScaffold(st *ConversationState, reason string, err error) {
	e.logger.Warn("scaffold degraded", "reason", reason, "err", err)
	st.Scaffolding = &domain.ScaffoldingConfig{Enabled: false}
}

// normalizeWordBank enforces the level contract on extracted entries: A0
// entries must carry a translation, A1 entries must not.
func (e *Engine) normalizeWordBank(words []domain.WordEntry, level domain.Level) []domain.WordEntry {
	out := make([]domain.WordEntry, 0, len(words))
	for _, w := range words {
		term := strings.TrimSpace(w.Term)
		if term == "" {
			continue
		}
		translation := strings.TrimSpace(w.Translation)
		switch level {
		case domain.LevelA0:
			if translation == "" {
				continue
			}
		default:
			translation = ""
		}
		out = append(out, domain.WordEntry{Term: term, Translation: translation})
		if len(out) == e.maxWordBank {
			break
		}
	}
	return out
}

func parseWordBank(raw string) (wordBankResponse, error) {
	var out wordBankResponse
	if err := decodeStrict(raw, &out); err != nil {
		return wordBankResponse{}, fmt.Errorf("pipeline: decode word bank: %w", err)
	}
	return out, nil
}
