package usecase

import (
	"strings"

	"github.com/darth-dodo/habla-hermano-sub001/internal/domain"
)

// historyToTurns maps persisted turn records onto prior conversation turns
// for the pipeline. Only completed records with both sides present are
// replayed.
func historyToTurns(history []domain.TurnRecord) []domain.Turn {
	turns := make([]domain.Turn, 0, len(history)*2)
	for _, rec := range history {
		if rec.Status != statusComplete {
			continue
		}
		learner := strings.TrimSpace(rec.LearnerText)
		tutor := strings.TrimSpace(rec.TutorReply)
		if learner == "" || tutor == "" {
			continue
		}
		turns = append(turns,
			domain.Turn{Role: domain.RoleLearner, Content: learner},
			domain.Turn{Role: domain.RoleTutor, Content: tutor},
		)
	}
	return turns
}
