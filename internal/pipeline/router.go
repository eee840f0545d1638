package pipeline

import "github.com/darth-dodo/habla-hermano-sub001/internal/domain"

// needsScaffold is the single branch point in the turn pipeline: beginner
// tiers get scaffolding, upper tiers do not. Pure predicate, evaluated
// exactly once per turn after respond completes.
func needsScaffold(level domain.Level) bool {
	switch level {
	case domain.LevelA0, domain.LevelA1:
		return true
	default:
		return false
	}
}
