package pipeline

import "fmt"

type ErrorCode string

const (
	// ErrorInvalidInput marks malformed caller input, rejected before any
	// step runs.
	ErrorInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrorGeneration marks a failed or empty mandatory generation call.
	// Fatal to the turn; the engine never retries internally.
	ErrorGeneration ErrorCode = "GENERATION_FAILURE"
)

// Step names the pipeline step an error originated from.
type Step string

const (
	StepRespond  Step = "respond"
	StepScaffold Step = "scaffold"
	StepAnalyze  Step = "analyze"
)

// Error is the typed turn error surfaced to callers. Scaffold and analyze
// failures degrade locally and never produce one; only validation and
// respond failures do.
type Error struct {
	Code   ErrorCode
	Step   Step
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	prefix := "pipeline"
	if e.Step != "" {
		prefix = fmt.Sprintf("pipeline: %s", e.Step)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s (%s)", prefix, e.Code, e.Reason)
	}
	return fmt.Sprintf("%s: %s (%s): %v", prefix, e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, step Step, reason string, err error) *Error {
	return &Error{Code: code, Step: step, Reason: reason, Err: err}
}
