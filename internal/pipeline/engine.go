package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/darth-dodo/habla-hermano-sub001/internal/domain"
)

const defaultStepTimeout = 30 * time.Second

// Generator abstracts the external text-generation service. Implementations
// may block or time out; the engine bounds each call with its step timeout.
type Generator interface {
	GenerateText(ctx context.Context, instructions string, conversation []domain.ChatMessage) (string, error)
}

// phase tracks the executor's position in the fixed turn pipeline.
type phase int

const (
	phaseInit phase = iota
	phaseResponded
	phaseScaffolded
	phaseAnalyzed
	phaseDone
	phaseFailed
)

func (p phase) String() string {
	switch p {
	case phaseInit:
		return "init"
	case phaseResponded:
		return "responded"
	case phaseScaffolded:
		return "scaffolded"
	case phaseAnalyzed:
		return "analyzed"
	case phaseDone:
		return "done"
	case phaseFailed:
		return "failed"
	}
	return "unknown"
}

// Engine executes the tutoring turn pipeline: respond, then scaffold for
// beginner tiers, then analyze. Steps run strictly in sequence within a turn;
// the engine holds no per-turn state and is safe for concurrent RunTurn calls.
type Engine struct {
	gen         Generator
	logger      *slog.Logger
	stepTimeout time.Duration
	maxWordBank int
}

type Option func(*Engine)

// WithStepTimeout bounds each external generation call. Zero disables the
// per-step bound; the caller's context still applies.
func WithStepTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.stepTimeout = d
	}
}

// WithLogger sets the logger used for phase transitions and degraded steps.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMaxWordBank caps the number of word-bank entries kept per scaffold.
func WithMaxWordBank(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxWordBank = n
		}
	}
}

// NewEngine creates an Engine backed by the given text generator.
func NewEngine(gen Generator, opts ...Option) (*Engine, error) {
	if gen == nil {
		return nil, errors.New("pipeline: generator must not be nil")
	}
	e := &Engine{
		gen:         gen,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		stepTimeout: defaultStepTimeout,
		maxWordBank: 6,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// RunTurn executes one full turn. On success the returned state's Messages
// are the prior messages extended by exactly two entries: the learner's
// message and the tutor's reply. On failure no partial state is returned.
//
// Only respond failures abort the turn. Scaffold and analyze degrade to
// empty payloads on any failure, so a turn with a usable reply still
// completes.
func (e *Engine) RunTurn(ctx context.Context, in TurnInput) (*ConversationState, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	st := newState(in)
	ph := phaseInit

	if err := e.respond(ctx, st); err != nil {
		e.advance(&ph, phaseFailed)
		return nil, err
	}
	e.advance(&ph, phaseResponded)

	if needsScaffold(st.Level) {
		e.scaffold(ctx, st)
		e.advance(&ph, phaseScaffolded)
	}

	e.analyze(ctx, st)
	e.advance(&ph, phaseAnalyzed)

	e.advance(&ph, phaseDone)
	return st, nil
}

func (e *Engine) advance(ph *phase, next phase) {
	*ph = next
	e.logger.Debug("turn phase", "phase", next.String())
}

// stepCtx bounds a single external call with the configured step timeout.
func (e *Engine) stepCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.stepTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.stepTimeout)
}

func validateInput(in TurnInput) error {
	if strings.TrimSpace(in.LearnerMessage) == "" {
		return newError(ErrorInvalidInput, "", "empty_learner_message", nil)
	}
	if _, err := domain.ParseLevel(string(in.Level)); err != nil {
		return newError(ErrorInvalidInput, "", "unknown_level", err)
	}
	if _, err := domain.ParseLanguage(string(in.TargetLanguage)); err != nil {
		return newError(ErrorInvalidInput, "", "unknown_language", err)
	}
	return nil
}
