package domain

import "fmt"

// Level is a CEFR-style proficiency tier. A0 is the lowest tier and gates the
// richest scaffolding; B1 is the highest tier supported.
type Level string

const (
	LevelA0 Level = "A0"
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
)

// ParseLevel validates a caller-supplied level string.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelA0, LevelA1, LevelA2, LevelB1:
		return Level(s), nil
	}
	return "", fmt.Errorf("domain: unknown level %q", s)
}

// Language is a supported target language for tutoring.
type Language string

const (
	LanguageSpanish Language = "Spanish"
	LanguageGerman  Language = "German"
	LanguageFrench  Language = "French"
)

// ParseLanguage validates a caller-supplied target language string.
func ParseLanguage(s string) (Language, error) {
	switch Language(s) {
	case LanguageSpanish, LanguageGerman, LanguageFrench:
		return Language(s), nil
	}
	return "", fmt.Errorf("domain: unknown target language %q", s)
}

// WordEntry is one word-bank item. Translation is populated only for A0
// learners.
type WordEntry struct {
	Term        string `json:"term"`
	Translation string `json:"translation,omitempty"`
}

// ScaffoldingConfig is the auxiliary learning-aid payload attached to a turn
// for low-proficiency learners. Enabled=false marks a valid empty scaffold.
type ScaffoldingConfig struct {
	Enabled         bool        `json:"enabled"`
	WordBank        []WordEntry `json:"wordBank,omitempty"`
	HintText        string      `json:"hintText,omitempty"`
	SentenceStarter string      `json:"sentenceStarter,omitempty"`
	AutoExpand      bool        `json:"autoExpand"`
}

// Severity grades a grammar tip for display styling. Opaque to the pipeline.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
)

// GrammarFeedback is the optional gentle-nudge grammar tip attached to a
// turn. TipText explains one correction in the learner's native language.
type GrammarFeedback struct {
	HasFeedback bool     `json:"hasFeedback"`
	TipText     string   `json:"tipText,omitempty"`
	Severity    Severity `json:"severity,omitempty"`
}
