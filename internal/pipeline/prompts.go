package pipeline

import (
	"fmt"
	"strings"

	"github.com/darth-dodo/habla-hermano-sub001/internal/domain"
)

// respondInstructions selects the tutor instruction template. Template choice
// is purely a function of (level, language); nothing else may influence it.
func respondInstructions(level domain.Level, language domain.Language) string {
	return strings.Join([]string{
		"Role:",
		fmt.Sprintf("You are a warm, patient %s tutor chatting with a learner at CEFR level %s.", language, level),
		"",
		"Task:",
		fmt.Sprintf("Continue the conversation in %s with a reply suited to the learner's level.", language),
		"",
		"Behavior Rules:",
		respondRules(level),
		"",
		"Output Contract:",
		"Return plain conversational text only. No JSON, no markdown, no meta commentary.",
	}, "\n")
}

func respondRules(level domain.Level) string {
	common := []string{
		"1) Keep the reply short: two to four sentences.",
		"2) End with one simple follow-up question to keep the learner talking.",
		"3) If the learner made a grammar mistake, do not point it out; instead use the correct form naturally in your reply.",
	}
	switch level {
	case domain.LevelA0:
		common = append(common,
			"4) Use only the most common everyday words and present tense.",
			"5) After each sentence in the target language, add a short English gloss in parentheses.")
	case domain.LevelA1:
		common = append(common,
			"4) Use simple vocabulary and short sentences in the target language only.")
	case domain.LevelA2:
		common = append(common,
			"4) Use everyday vocabulary; occasional past or future tense is fine.")
	default:
		common = append(common,
			"4) Speak naturally, introducing richer vocabulary and varied tenses.")
	}
	return strings.Join(common, "\n")
}

// scaffoldInstructions asks the generator to extract word-bank vocabulary
// from a tutor reply. Translations are requested only at A0.
func scaffoldInstructions(level domain.Level, language domain.Language) string {
	translationRule := "Leave translation as an empty string for every word."
	if level == domain.LevelA0 {
		translationRule = "Give a one-or-two word English translation for every word."
	}
	return strings.Join([]string{
		"Role:",
		fmt.Sprintf("You prepare vocabulary support for a beginner %s learner.", language),
		"",
		"Task:",
		fmt.Sprintf("From the %s tutor message you are given, pick the most useful words or short phrases the learner needs to understand it and to answer.", language),
		"",
		"Behavior Rules:",
		"1) Pick at most six items, most useful first.",
		"2) Prefer concrete nouns, common verbs, and set phrases actually present in the message.",
		"3) " + translationRule,
		"4) Be deterministic: identical input must yield identical output.",
		"",
		"Output Contract:",
		`Return JSON only with a single key words: an array of {"term":string,"translation":string}. No other keys, no prose.`,
	}, "\n")
}

// analyzeInstructions asks the generator to compare the learner's last
// message with the tutor reply and surface at most one gentle grammar tip.
func analyzeInstructions(language domain.Language) string {
	return strings.Join([]string{
		"Role:",
		fmt.Sprintf("You review one %s learner message for grammar.", language),
		"",
		"Task:",
		"Compare the learner message (user turn) with the tutor reply (assistant turn).",
		"Decide whether the learner made a correctable grammar mistake that the tutor reply already models correctly.",
		"",
		"Behavior Rules:",
		"1) Surface at most one mistake, the most instructive one.",
		"2) Explain the correction in plain English, in one or two sentences.",
		"3) If the learner message is grammatically fine, report no feedback.",
		"4) Grade the mistake: minor for slips, moderate for errors that change meaning.",
		"",
		"Output Contract:",
		`Return JSON only with keys has_feedback (boolean), tip (string), severity ("minor" or "moderate"). ` +
			`If has_feedback is false, return tip="" and severity="".`,
	}, "\n")
}

// hintText returns the short guidance string for a scaffold, keyed by
// (level, language).
func hintText(level domain.Level, language domain.Language) string {
	if level == domain.LevelA0 {
		switch language {
		case domain.LanguageSpanish:
			return "Try building your answer from the words below. One short sentence is plenty."
		case domain.LanguageGerman:
			return "Use the words below to build your answer. One short sentence is enough."
		default:
			return "Pick a word below and try a very short answer with it."
		}
	}
	switch language {
	case domain.LanguageSpanish:
		return "These words from the tutor's message may help your reply."
	case domain.LanguageGerman:
		return "These words from the tutor's message may help your reply."
	default:
		return "Here are some words from the message to reuse in your answer."
	}
}

// sentenceStarter returns the partial-sentence opener for a scaffold, keyed
// by (level, language).
func sentenceStarter(level domain.Level, language domain.Language) string {
	switch language {
	case domain.LanguageSpanish:
		if level == domain.LevelA0 {
			return "Yo "
		}
		return "Me gusta "
	case domain.LanguageGerman:
		if level == domain.LevelA0 {
			return "Ich "
		}
		return "Ich möchte "
	default:
		if level == domain.LevelA0 {
			return "Je "
		}
		return "Je voudrais "
	}
}
