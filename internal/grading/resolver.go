package grading

import (
	"strings"

	"quizbank/internal/bank"
)

// Locale selects which language variant of a question is shown and
// which canonical answer free-text input is graded against.
type Locale string

const (
	LocaleKorean  Locale = "ko"
	LocaleEnglish Locale = "en"
)

func ParseLocale(v string) Locale {
	if strings.EqualFold(strings.TrimSpace(v), "en") {
		return LocaleEnglish
	}
	return LocaleKorean
}

// QuestionText resolves the prompt for loc. The English variant is
// used only when it is present and non-blank; otherwise the primary
// Korean text wins.
func QuestionText(q *bank.Question, loc Locale) string {
	if loc == LocaleEnglish && strings.TrimSpace(q.TextEn) != "" {
		return q.TextEn
	}
	return q.Text
}

// OptionText resolves one choice by its original (unshuffled) index.
// Out-of-range indexes yield "" rather than panicking so display code
// can render partially broken data.
func OptionText(q *bank.Question, originalIndex int, loc Locale) string {
	if originalIndex < 0 || originalIndex >= len(q.Options) {
		return ""
	}
	if loc == LocaleEnglish && originalIndex < len(q.OptionsEn) {
		if en := strings.TrimSpace(q.OptionsEn[originalIndex]); en != "" {
			return q.OptionsEn[originalIndex]
		}
	}
	return q.Options[originalIndex]
}

// CanonicalAnswer resolves the reference answer text for grading and
// reporting. Each locale falls back to the other when its own variant
// is blank, so a question translated in only one language still grades.
func CanonicalAnswer(q *bank.Question, loc Locale) string {
	if q.Type == bank.TypeMultipleChoice {
		return OptionText(q, q.AnswerIndex, loc)
	}
	ko := strings.TrimSpace(q.Answer)
	en := strings.TrimSpace(q.AnswerEn)
	if loc == LocaleEnglish {
		if en != "" {
			return en
		}
		return ko
	}
	if ko != "" {
		return ko
	}
	return en
}

func ExplanationText(q *bank.Question, loc Locale) string {
	if loc == LocaleEnglish && strings.TrimSpace(q.ExplanationEn) != "" {
		return q.ExplanationEn
	}
	return q.Explanation
}
