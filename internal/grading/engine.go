package grading

import (
	"strings"

	"quizbank/internal/bank"
)

// OptionOrder is one slot of a session's frozen option shuffle. The
// slice index is the position shown to the user; OriginalIndex points
// back into the question's authored option list.
type OptionOrder struct {
	OriginalIndex int  `json:"original_index"`
	IsCorrect     bool `json:"is_correct"`
}

// Item pairs a question with the option order frozen for one session.
// Order is nil for free-text questions.
type Item struct {
	Question *bank.Question `json:"question"`
	Order    []OptionOrder  `json:"order,omitempty"`
}

// Answer is the user's response to a single question. Exactly one of
// Choice (shuffled option position) or Text is set; a nil Choice with
// blank Text means unanswered.
type Answer struct {
	Choice *int   `json:"choice,omitempty"`
	Text   string `json:"text,omitempty"`
}

func ChoiceAnswer(position int) Answer {
	return Answer{Choice: &position}
}

func TextAnswer(text string) Answer {
	return Answer{Text: text}
}

func (a Answer) IsBlank() bool {
	return a.Choice == nil && strings.TrimSpace(a.Text) == ""
}

// Outcome is the graded verdict for one question.
type Outcome struct {
	Answered    bool   `json:"answered"`
	IsCorrect   bool   `json:"is_correct"`
	CorrectText string `json:"correct_text,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

// Score aggregates a whole session. PerQuestion has an entry only for
// answered questions; unanswered ones count toward Total but are
// neither correct nor recorded.
type Score struct {
	Correct     int            `json:"correct"`
	Total       int            `json:"total"`
	PerQuestion map[int64]bool `json:"per_question"`
}

// Rate is the percentage score, 0 when the session had no questions.
func (s Score) Rate() float64 {
	if s.Total == 0 {
		return 0
	}
	return 100 * float64(s.Correct) / float64(s.Total)
}

// GradeOne grades a single answered question against the session's
// frozen option order. It never mutates its inputs, so re-grading the
// same answer always yields the same outcome.
func GradeOne(item Item, ans Answer, loc Locale) Outcome {
	q := item.Question
	out := Outcome{
		CorrectText: CanonicalAnswer(q, loc),
		Explanation: ExplanationText(q, loc),
	}
	if ans.IsBlank() {
		return out
	}
	out.Answered = true

	switch q.Type {
	case bank.TypeMultipleChoice:
		if ans.Choice == nil {
			return out
		}
		pos := *ans.Choice
		if pos < 0 || pos >= len(item.Order) {
			return out
		}
		if q.AnswerIndex < 0 || q.AnswerIndex >= len(q.Options) {
			return out
		}
		out.IsCorrect = item.Order[pos].OriginalIndex == q.AnswerIndex
	case bank.TypeFreeText:
		if ans.Text == "" {
			return out
		}
		got := normalizeFreeText(ans.Text)
		want := normalizeFreeText(CanonicalAnswer(q, loc))
		out.IsCorrect = want != "" && got == want
	}
	return out
}

// GradeSession grades every item in one pass. Unanswered questions get
// no PerQuestion entry and never count as correct.
func GradeSession(items []Item, answers map[int64]Answer, loc Locale) Score {
	score := Score{
		Total:       len(items),
		PerQuestion: make(map[int64]bool, len(items)),
	}
	for _, item := range items {
		ans, ok := answers[item.Question.ID]
		if !ok || ans.IsBlank() {
			continue
		}
		out := GradeOne(item, ans, loc)
		score.PerQuestion[item.Question.ID] = out.IsCorrect
		if out.IsCorrect {
			score.Correct++
		}
	}
	return score
}

// Free-text comparison is whitespace-trimmed and case-insensitive.
func normalizeFreeText(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
