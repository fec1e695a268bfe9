package report

import (
	"time"

	"quizbank/internal/grading"
	"quizbank/internal/session"
)

// DetailRow is one graded question in a submitted report. QuestionText
// and the multiple-choice answer texts are always the primary-locale
// strings so submissions from mixed-language sessions stay comparable.
type DetailRow struct {
	QuestionID    int64  `json:"question_id"`
	QuestionText  string `json:"question_text"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
}

// Report is the flattened record of a finished exam-mode session.
type Report struct {
	ID          int64       `json:"id,omitempty"`
	SessionID   string      `json:"session_id"`
	UserName    string      `json:"user_name"`
	UserEmail   string      `json:"user_email"`
	GroupID     int64       `json:"group_id"`
	GroupName   string      `json:"group_name"`
	Correct     int         `json:"correct"`
	Total       int         `json:"total"`
	ScoreRate   float64     `json:"score_rate"`
	Details     []DetailRow `json:"details"`
	SubmittedAt time.Time   `json:"submitted_at"`
}

// BuildReport flattens a finished session into a report. Unanswered
// questions appear with an empty user answer and count as wrong.
func BuildReport(sess *session.Session) *Report {
	score := sess.Score
	if score == nil {
		s := grading.GradeSession(sess.Drawn, sess.Answers, sess.Locale)
		score = &s
	}

	rep := &Report{
		SessionID: sess.ID,
		UserName:  sess.UserName,
		UserEmail: sess.UserEmail,
		GroupID:   sess.GroupID,
		GroupName: sess.GroupName,
		Correct:   score.Correct,
		Total:     score.Total,
		ScoreRate: score.Rate(),
		Details:   make([]DetailRow, 0, len(sess.Drawn)),
	}

	for _, item := range sess.Drawn {
		q := item.Question
		row := DetailRow{
			QuestionID:    q.ID,
			QuestionText:  grading.QuestionText(q, grading.LocaleKorean),
			CorrectAnswer: correctAnswerText(item, sess.Locale),
			IsCorrect:     score.PerQuestion[q.ID],
		}
		if ans, ok := sess.Answers[q.ID]; ok && !ans.IsBlank() {
			row.UserAnswer = userAnswerText(item, ans)
		}
		rep.Details = append(rep.Details, row)
	}
	return rep
}

// userAnswerText resolves a choice back to its authored primary-locale
// option text; free-text answers are stored as typed.
func userAnswerText(item grading.Item, ans grading.Answer) string {
	if ans.Choice != nil {
		pos := *ans.Choice
		if pos < 0 || pos >= len(item.Order) {
			return ""
		}
		return grading.OptionText(item.Question, item.Order[pos].OriginalIndex, grading.LocaleKorean)
	}
	return ans.Text
}

func correctAnswerText(item grading.Item, loc grading.Locale) string {
	q := item.Question
	if len(item.Order) > 0 {
		return grading.OptionText(q, q.AnswerIndex, grading.LocaleKorean)
	}
	return grading.CanonicalAnswer(q, loc)
}
