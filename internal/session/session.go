package session

import (
	"time"

	"quizbank/internal/grading"
)

const (
	StateSetup      = "setup"
	StateInProgress = "in_progress"
	StateResult     = "result"
)

const (
	ModeImmediate = "immediate"
	ModeBatch     = "batch"
)

// TimerState is the countdown attached to a session. RemainingSeconds
// ticks down once per second while Running; hitting zero force-grades
// the session.
type TimerState struct {
	Enabled          bool `json:"enabled"`
	TotalSeconds     int  `json:"total_seconds,omitempty"`
	RemainingSeconds int  `json:"remaining_seconds,omitempty"`
	Running          bool `json:"running"`
}

// Session is one user's run through a drawn set of questions. All
// fields are owned by the Manager and must only be touched under its
// lock; snapshots are handed out instead of the live struct.
type Session struct {
	ID        string
	State     string
	Mode      string
	Locale    grading.Locale
	UserName  string
	UserEmail string

	GroupID        int64
	GroupName      string
	RequestedCount int

	// Drawn carries the frozen question order and per-question option
	// shuffles for the whole session lifetime.
	Drawn   []grading.Item
	Answers map[int64]grading.Answer
	Checked map[int64]bool
	Results map[int64]bool
	Score   *grading.Score

	CurrentIndex int
	Feedback     *grading.Outcome

	Timer              TimerState
	ShowCorrectOnWrong bool

	CreatedAt time.Time
	UpdatedAt time.Time

	timerStop chan struct{}
}

func (s *Session) answeredCount() int {
	n := 0
	for _, a := range s.Answers {
		if !a.IsBlank() {
			n++
		}
	}
	return n
}

// QuestionView is the client-facing shape of one drawn question. The
// option list is already shuffled and localized; nothing in it reveals
// which slot is correct before grading.
type QuestionView struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	Text        string          `json:"text"`
	Options     []string        `json:"options,omitempty"`
	Answer      *grading.Answer `json:"answer,omitempty"`
	Checked     bool            `json:"checked,omitempty"`
	Correct     *bool           `json:"correct,omitempty"`
	CorrectText string          `json:"correct_text,omitempty"`
	Explanation string          `json:"explanation,omitempty"`
}

type ScoreView struct {
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
	Rate    float64 `json:"rate"`
}

// Snapshot is the read model returned from every session operation.
type Snapshot struct {
	ID            string           `json:"id"`
	State         string           `json:"state"`
	Mode          string           `json:"mode"`
	Locale        string           `json:"locale"`
	UserName      string           `json:"user_name,omitempty"`
	UserEmail     string           `json:"user_email,omitempty"`
	GroupID       int64            `json:"group_id"`
	GroupName     string           `json:"group_name"`
	CurrentIndex  int              `json:"current_index"`
	Questions     []QuestionView   `json:"questions"`
	AnsweredCount int              `json:"answered_count"`
	Feedback      *grading.Outcome `json:"feedback,omitempty"`
	Score         *ScoreView       `json:"score,omitempty"`
	Timer         TimerState       `json:"timer"`
	CreatedAt     time.Time        `json:"created_at"`
}

func snapshotOf(s *Session) *Snapshot {
	snap := &Snapshot{
		ID:            s.ID,
		State:         s.State,
		Mode:          s.Mode,
		Locale:        string(s.Locale),
		UserName:      s.UserName,
		UserEmail:     s.UserEmail,
		GroupID:       s.GroupID,
		GroupName:     s.GroupName,
		CurrentIndex:  s.CurrentIndex,
		AnsweredCount: s.answeredCount(),
		Timer:         s.Timer,
		CreatedAt:     s.CreatedAt,
	}
	if s.Feedback != nil {
		fb := *s.Feedback
		snap.Feedback = &fb
	}
	if s.Score != nil {
		snap.Score = &ScoreView{
			Correct: s.Score.Correct,
			Total:   s.Score.Total,
			Rate:    s.Score.Rate(),
		}
	}

	revealed := s.State == StateResult
	snap.Questions = make([]QuestionView, 0, len(s.Drawn))
	for _, item := range s.Drawn {
		q := item.Question
		view := QuestionView{
			ID:      q.ID,
			Type:    q.Type,
			Text:    grading.QuestionText(q, s.Locale),
			Checked: s.Checked[q.ID],
		}
		for _, slot := range item.Order {
			view.Options = append(view.Options, grading.OptionText(q, slot.OriginalIndex, s.Locale))
		}
		if ans, ok := s.Answers[q.ID]; ok && !ans.IsBlank() {
			a := ans
			view.Answer = &a
		}
		// Results only gains entries once something graded the
		// question, so a marked question is always safe to reveal.
		if correct, ok := s.Results[q.ID]; ok {
			c := correct
			view.Correct = &c
		}
		if revealed {
			view.CorrectText = grading.CanonicalAnswer(q, s.Locale)
			view.Explanation = grading.ExplanationText(q, s.Locale)
		}
		snap.Questions = append(snap.Questions, view)
	}
	return snap
}

// cloneForSubmit copies the mutable parts of a finished session so the
// result reporter can read it outside the manager lock.
func cloneForSubmit(s *Session) *Session {
	c := *s
	c.timerStop = nil
	c.Drawn = make([]grading.Item, len(s.Drawn))
	copy(c.Drawn, s.Drawn)
	c.Answers = make(map[int64]grading.Answer, len(s.Answers))
	for k, v := range s.Answers {
		c.Answers[k] = v
	}
	c.Checked = make(map[int64]bool, len(s.Checked))
	for k, v := range s.Checked {
		c.Checked[k] = v
	}
	c.Results = make(map[int64]bool, len(s.Results))
	for k, v := range s.Results {
		c.Results[k] = v
	}
	if s.Score != nil {
		score := *s.Score
		score.PerQuestion = make(map[int64]bool, len(s.Score.PerQuestion))
		for k, v := range s.Score.PerQuestion {
			score.PerQuestion[k] = v
		}
		c.Score = &score
	}
	return &c
}
