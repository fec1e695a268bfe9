package bank

import (
	"errors"
	"strings"
	"time"
)

const (
	TypeMultipleChoice = "multiple_choice"
	TypeFreeText       = "free_text"
)

const (
	GradingModeImmediate = "immediate"
	GradingModeBatch     = "batch"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrQuestionNotFound = errors.New("question not found")
	ErrGroupNotFound    = errors.New("group not found")
	ErrGroupNotEmpty    = errors.New("group still has questions")
)

// Question holds the bilingual source material for one quiz item. The
// Korean fields are the primary text; the *En fields are optional and
// fall back to the primary text when blank.
type Question struct {
	ID            int64     `json:"id"`
	GroupID       int64     `json:"group_id"`
	Type          string    `json:"type"`
	Text          string    `json:"question"`
	TextEn        string    `json:"question_en,omitempty"`
	Options       []string  `json:"options,omitempty"`
	OptionsEn     []string  `json:"options_en,omitempty"`
	AnswerIndex   int       `json:"answer_index"`
	Answer        string    `json:"answer,omitempty"`
	AnswerEn      string    `json:"answer_en,omitempty"`
	Explanation   string    `json:"explanation,omitempty"`
	ExplanationEn string    `json:"explanation_en,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Group is a named question pool. QuestionCount is the configured
// sample size a session draws from the pool, not the number of
// questions stored in it.
type Group struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

const defaultGroupQuestionCount = 10

type GroupInput struct {
	Name          string
	QuestionCount int
}

func (in *GroupInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.QuestionCount < 0 {
		return ErrInvalidInput
	}
	if in.QuestionCount == 0 {
		in.QuestionCount = defaultGroupQuestionCount
	}
	return nil
}

// Settings is the single app-wide configuration row edited from the
// admin screen and read by every new session.
type Settings struct {
	TimerEnabled       bool      `json:"timer_enabled"`
	TimerSeconds       int       `json:"timer_seconds"`
	GradingMode        string    `json:"grading_mode"`
	ShowCorrectOnWrong bool      `json:"show_correct_on_wrong"`
	Theme              string    `json:"theme"`
	Language           string    `json:"language"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func DefaultSettings() Settings {
	return Settings{
		TimerEnabled:       false,
		TimerSeconds:       600,
		GradingMode:        GradingModeImmediate,
		ShowCorrectOnWrong: true,
		Theme:              "light",
		Language:           "ko",
	}
}

// Snapshot is the payload of the fetch-all endpoint the quiz UI loads
// on startup.
type Snapshot struct {
	Questions []Question `json:"questions"`
	Groups    []Group    `json:"groups"`
	Settings  Settings   `json:"settings"`
}

type QuestionInput struct {
	GroupID       int64
	Type          string
	Text          string
	TextEn        string
	Options       []string
	OptionsEn     []string
	AnswerIndex   int
	Answer        string
	AnswerEn      string
	Explanation   string
	ExplanationEn string
}

func normalizeQuestionType(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "mc", "multiple_choice", "multiple-choice":
		return TypeMultipleChoice
	case "sa", "free_text", "free-text", "short_answer":
		return TypeFreeText
	default:
		return ""
	}
}

func normalizeGradingMode(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case GradingModeImmediate:
		return GradingModeImmediate
	case GradingModeBatch, "exam":
		return GradingModeBatch
	default:
		return ""
	}
}

// validateQuestionInput normalizes the free-form fields and checks the
// structural rules for both question types. It mutates in so callers
// persist exactly what passed validation.
func validateQuestionInput(in *QuestionInput) error {
	in.Type = normalizeQuestionType(in.Type)
	in.Text = strings.TrimSpace(in.Text)
	in.TextEn = strings.TrimSpace(in.TextEn)
	in.Answer = strings.TrimSpace(in.Answer)
	in.AnswerEn = strings.TrimSpace(in.AnswerEn)
	in.Explanation = strings.TrimSpace(in.Explanation)
	in.ExplanationEn = strings.TrimSpace(in.ExplanationEn)
	in.Options = trimOptions(in.Options)
	in.OptionsEn = trimOptions(in.OptionsEn)

	if in.GroupID <= 0 || in.Type == "" || in.Text == "" {
		return ErrInvalidInput
	}

	switch in.Type {
	case TypeMultipleChoice:
		if len(in.Options) < 2 {
			return ErrInvalidInput
		}
		for _, o := range in.Options {
			if o == "" {
				return ErrInvalidInput
			}
		}
		if in.AnswerIndex < 0 || in.AnswerIndex >= len(in.Options) {
			return ErrInvalidInput
		}
		if len(in.OptionsEn) > 0 && len(in.OptionsEn) != len(in.Options) {
			return ErrInvalidInput
		}
	case TypeFreeText:
		if in.Answer == "" && in.AnswerEn == "" {
			return ErrInvalidInput
		}
		in.Options = nil
		in.OptionsEn = nil
		in.AnswerIndex = 0
	}

	return nil
}

func trimOptions(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, o := range in {
		out = append(out, strings.TrimSpace(o))
	}
	for _, o := range out {
		if o != "" {
			return out
		}
	}
	return nil
}
