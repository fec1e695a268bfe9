package bank

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

const questionColumns = `
	id, group_id, question_type, question_text, COALESCE(question_text_en,''),
	COALESCE(options,'[]'::jsonb), COALESCE(options_en,'[]'::jsonb), answer_index,
	COALESCE(answer_text,''), COALESCE(answer_text_en,''),
	COALESCE(explanation,''), COALESCE(explanation_en,''), created_at, updated_at
`

func (s *Service) CreateQuestion(ctx context.Context, in QuestionInput) (*Question, error) {
	if err := validateQuestionInput(&in); err != nil {
		return nil, err
	}
	if err := s.ensureGroupExists(ctx, in.GroupID); err != nil {
		return nil, err
	}

	optionsJSON, optionsEnJSON, err := marshalOptions(in.Options, in.OptionsEn)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO questions (
			group_id, question_type, question_text, question_text_en,
			options, options_en, answer_index, answer_text, answer_text_en,
			explanation, explanation_en, created_at, updated_at
		)
		VALUES ($1, $2, $3, NULLIF($4,''), $5, $6, $7, NULLIF($8,''), NULLIF($9,''), NULLIF($10,''), NULLIF($11,''), now(), now())
		RETURNING `+questionColumns,
		in.GroupID, in.Type, in.Text, in.TextEn,
		optionsJSON, optionsEnJSON, in.AnswerIndex, in.Answer, in.AnswerEn,
		in.Explanation, in.ExplanationEn,
	)

	q, err := scanQuestion(row)
	if err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

func (s *Service) UpdateQuestion(ctx context.Context, id int64, in QuestionInput) (*Question, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	if err := validateQuestionInput(&in); err != nil {
		return nil, err
	}
	if err := s.ensureGroupExists(ctx, in.GroupID); err != nil {
		return nil, err
	}

	optionsJSON, optionsEnJSON, err := marshalOptions(in.Options, in.OptionsEn)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE questions SET
			group_id = $2,
			question_type = $3,
			question_text = $4,
			question_text_en = NULLIF($5,''),
			options = $6,
			options_en = $7,
			answer_index = $8,
			answer_text = NULLIF($9,''),
			answer_text_en = NULLIF($10,''),
			explanation = NULLIF($11,''),
			explanation_en = NULLIF($12,''),
			updated_at = now()
		WHERE id = $1
		RETURNING `+questionColumns,
		id, in.GroupID, in.Type, in.Text, in.TextEn,
		optionsJSON, optionsEnJSON, in.AnswerIndex, in.Answer, in.AnswerEn,
		in.Explanation, in.ExplanationEn,
	)

	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}
	return q, nil
}

func (s *Service) DeleteQuestion(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if n == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (s *Service) GetQuestion(ctx context.Context, id int64) (*Question, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

// ListQuestions returns all questions, optionally filtered to one group
// when groupID is positive.
func (s *Service) ListQuestions(ctx context.Context, groupID int64) ([]Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions`
	args := []any{}
	if groupID > 0 {
		query += ` WHERE group_id = $1`
		args = append(args, groupID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	items := []Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("list questions: %w", err)
		}
		items = append(items, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return items, nil
}

// ListQuestionsByGroup is the session-start read path. Unlike
// ListQuestions it requires a concrete group.
func (s *Service) ListQuestionsByGroup(ctx context.Context, groupID int64) ([]Question, error) {
	if groupID <= 0 {
		return nil, ErrInvalidInput
	}
	return s.ListQuestions(ctx, groupID)
}

func (s *Service) CreateGroup(ctx context.Context, in GroupInput) (*Group, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var g Group
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO question_groups (name, question_count, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		RETURNING id, name, question_count, created_at, updated_at
	`, in.Name, in.QuestionCount).Scan(&g.ID, &g.Name, &g.QuestionCount, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	return &g, nil
}

func (s *Service) UpdateGroup(ctx context.Context, id int64, in GroupInput) (*Group, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var g Group
	err := s.db.QueryRowContext(ctx, `
		UPDATE question_groups SET name = $2, question_count = $3, updated_at = now()
		WHERE id = $1
		RETURNING id, name, question_count, created_at, updated_at
	`, id, in.Name, in.QuestionCount).Scan(&g.ID, &g.Name, &g.QuestionCount, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update group: %w", err)
	}
	return &g, nil
}

// DeleteGroup refuses to delete a group that still owns questions so
// sessions never reference orphaned material.
func (s *Service) DeleteGroup(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	if n := s.countQuestions(ctx, id); n > 0 {
		return ErrGroupNotEmpty
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM question_groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if n == 0 {
		return ErrGroupNotFound
	}
	return nil
}

func (s *Service) GetGroup(ctx context.Context, id int64) (*Group, error) {
	var g Group
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, question_count, created_at, updated_at
		FROM question_groups
		WHERE id = $1
	`, id).Scan(&g.ID, &g.Name, &g.QuestionCount, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return &g, nil
}

func (s *Service) ListGroups(ctx context.Context) ([]Group, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, question_count, created_at, updated_at
		FROM question_groups
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	items := []Group{}
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.QuestionCount, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list groups: %w", err)
		}
		items = append(items, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return items, nil
}

// GetSettings returns the singleton settings row, falling back to the
// defaults when the row has never been written.
func (s *Service) GetSettings(ctx context.Context) (*Settings, error) {
	var st Settings
	err := s.db.QueryRowContext(ctx, `
		SELECT timer_enabled, timer_seconds, grading_mode, show_correct_on_wrong,
			COALESCE(theme,'light'), COALESCE(language,'ko'), updated_at
		FROM app_settings
		WHERE id = 1
	`).Scan(&st.TimerEnabled, &st.TimerSeconds, &st.GradingMode, &st.ShowCorrectOnWrong, &st.Theme, &st.Language, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		def := DefaultSettings()
		return &def, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &st, nil
}

func (s *Service) UpdateSettings(ctx context.Context, in Settings) (*Settings, error) {
	in.GradingMode = normalizeGradingMode(in.GradingMode)
	if in.GradingMode == "" {
		return nil, ErrInvalidInput
	}
	if in.TimerSeconds <= 0 {
		in.TimerSeconds = DefaultSettings().TimerSeconds
	}
	if in.Theme != "light" && in.Theme != "dark" {
		in.Theme = "light"
	}
	if in.Language != "ko" && in.Language != "en" {
		in.Language = "ko"
	}

	var st Settings
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO app_settings (id, timer_enabled, timer_seconds, grading_mode, show_correct_on_wrong, theme, language, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (id) DO UPDATE SET
			timer_enabled = EXCLUDED.timer_enabled,
			timer_seconds = EXCLUDED.timer_seconds,
			grading_mode = EXCLUDED.grading_mode,
			show_correct_on_wrong = EXCLUDED.show_correct_on_wrong,
			theme = EXCLUDED.theme,
			language = EXCLUDED.language,
			updated_at = now()
		RETURNING timer_enabled, timer_seconds, grading_mode, show_correct_on_wrong, theme, language, updated_at
	`, in.TimerEnabled, in.TimerSeconds, in.GradingMode, in.ShowCorrectOnWrong, in.Theme, in.Language).
		Scan(&st.TimerEnabled, &st.TimerSeconds, &st.GradingMode, &st.ShowCorrectOnWrong, &st.Theme, &st.Language, &st.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	return &st, nil
}

// FetchAll bundles everything the client needs in one round trip.
func (s *Service) FetchAll(ctx context.Context) (*Snapshot, error) {
	questions, err := s.ListQuestions(ctx, 0)
	if err != nil {
		return nil, err
	}
	groups, err := s.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Questions: questions, Groups: groups, Settings: *settings}, nil
}

func (s *Service) ensureGroupExists(ctx context.Context, groupID int64) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM question_groups WHERE id = $1)`, groupID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check group: %w", err)
	}
	if !exists {
		return ErrGroupNotFound
	}
	return nil
}

func (s *Service) countQuestions(ctx context.Context, groupID int64) int {
	var n int
	_ = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions WHERE group_id = $1`, groupID).Scan(&n)
	return n
}

func marshalOptions(options, optionsEn []string) ([]byte, []byte, error) {
	if options == nil {
		options = []string{}
	}
	if optionsEn == nil {
		optionsEn = []string{}
	}
	a, err := json.Marshal(options)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal options: %w", err)
	}
	b, err := json.Marshal(optionsEn)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal options: %w", err)
	}
	return a, b, nil
}

func scanQuestion(scanner interface{ Scan(dest ...any) error }) (*Question, error) {
	var q Question
	var optionsRaw, optionsEnRaw []byte
	err := scanner.Scan(
		&q.ID, &q.GroupID, &q.Type, &q.Text, &q.TextEn,
		&optionsRaw, &optionsEnRaw, &q.AnswerIndex,
		&q.Answer, &q.AnswerEn, &q.Explanation, &q.ExplanationEn,
		&q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(optionsRaw, &q.Options); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	if err := json.Unmarshal(optionsEnRaw, &q.OptionsEn); err != nil {
		return nil, fmt.Errorf("decode options_en: %w", err)
	}
	if len(q.Options) == 0 {
		q.Options = nil
	}
	if len(q.OptionsEn) == 0 {
		q.OptionsEn = nil
	}
	return &q, nil
}
