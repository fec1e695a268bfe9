package report

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quizbank/internal/session"

	"github.com/xuri/excelize/v2"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrSubmissionNotFound = errors.New("submission not found")
)

// Service persists submitted exam results. It is wired into the
// session manager as its submitter.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// SubmitSession flattens a finished session and stores it. Detail rows
// are kept as a jsonb document since they are only ever read whole.
func (s *Service) SubmitSession(ctx context.Context, sess *session.Session) error {
	rep := BuildReport(sess)
	_, err := s.Save(ctx, rep)
	return err
}

func (s *Service) Save(ctx context.Context, rep *Report) (int64, error) {
	if rep == nil || rep.SessionID == "" {
		return 0, ErrInvalidInput
	}
	details, err := json.Marshal(rep.Details)
	if err != nil {
		return 0, fmt.Errorf("marshal details: %w", err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO submissions (
			session_id, user_name, user_email, group_id, group_name,
			correct, total, score_rate, details, submitted_at
		)
		VALUES ($1, $2, NULLIF($3,''), $4, NULLIF($5,''), $6, $7, $8, $9, now())
		RETURNING id
	`,
		rep.SessionID, rep.UserName, rep.UserEmail, rep.GroupID, rep.GroupName,
		rep.Correct, rep.Total, rep.ScoreRate, details,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save submission: %w", err)
	}
	rep.ID = id
	return id, nil
}

const submissionColumns = `
	id, session_id, user_name, COALESCE(user_email,''), group_id, COALESCE(group_name,''),
	correct, total, score_rate, details, submitted_at
`

// List returns submissions newest first, optionally filtered by group.
func (s *Service) List(ctx context.Context, groupID int64, limit, offset int) ([]Report, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + submissionColumns + ` FROM submissions`
	args := []any{}
	if groupID > 0 {
		query += ` WHERE group_id = $1`
		args = append(args, groupID)
	}
	query += fmt.Sprintf(` ORDER BY submitted_at DESC, id DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	items := []Report{}
	for rows.Next() {
		rep, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("list submissions: %w", err)
		}
		items = append(items, *rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Report, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id)
	rep, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return rep, nil
}

// ExportExcel renders submissions as an xlsx workbook, one summary row
// per submission.
func (s *Service) ExportExcel(ctx context.Context, groupID int64) ([]byte, error) {
	items, err := s.List(ctx, groupID, 500, 0)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	headers := []string{"submitted_at", "user_name", "user_email", "group_name", "correct", "total", "score_rate"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for i, it := range items {
		row := i + 2
		values := []any{
			it.SubmittedAt.Format("2006-01-02 15:04:05"),
			it.UserName,
			it.UserEmail,
			it.GroupName,
			it.Correct,
			it.Total,
			fmt.Sprintf("%.1f", it.ScoreRate),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	_ = f.SetColWidth(sheet, "A", "G", 22)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func scanSubmission(scanner interface{ Scan(dest ...any) error }) (*Report, error) {
	var rep Report
	var details []byte
	var submittedAt time.Time
	err := scanner.Scan(
		&rep.ID, &rep.SessionID, &rep.UserName, &rep.UserEmail, &rep.GroupID, &rep.GroupName,
		&rep.Correct, &rep.Total, &rep.ScoreRate, &details, &submittedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(details, &rep.Details); err != nil {
		return nil, fmt.Errorf("decode details: %w", err)
	}
	rep.SubmittedAt = submittedAt
	return &rep, nil
}
