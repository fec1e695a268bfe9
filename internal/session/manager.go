package session

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"quizbank/internal/bank"
	"quizbank/internal/grading"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrNoQuestions          = errors.New("group has no questions")
	ErrIdentityRequired     = errors.New("name and email are required")
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotInSetup           = errors.New("session is not in setup")
	ErrNotInProgress        = errors.New("session is not in progress")
	ErrNotFinished          = errors.New("session is not finished")
	ErrWrongMode            = errors.New("operation not allowed in this grading mode")
	ErrNoAnswer             = errors.New("current question has no answer")
	ErrQuestionLocked       = errors.New("question was already checked")
	ErrQuestionNotInSession = errors.New("question is not part of this session")
	ErrNotChecked           = errors.New("current question must be checked first")
)

// Bank is the read surface the manager needs from the question store.
type Bank interface {
	GetGroup(ctx context.Context, id int64) (*bank.Group, error)
	ListQuestionsByGroup(ctx context.Context, groupID int64) ([]bank.Question, error)
	GetSettings(ctx context.Context) (*bank.Settings, error)
}

// Submitter receives a finished exam-mode session. Delivery is fire
// and forget: the user sees their result whether or not this succeeds.
type Submitter interface {
	SubmitSession(ctx context.Context, sess *Session) error
}

type Config struct {
	DefaultQuizCount int
	SessionTTL       time.Duration
	JanitorInterval  time.Duration
	SubmitTimeout    time.Duration
}

func (c *Config) applyDefaults() {
	if c.DefaultQuizCount <= 0 {
		c.DefaultQuizCount = 10
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 2 * time.Hour
	}
	if c.JanitorInterval <= 0 {
		c.JanitorInterval = 5 * time.Minute
	}
	if c.SubmitTimeout <= 0 {
		c.SubmitTimeout = 10 * time.Second
	}
}

// Manager owns every live session. All state transitions run under one
// mutex, which also serializes timer ticks against user actions.
type Manager struct {
	bank      Bank
	submitter Submitter
	cfg       Config

	mu       sync.Mutex
	sessions map[string]*Session
	rng      *rand.Rand

	// Tests drive ticks by hand instead of waiting on the 1s loop.
	disableTimerLoop bool
}

func NewManager(b Bank, submitter Submitter, cfg Config) *Manager {
	cfg.applyDefaults()
	return &Manager{
		bank:      b,
		submitter: submitter,
		cfg:       cfg,
		sessions:  make(map[string]*Session),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type StartInput struct {
	GroupID        int64
	RequestedCount int
	Mode           string
	Locale         string
	UserName       string
	UserEmail      string
}

// Create validates the setup selections and registers a session in the
// setup state. Questions are not drawn until Begin.
func (m *Manager) Create(ctx context.Context, in StartInput) (*Snapshot, error) {
	if in.GroupID <= 0 {
		return nil, ErrInvalidInput
	}
	group, err := m.bank.GetGroup(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}

	settings, err := m.bank.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	mode := strings.ToLower(strings.TrimSpace(in.Mode))
	if mode == "" {
		mode = settings.GradingMode
	}
	if mode != ModeImmediate && mode != ModeBatch {
		return nil, ErrInvalidInput
	}

	name := strings.TrimSpace(in.UserName)
	email := strings.TrimSpace(in.UserEmail)
	if mode == ModeBatch && (name == "" || email == "") {
		return nil, ErrIdentityRequired
	}

	count := in.RequestedCount
	if count < 0 {
		count = 0
	}

	now := time.Now()
	sess := &Session{
		ID:             uuid.NewString(),
		State:          StateSetup,
		Mode:           mode,
		Locale:         grading.ParseLocale(in.Locale),
		UserName:       name,
		UserEmail:      email,
		GroupID:        group.ID,
		GroupName:      group.Name,
		RequestedCount: count,
		Answers:        make(map[int64]grading.Answer),
		Checked:        make(map[int64]bool),
		Results:        make(map[int64]bool),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return snapshotOf(sess), nil
}

// Begin draws the question sample, freezes every option shuffle, and
// moves the session into progress. A fresh read of the bank means
// edits made between setup and start are picked up.
func (m *Manager) Begin(ctx context.Context, id string) (*Snapshot, error) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if sess.State != StateSetup {
		m.mu.Unlock()
		return nil, ErrNotInSetup
	}
	groupID := sess.GroupID
	m.mu.Unlock()

	group, err := m.bank.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	questions, err := m.bank.ListQuestionsByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	settings, err := m.bank.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok = m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.State != StateSetup {
		return nil, ErrNotInSetup
	}

	// The explicit request wins, then the group's configured sample
	// size, then the server default. Never draw more than the pool
	// holds.
	target := sess.RequestedCount
	if target <= 0 {
		target = group.QuestionCount
	}
	if target <= 0 {
		target = m.cfg.DefaultQuizCount
	}
	limit := len(questions)
	if target < limit {
		limit = target
	}

	drawn := SampleQuestions(m.rng, questions, limit)
	sess.Drawn = make([]grading.Item, 0, len(drawn))
	for i := range drawn {
		q := drawn[i]
		sess.Drawn = append(sess.Drawn, grading.Item{
			Question: &q,
			Order:    ShuffleOptions(m.rng, &q),
		})
	}

	sess.State = StateInProgress
	sess.CurrentIndex = 0
	sess.Feedback = nil
	sess.Score = nil
	sess.ShowCorrectOnWrong = settings.ShowCorrectOnWrong
	sess.UpdatedAt = time.Now()

	sess.Timer = TimerState{}
	if settings.TimerEnabled && settings.TimerSeconds > 0 {
		sess.Timer = TimerState{
			Enabled:          true,
			TotalSeconds:     settings.TimerSeconds,
			RemainingSeconds: settings.TimerSeconds,
			Running:          true,
		}
		m.startTimerLocked(sess)
	}

	return snapshotOf(sess), nil
}

func (m *Manager) Get(id string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return snapshotOf(sess), nil
}

// SaveAnswer records or clears the user's answer to one drawn
// question. In immediate mode a question locks once checked.
func (m *Manager) SaveAnswer(id string, questionID int64, ans grading.Answer) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.State != StateInProgress {
		return nil, ErrNotInProgress
	}

	item, ok := findItem(sess, questionID)
	if !ok {
		return nil, ErrQuestionNotInSession
	}
	if sess.Mode == ModeImmediate && sess.Checked[questionID] {
		return nil, ErrQuestionLocked
	}
	if ans.Choice != nil {
		if item.Question.Type != bank.TypeMultipleChoice {
			return nil, ErrInvalidInput
		}
		if *ans.Choice < 0 || *ans.Choice >= len(item.Order) {
			return nil, ErrInvalidInput
		}
	}

	if ans.IsBlank() {
		delete(sess.Answers, questionID)
	} else {
		sess.Answers[questionID] = ans
	}
	sess.UpdatedAt = time.Now()
	return snapshotOf(sess), nil
}

// CheckCurrent grades the current question in immediate mode, locks
// it, and refreshes the running score.
func (m *Manager) CheckCurrent(id string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.State != StateInProgress {
		return nil, ErrNotInProgress
	}
	if sess.Mode != ModeImmediate {
		return nil, ErrWrongMode
	}

	item := sess.Drawn[sess.CurrentIndex]
	questionID := item.Question.ID
	ans, ok := sess.Answers[questionID]
	if !ok || ans.IsBlank() {
		return nil, ErrNoAnswer
	}

	out := GradeCurrent(item, ans, sess.Locale, sess.ShowCorrectOnWrong)
	sess.Feedback = &out
	sess.Checked[questionID] = true
	sess.Results[questionID] = out.IsCorrect

	score := grading.GradeSession(sess.Drawn, sess.Answers, sess.Locale)
	sess.Score = &score
	sess.UpdatedAt = time.Now()
	return snapshotOf(sess), nil
}

// GradeCurrent wraps grading.GradeOne and hides the correct-answer
// text on a wrong check when the settings say not to reveal it.
func GradeCurrent(item grading.Item, ans grading.Answer, loc grading.Locale, showCorrectOnWrong bool) grading.Outcome {
	out := grading.GradeOne(item, ans, loc)
	if !out.IsCorrect && !showCorrectOnWrong {
		out.CorrectText = ""
	}
	return out
}

// Next advances past a checked question, finalizing the session on the
// last one.
func (m *Manager) Next(id string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.State != StateInProgress {
		return nil, ErrNotInProgress
	}
	if sess.Mode != ModeImmediate {
		return nil, ErrWrongMode
	}
	if !sess.Checked[sess.Drawn[sess.CurrentIndex].Question.ID] {
		return nil, ErrNotChecked
	}

	if sess.CurrentIndex >= len(sess.Drawn)-1 {
		m.finalizeLocked(sess)
	} else {
		sess.CurrentIndex++
		sess.Feedback = nil
		sess.UpdatedAt = time.Now()
	}
	return snapshotOf(sess), nil
}

// Grade runs a full batch-mode grade while staying in progress, so the
// user can review inline marks before submitting.
func (m *Manager) Grade(id string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.State != StateInProgress {
		return nil, ErrNotInProgress
	}
	if sess.Mode != ModeBatch {
		return nil, ErrWrongMode
	}

	score := grading.GradeSession(sess.Drawn, sess.Answers, sess.Locale)
	sess.Score = &score
	sess.Results = score.PerQuestion
	sess.UpdatedAt = time.Now()
	return snapshotOf(sess), nil
}

// Submit finalizes the session. Submitting an already finished session
// is a no-op returning the existing result, so a user race against the
// timer cannot double-grade or double-report.
func (m *Manager) Submit(id string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.State == StateResult {
		return snapshotOf(sess), nil
	}
	if sess.State != StateInProgress {
		return nil, ErrNotInProgress
	}

	m.finalizeLocked(sess)
	return snapshotOf(sess), nil
}

// Retry returns a finished session to setup, keeping the group, mode,
// and identity selections while dropping everything drawn or answered.
func (m *Manager) Retry(id string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.State != StateResult {
		return nil, ErrNotFinished
	}

	m.stopTimerLocked(sess)
	sess.State = StateSetup
	sess.Drawn = nil
	sess.Answers = make(map[int64]grading.Answer)
	sess.Checked = make(map[int64]bool)
	sess.Results = make(map[int64]bool)
	sess.Score = nil
	sess.Feedback = nil
	sess.CurrentIndex = 0
	sess.Timer = TimerState{}
	sess.UpdatedAt = time.Now()
	return snapshotOf(sess), nil
}

// Remove discards a session, e.g. when the user abandons the page.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	m.stopTimerLocked(sess)
	delete(m.sessions, id)
	return nil
}

// finalizeLocked is the single Result transition. Exam-mode sessions
// are handed to the submitter asynchronously after grading.
func (m *Manager) finalizeLocked(sess *Session) {
	if sess.State == StateResult {
		return
	}

	score := grading.GradeSession(sess.Drawn, sess.Answers, sess.Locale)
	sess.Score = &score
	sess.Results = score.PerQuestion
	sess.State = StateResult
	sess.Feedback = nil
	sess.UpdatedAt = time.Now()
	m.stopTimerLocked(sess)

	if sess.Mode == ModeBatch && m.submitter != nil {
		clone := cloneForSubmit(sess)
		go m.deliver(clone)
	}
}

func (m *Manager) deliver(sess *Session) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.SubmitTimeout)
	defer cancel()
	if err := m.submitter.SubmitSession(ctx, sess); err != nil {
		log.Printf("session %s: submit result: %v", sess.ID, err)
	}
}

// RunJanitor reaps idle sessions until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.JanitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.reapIdle(time.Now())
		}
	}
}

func (m *Manager) reapIdle(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, sess := range m.sessions {
		if now.Sub(sess.UpdatedAt) > m.cfg.SessionTTL {
			m.stopTimerLocked(sess)
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("session janitor: removed %d idle sessions", removed)
	}
	return removed
}

func findItem(sess *Session, questionID int64) (grading.Item, bool) {
	for _, item := range sess.Drawn {
		if item.Question.ID == questionID {
			return item, true
		}
	}
	return grading.Item{}, false
}
