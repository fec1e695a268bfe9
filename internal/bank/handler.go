package bank

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"quizbank/internal/app/apiresp"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc bankService
}

type bankService interface {
	CreateQuestion(ctx context.Context, in QuestionInput) (*Question, error)
	UpdateQuestion(ctx context.Context, id int64, in QuestionInput) (*Question, error)
	DeleteQuestion(ctx context.Context, id int64) error
	GetQuestion(ctx context.Context, id int64) (*Question, error)
	ListQuestions(ctx context.Context, groupID int64) ([]Question, error)
	CreateGroup(ctx context.Context, in GroupInput) (*Group, error)
	UpdateGroup(ctx context.Context, id int64, in GroupInput) (*Group, error)
	DeleteGroup(ctx context.Context, id int64) error
	ListGroups(ctx context.Context) ([]Group, error)
	GetSettings(ctx context.Context) (*Settings, error)
	UpdateSettings(ctx context.Context, in Settings) (*Settings, error)
	FetchAll(ctx context.Context) (*Snapshot, error)
}

func NewHandler(svc bankService) *Handler {
	return &Handler{svc: svc}
}

type questionRequest struct {
	GroupID       int64    `json:"group_id"`
	Type          string   `json:"type"`
	Text          string   `json:"question"`
	TextEn        string   `json:"question_en"`
	Options       []string `json:"options"`
	OptionsEn     []string `json:"options_en"`
	AnswerIndex   int      `json:"answer_index"`
	Answer        string   `json:"answer"`
	AnswerEn      string   `json:"answer_en"`
	Explanation   string   `json:"explanation"`
	ExplanationEn string   `json:"explanation_en"`
}

func (r questionRequest) input() QuestionInput {
	return QuestionInput{
		GroupID:       r.GroupID,
		Type:          r.Type,
		Text:          r.Text,
		TextEn:        r.TextEn,
		Options:       r.Options,
		OptionsEn:     r.OptionsEn,
		AnswerIndex:   r.AnswerIndex,
		Answer:        r.Answer,
		AnswerEn:      r.AnswerEn,
		Explanation:   r.Explanation,
		ExplanationEn: r.ExplanationEn,
	}
}

type groupRequest struct {
	Name          string `json:"name"`
	QuestionCount int    `json:"question_count"`
}

func (r groupRequest) input() GroupInput {
	return GroupInput{Name: r.Name, QuestionCount: r.QuestionCount}
}

func (h *Handler) FetchAll(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.FetchAll(r.Context())
	if err != nil {
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, snap)
}

func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	var groupID int64
	if raw := strings.TrimSpace(r.URL.Query().Get("group_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			apiresp.WriteError(w, r, http.StatusBadRequest, "invalid group_id")
			return
		}
		groupID = id
	}
	items, err := h.svc.ListQuestions(r.Context(), groupID)
	if err != nil {
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, items)
}

func (h *Handler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid question id")
		return
	}
	q, err := h.svc.GetQuestion(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrQuestionNotFound) {
			apiresp.WriteError(w, r, http.StatusNotFound, "question not found")
			return
		}
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, q)
}

func (h *Handler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	q, err := h.svc.CreateQuestion(r.Context(), req.input())
	if err != nil {
		writeQuestionError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusCreated, q)
}

func (h *Handler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid question id")
		return
	}
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	q, err := h.svc.UpdateQuestion(r.Context(), id, req.input())
	if err != nil {
		writeQuestionError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, q)
}

func (h *Handler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid question id")
		return
	}
	if err := h.svc.DeleteQuestion(r.Context(), id); err != nil {
		writeQuestionError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListGroups(r.Context())
	if err != nil {
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, items)
}

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	g, err := h.svc.CreateGroup(r.Context(), req.input())
	if err != nil {
		writeGroupError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusCreated, g)
}

func (h *Handler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid group id")
		return
	}
	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	g, err := h.svc.UpdateGroup(r.Context(), id, req.input())
	if err != nil {
		writeGroupError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, g)
}

func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid group id")
		return
	}
	if err := h.svc.DeleteGroup(r.Context(), id); err != nil {
		if errors.Is(err, ErrGroupNotEmpty) {
			apiresp.WriteError(w, r, http.StatusConflict, "group still has questions")
			return
		}
		writeGroupError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.GetSettings(r.Context())
	if err != nil {
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, st)
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	st, err := h.svc.UpdateSettings(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			apiresp.WriteError(w, r, http.StatusBadRequest, "grading_mode must be immediate or batch")
			return
		}
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, st)
}

func writeQuestionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid question payload")
	case errors.Is(err, ErrGroupNotFound):
		apiresp.WriteError(w, r, http.StatusNotFound, "group not found")
	case errors.Is(err, ErrQuestionNotFound):
		apiresp.WriteError(w, r, http.StatusNotFound, "question not found")
	default:
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func writeGroupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		apiresp.WriteError(w, r, http.StatusBadRequest, "name and a non-negative question_count are required")
	case errors.Is(err, ErrGroupNotFound):
		apiresp.WriteError(w, r, http.StatusNotFound, "group not found")
	default:
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
	}
}
