package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"quizbank/internal/bank"
	"quizbank/internal/grading"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handler struct {
	svc sessionService
}

type sessionService interface {
	Create(ctx context.Context, in StartInput) (*Snapshot, error)
	Begin(ctx context.Context, id string) (*Snapshot, error)
	Get(id string) (*Snapshot, error)
	SaveAnswer(id string, questionID int64, ans grading.Answer) (*Snapshot, error)
	CheckCurrent(id string) (*Snapshot, error)
	Next(id string) (*Snapshot, error)
	Grade(id string) (*Snapshot, error)
	Submit(id string) (*Snapshot, error)
	Retry(id string) (*Snapshot, error)
	Remove(id string) error
}

type response struct {
	OK        bool        `json:"ok"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

type createSessionRequest struct {
	GroupID   int64  `json:"group_id"`
	Count     int    `json:"count"`
	Mode      string `json:"mode"`
	Locale    string `json:"locale"`
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}

type saveAnswerRequest struct {
	Choice *int   `json:"choice"`
	Text   string `json:"text"`
}

func NewHandler(svc sessionService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}
	if req.GroupID <= 0 {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "group_id is required"})
		return
	}

	snap, err := h.svc.Create(r.Context(), StartInput{
		GroupID:        req.GroupID,
		RequestedCount: req.Count,
		Mode:           req.Mode,
		Locale:         req.Locale,
		UserName:       req.UserName,
		UserEmail:      req.UserEmail,
	})
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, response{OK: true, Data: snap})
}

func (h *Handler) Begin(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Begin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: snap})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: snap})
}

func (h *Handler) SaveAnswer(w http.ResponseWriter, r *http.Request) {
	questionID, err := strconv.ParseInt(chi.URLParam(r, "questionID"), 10, 64)
	if err != nil || questionID <= 0 {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid question id"})
		return
	}
	var req saveAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}

	snap, err := h.svc.SaveAnswer(chi.URLParam(r, "id"), questionID, grading.Answer{Choice: req.Choice, Text: req.Text})
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: snap})
}

func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.CheckCurrent(chi.URLParam(r, "id"))
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: snap})
}

func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Next(chi.URLParam(r, "id"))
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: snap})
}

func (h *Handler) Grade(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Grade(chi.URLParam(r, "id"))
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: snap})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Submit(chi.URLParam(r, "id"))
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: snap})
}

func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Retry(chi.URLParam(r, "id"))
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: snap})
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Remove(chi.URLParam(r, "id")); err != nil {
		writeSessionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: map[string]string{"status": "deleted"}})
}

func writeSessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, bank.ErrGroupNotFound):
		writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: err.Error()})
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrIdentityRequired),
		errors.Is(err, ErrNoQuestions),
		errors.Is(err, ErrNoAnswer),
		errors.Is(err, ErrNotChecked):
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: err.Error()})
	case errors.Is(err, ErrNotInSetup),
		errors.Is(err, ErrNotInProgress),
		errors.Is(err, ErrNotFinished),
		errors.Is(err, ErrWrongMode),
		errors.Is(err, ErrQuestionLocked):
		writeJSON(w, r, http.StatusConflict, response{OK: false, Error: err.Error()})
	case errors.Is(err, ErrQuestionNotInSession):
		writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: err.Error()})
	default:
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload response) {
	if payload.RequestID == "" {
		payload.RequestID = middleware.GetReqID(r.Context())
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
