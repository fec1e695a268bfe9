package report

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"quizbank/internal/app/apiresp"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc reportService
}

type reportService interface {
	List(ctx context.Context, groupID int64, limit, offset int) ([]Report, error)
	Get(ctx context.Context, id int64) (*Report, error)
	ExportExcel(ctx context.Context, groupID int64) ([]byte, error)
}

func NewHandler(svc reportService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	groupID, ok := optionalID(r, "group_id")
	if !ok {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid group_id")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	items, err := h.svc.List(r.Context(), groupID, limit, offset)
	if err != nil {
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, items)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid submission id")
		return
	}
	rep, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrSubmissionNotFound) {
			apiresp.WriteError(w, r, http.StatusNotFound, "submission not found")
			return
		}
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, rep)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	groupID, ok := optionalID(r, "group_id")
	if !ok {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid group_id")
		return
	}
	data, err := h.svc.ExportExcel(r.Context(), groupID)
	if err != nil {
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	filename := fmt.Sprintf("submissions-%s.xlsx", time.Now().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func optionalID(r *http.Request, key string) (int64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
