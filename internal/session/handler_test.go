package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quizbank/internal/grading"

	"github.com/go-chi/chi/v5"
)

type mockSessionService struct {
	createFn     func(ctx context.Context, in StartInput) (*Snapshot, error)
	beginFn      func(ctx context.Context, id string) (*Snapshot, error)
	getFn        func(id string) (*Snapshot, error)
	saveAnswerFn func(id string, questionID int64, ans grading.Answer) (*Snapshot, error)
	checkFn      func(id string) (*Snapshot, error)
	nextFn       func(id string) (*Snapshot, error)
	gradeFn      func(id string) (*Snapshot, error)
	submitFn     func(id string) (*Snapshot, error)
	retryFn      func(id string) (*Snapshot, error)
	removeFn     func(id string) error
}

func (m *mockSessionService) Create(ctx context.Context, in StartInput) (*Snapshot, error) {
	return m.createFn(ctx, in)
}
func (m *mockSessionService) Begin(ctx context.Context, id string) (*Snapshot, error) {
	return m.beginFn(ctx, id)
}
func (m *mockSessionService) Get(id string) (*Snapshot, error) { return m.getFn(id) }
func (m *mockSessionService) SaveAnswer(id string, questionID int64, ans grading.Answer) (*Snapshot, error) {
	return m.saveAnswerFn(id, questionID, ans)
}
func (m *mockSessionService) CheckCurrent(id string) (*Snapshot, error) { return m.checkFn(id) }
func (m *mockSessionService) Next(id string) (*Snapshot, error)         { return m.nextFn(id) }
func (m *mockSessionService) Grade(id string) (*Snapshot, error)        { return m.gradeFn(id) }
func (m *mockSessionService) Submit(id string) (*Snapshot, error)       { return m.submitFn(id) }
func (m *mockSessionService) Retry(id string) (*Snapshot, error)        { return m.retryFn(id) }
func (m *mockSessionService) Remove(id string) error                    { return m.removeFn(id) }

func sessionRouter(svc sessionService) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Post("/sessions", h.Create)
	r.Post("/sessions/{id}/start", h.Begin)
	r.Get("/sessions/{id}", h.Get)
	r.Put("/sessions/{id}/answers/{questionID}", h.SaveAnswer)
	r.Post("/sessions/{id}/check", h.Check)
	r.Post("/sessions/{id}/submit", h.Submit)
	r.Delete("/sessions/{id}", h.Remove)
	return r
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var res response
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return res
}

func TestHandlerCreate(t *testing.T) {
	svc := &mockSessionService{
		createFn: func(_ context.Context, in StartInput) (*Snapshot, error) {
			if in.GroupID != 7 || in.Mode != ModeBatch || in.UserName != "kim" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &Snapshot{ID: "abc", State: StateSetup}, nil
		},
	}

	body := `{"group_id":7,"mode":"batch","user_name":"kim","user_email":"kim@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	sessionRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	res := decodeResponse(t, rec)
	if !res.OK {
		t.Fatalf("expected ok response, got %+v", res)
	}
}

func TestHandlerCreateValidation(t *testing.T) {
	svc := &mockSessionService{
		createFn: func(_ context.Context, _ StartInput) (*Snapshot, error) {
			return nil, ErrIdentityRequired
		},
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "bad json", body: `{`, want: http.StatusBadRequest},
		{name: "missing group", body: `{}`, want: http.StatusBadRequest},
		{name: "service rejects identity", body: `{"group_id":1,"mode":"batch"}`, want: http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			sessionRouter(svc).ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestHandlerGetNotFound(t *testing.T) {
	svc := &mockSessionService{
		getFn: func(string) (*Snapshot, error) { return nil, ErrSessionNotFound },
	}
	req := httptest.NewRequest(http.MethodGet, "/sessions/abc", nil)
	rec := httptest.NewRecorder()
	sessionRouter(svc).ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandlerSaveAnswer(t *testing.T) {
	svc := &mockSessionService{
		saveAnswerFn: func(id string, questionID int64, ans grading.Answer) (*Snapshot, error) {
			if id != "abc" || questionID != 42 {
				t.Fatalf("unexpected args: %s %d", id, questionID)
			}
			if ans.Choice == nil || *ans.Choice != 2 {
				t.Fatalf("unexpected answer: %+v", ans)
			}
			return &Snapshot{ID: id, State: StateInProgress}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPut, "/sessions/abc/answers/42", strings.NewReader(`{"choice":2}`))
	rec := httptest.NewRecorder()
	sessionRouter(svc).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestHandlerSaveAnswerBadQuestionID(t *testing.T) {
	svc := &mockSessionService{}
	req := httptest.NewRequest(http.MethodPut, "/sessions/abc/answers/zero", strings.NewReader(`{"choice":0}`))
	rec := httptest.NewRecorder()
	sessionRouter(svc).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandlerCheckConflicts(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "wrong mode", err: ErrWrongMode, want: http.StatusConflict},
		{name: "not in progress", err: ErrNotInProgress, want: http.StatusConflict},
		{name: "no answer", err: ErrNoAnswer, want: http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockSessionService{
				checkFn: func(string) (*Snapshot, error) { return nil, tc.err },
			}
			req := httptest.NewRequest(http.MethodPost, "/sessions/abc/check", nil)
			rec := httptest.NewRecorder()
			sessionRouter(svc).ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
			res := decodeResponse(t, rec)
			if res.OK || res.Error == "" {
				t.Fatalf("expected error payload, got %+v", res)
			}
		})
	}
}

func TestHandlerSubmit(t *testing.T) {
	svc := &mockSessionService{
		submitFn: func(id string) (*Snapshot, error) {
			return &Snapshot{ID: id, State: StateResult, Score: &ScoreView{Correct: 1, Total: 2, Rate: 50}}, nil
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/sessions/abc/submit", nil)
	rec := httptest.NewRecorder()
	sessionRouter(svc).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestHandlerRemove(t *testing.T) {
	svc := &mockSessionService{
		removeFn: func(id string) error { return nil },
	}
	req := httptest.NewRequest(http.MethodDelete, "/sessions/abc", nil)
	rec := httptest.NewRecorder()
	sessionRouter(svc).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
