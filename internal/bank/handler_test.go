package bank

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

type mockBankService struct {
	createQuestionFn func(ctx context.Context, in QuestionInput) (*Question, error)
	createGroupFn    func(ctx context.Context, in GroupInput) (*Group, error)
	deleteGroupFn    func(ctx context.Context, id int64) error
	fetchAllFn       func(ctx context.Context) (*Snapshot, error)
}

func (m *mockBankService) CreateQuestion(ctx context.Context, in QuestionInput) (*Question, error) {
	return m.createQuestionFn(ctx, in)
}
func (m *mockBankService) UpdateQuestion(ctx context.Context, id int64, in QuestionInput) (*Question, error) {
	return nil, nil
}
func (m *mockBankService) DeleteQuestion(ctx context.Context, id int64) error { return nil }
func (m *mockBankService) GetQuestion(ctx context.Context, id int64) (*Question, error) {
	return nil, nil
}
func (m *mockBankService) ListQuestions(ctx context.Context, groupID int64) ([]Question, error) {
	return nil, nil
}
func (m *mockBankService) CreateGroup(ctx context.Context, in GroupInput) (*Group, error) {
	if m.createGroupFn != nil {
		return m.createGroupFn(ctx, in)
	}
	return nil, nil
}
func (m *mockBankService) UpdateGroup(ctx context.Context, id int64, in GroupInput) (*Group, error) {
	return nil, nil
}
func (m *mockBankService) DeleteGroup(ctx context.Context, id int64) error {
	return m.deleteGroupFn(ctx, id)
}
func (m *mockBankService) ListGroups(ctx context.Context) ([]Group, error)   { return nil, nil }
func (m *mockBankService) GetSettings(ctx context.Context) (*Settings, error) { return nil, nil }
func (m *mockBankService) UpdateSettings(ctx context.Context, in Settings) (*Settings, error) {
	return nil, nil
}
func (m *mockBankService) FetchAll(ctx context.Context) (*Snapshot, error) {
	return m.fetchAllFn(ctx)
}

func bankRouter(svc bankService) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Get("/bank", h.FetchAll)
	r.Post("/admin/questions", h.CreateQuestion)
	r.Post("/admin/groups", h.CreateGroup)
	r.Delete("/admin/groups/{id}", h.DeleteGroup)
	return r
}

func TestHandlerFetchAll(t *testing.T) {
	svc := &mockBankService{
		fetchAllFn: func(context.Context) (*Snapshot, error) {
			return &Snapshot{Settings: DefaultSettings()}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/bank", nil)
	rec := httptest.NewRecorder()
	bankRouter(svc).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestHandlerCreateQuestion(t *testing.T) {
	svc := &mockBankService{
		createQuestionFn: func(_ context.Context, in QuestionInput) (*Question, error) {
			if in.GroupID != 1 || in.Type != "mc" || len(in.Options) != 2 {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &Question{ID: 5}, nil
		},
	}
	body := `{"group_id":1,"type":"mc","question":"수도는?","options":["서울","부산"],"answer_index":0}`
	req := httptest.NewRequest(http.MethodPost, "/admin/questions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	bankRouter(svc).ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
}

func TestHandlerCreateQuestionInvalid(t *testing.T) {
	svc := &mockBankService{
		createQuestionFn: func(context.Context, QuestionInput) (*Question, error) {
			return nil, ErrInvalidInput
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/admin/questions", strings.NewReader(`{"group_id":1}`))
	rec := httptest.NewRecorder()
	bankRouter(svc).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandlerCreateGroup(t *testing.T) {
	svc := &mockBankService{
		createGroupFn: func(_ context.Context, in GroupInput) (*Group, error) {
			if in.Name != "네트워크" || in.QuestionCount != 15 {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &Group{ID: 2, Name: in.Name, QuestionCount: in.QuestionCount}, nil
		},
	}
	body := `{"name":"네트워크","question_count":15}`
	req := httptest.NewRequest(http.MethodPost, "/admin/groups", strings.NewReader(body))
	rec := httptest.NewRecorder()
	bankRouter(svc).ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
}

func TestHandlerDeleteGroupConflict(t *testing.T) {
	svc := &mockBankService{
		deleteGroupFn: func(context.Context, int64) error { return ErrGroupNotEmpty },
	}
	req := httptest.NewRequest(http.MethodDelete, "/admin/groups/3", nil)
	rec := httptest.NewRecorder()
	bankRouter(svc).ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}
