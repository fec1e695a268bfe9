package app

import (
	"database/sql"
	"net/http"
	"time"

	"quizbank/internal/app/observability"
	"quizbank/internal/bank"
	"quizbank/internal/report"
	"quizbank/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(cfg Config, db *sql.DB) http.Handler {
	r, _ := NewRouterWithManager(cfg, db)
	return r
}

// NewRouterWithManager also returns the session manager so the caller
// can run its janitor loop.
func NewRouterWithManager(cfg Config, db *sql.DB) (http.Handler, *session.Manager) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	collector := observability.NewCollector(db)
	r.Use(collector.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	limiter := NewIPRateLimiter(cfg.RateLimitPerMin, time.Minute)

	bankSvc := bank.NewService(db)
	bankHandler := bank.NewHandler(bankSvc)

	reportSvc := report.NewService(db)
	reportHandler := report.NewHandler(reportSvc)

	manager := session.NewManager(bankSvc, reportSvc, session.Config{
		DefaultQuizCount: cfg.DefaultQuizCount,
		SessionTTL:       time.Duration(cfg.SessionTTLMinutes) * time.Minute,
		JanitorInterval:  time.Duration(cfg.JanitorIntervalSec) * time.Second,
	})
	sessionHandler := session.NewHandler(manager)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Get("/metrics", collector.MetricsHandler)

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/bank", bankHandler.FetchAll)
		api.Get("/groups", bankHandler.ListGroups)
		api.Get("/settings", bankHandler.GetSettings)

		api.Group(func(limited chi.Router) {
			limited.Use(RateLimitMiddleware(limiter))
			limited.Post("/sessions", sessionHandler.Create)
			limited.Post("/sessions/{id}/submit", sessionHandler.Submit)
		})
		api.Post("/sessions/{id}/start", sessionHandler.Begin)
		api.Get("/sessions/{id}", sessionHandler.Get)
		api.Put("/sessions/{id}/answers/{questionID}", sessionHandler.SaveAnswer)
		api.Post("/sessions/{id}/check", sessionHandler.Check)
		api.Post("/sessions/{id}/next", sessionHandler.Next)
		api.Post("/sessions/{id}/grade", sessionHandler.Grade)
		api.Post("/sessions/{id}/retry", sessionHandler.Retry)
		api.Delete("/sessions/{id}", sessionHandler.Remove)

		api.Route("/admin", func(admin chi.Router) {
			admin.Get("/questions", bankHandler.ListQuestions)
			admin.Post("/questions", bankHandler.CreateQuestion)
			admin.Get("/questions/{id}", bankHandler.GetQuestion)
			admin.Put("/questions/{id}", bankHandler.UpdateQuestion)
			admin.Delete("/questions/{id}", bankHandler.DeleteQuestion)

			admin.Post("/groups", bankHandler.CreateGroup)
			admin.Put("/groups/{id}", bankHandler.UpdateGroup)
			admin.Delete("/groups/{id}", bankHandler.DeleteGroup)

			admin.Put("/settings", bankHandler.UpdateSettings)

			admin.Get("/submissions", reportHandler.List)
			admin.Get("/submissions/{id}", reportHandler.Get)
			admin.Get("/submissions/export", reportHandler.Export)
		})
	})

	return r, manager
}
