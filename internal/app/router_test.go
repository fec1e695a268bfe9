package app

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// The DB is never dialed here: session routes run entirely in memory,
// and the limiter rejects the overflow before any handler runs.
func TestSessionRoutesAreRateLimited(t *testing.T) {
	db, err := sql.Open("pgx", "postgres://localhost/ignored")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	cfg := Config{RateLimitPerMin: 1, CORSAllowedOrigins: []string{"*"}}
	router := NewRouter(cfg, db)

	tests := []struct {
		path string
		addr string
	}{
		{path: "/api/v1/sessions", addr: "10.0.0.9:1234"},
		{path: "/api/v1/sessions/nope/submit", addr: "10.0.0.10:1234"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			first := httptest.NewRequest(http.MethodPost, tc.path, nil)
			first.RemoteAddr = tc.addr
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, first)
			if rec.Code == http.StatusTooManyRequests {
				t.Fatalf("first request on %s was rejected", tc.path)
			}

			second := httptest.NewRequest(http.MethodPost, tc.path, nil)
			second.RemoteAddr = tc.addr
			rec = httptest.NewRecorder()
			router.ServeHTTP(rec, second)
			if rec.Code != http.StatusTooManyRequests {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
			}
		})
	}
}
