package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

func testServer() *Server {
	return &Server{config: NewConfig(), rateLimiter: rate.NewLimiter(100, 200)}
}

func TestRequestIDMiddleware(t *testing.T) {
	provided := uuid.New().String()
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{name: "generates", header: ""},
		{name: "keeps valid", header: provided, keep: true},
		{name: "replaces invalid", header: "invalid-not-a-uuid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured string
			handler := testServer().requestIDMiddleware(func(w http.ResponseWriter, r *http.Request) {
				captured = RequestID(r.Context())
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("X-Request-Id", tt.header)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			if _, err := uuid.Parse(captured); err != nil {
				t.Fatalf("expected valid UUID, got %q", captured)
			}
			if tt.keep && captured != tt.header {
				t.Errorf("request id = %s, want %s", captured, tt.header)
			}
			if !tt.keep && captured == tt.header {
				t.Errorf("request id should have been replaced")
			}
			if rec.Header().Get("X-Request-Id") != captured {
				t.Errorf("header = %s, want %s", rec.Header().Get("X-Request-Id"), captured)
			}
		})
	}
}

func TestVersionMiddleware(t *testing.T) {
	var captured string
	handler := testServer().versionMiddleware(func(w http.ResponseWriter, r *http.Request) {
		captured = APIVersion(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Accept", "application/vnd.nvidia.serverbuilder.v1+json")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if captured != "v1" || rec.Header().Get("X-API-Version") != "v1" {
		t.Errorf("version = %q header = %q", captured, rec.Header().Get("X-API-Version"))
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	s := testServer()
	s.rateLimiter = rate.NewLimiter(rate.Limit(1), 1)

	calls := 0
	handler := s.rateLimitMiddleware(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	first := httptest.NewRecorder()
	handler(first, httptest.NewRequest(http.MethodGet, "/test", nil))
	if first.Code != http.StatusOK || first.Header().Get("X-RateLimit-Limit") == "" {
		t.Fatalf("first request: status %d headers %v", first.Code, first.Header())
	}

	second := httptest.NewRecorder()
	handler(second, httptest.NewRequest(http.MethodGet, "/test", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q", second.Header().Get("Retry-After"))
	}
	resp := decodeError(t, second)
	if resp.Code != "RATE_LIMIT_EXCEEDED" || !resp.Retryable {
		t.Errorf("unexpected response %+v", resp)
	}
	if calls != 1 {
		t.Errorf("handler calls = %d, want 1", calls)
	}
}

func TestPanicRecoveryMiddleware(t *testing.T) {
	handler := testServer().panicRecoveryMiddleware(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "INTERNAL" {
		t.Errorf("code = %s", resp.Code)
	}
}

func TestResponseWriterIgnoresSecondHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)
	rw.WriteHeader(http.StatusAccepted)
	rw.WriteHeader(http.StatusTeapot)
	if _, err := rw.Write([]byte("ok")); err != nil {
		t.Fatal(err)
	}
	if rw.Status() != http.StatusAccepted || rec.Code != http.StatusAccepted {
		t.Errorf("status = %d/%d, want 202", rw.Status(), rec.Code)
	}
	if rw.Unwrap() != rec {
		t.Error("Unwrap should return the wrapped writer")
	}
}
