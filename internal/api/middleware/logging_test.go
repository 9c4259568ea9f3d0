package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	apimw "github.com/zionnet/newsflow/internal/api/middleware"
)

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	handler := apimw.CorrelationID(apimw.RequestLogger(logger)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/boom" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
		}),
	))

	t.Run("success logs at info", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		entries := logs.TakeAll()
		if len(entries) != 1 {
			t.Fatalf("expected 1 log entry, got %d", len(entries))
		}
		e := entries[0]
		if e.Level != zap.InfoLevel || e.Message != "request completed" {
			t.Errorf("unexpected entry: %s %q", e.Level, e.Message)
		}
		fields := e.ContextMap()
		if fields["status"] != int64(http.StatusOK) {
			t.Errorf("expected status 200, got %v", fields["status"])
		}
		if fields["bytes"] != int64(len(`{"status":"ok"}`)) {
			t.Errorf("unexpected bytes: %v", fields["bytes"])
		}
		if fields["correlation_id"] == "" {
			t.Error("expected a correlation ID on the log line")
		}
	})

	t.Run("server error logs at warn", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))

		entries := logs.TakeAll()
		if len(entries) != 1 {
			t.Fatalf("expected 1 log entry, got %d", len(entries))
		}
		e := entries[0]
		if e.Level != zap.WarnLevel || e.Message != "request failed" {
			t.Errorf("unexpected entry: %s %q", e.Level, e.Message)
		}
		if e.ContextMap()["status"] != int64(http.StatusInternalServerError) {
			t.Errorf("expected status 500, got %v", e.ContextMap()["status"])
		}
	})
}

func TestCorrelationIDEchoesInboundHeader(t *testing.T) {
	handler := apimw.CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := apimw.GetCorrelationID(r.Context()); got != "req-42" {
			t.Errorf("expected context correlation ID req-42, got %q", got)
		}
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Correlation-ID", "req-42")
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Correlation-ID"); got != "req-42" {
		t.Errorf("expected echoed header, got %q", got)
	}
}
