package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestLoggerRecordsStatusAndBytes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("hello"))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", nil)
	rec := httptest.NewRecorder()
	RequestLogger(logger)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	line := buf.String()
	if !strings.Contains(line, "status=201") {
		t.Errorf("log line missing status: %s", line)
	}
	if !strings.Contains(line, "bytes=5") {
		t.Errorf("log line missing byte count: %s", line)
	}
	if !strings.Contains(line, "path=/api/tasks") {
		t.Errorf("log line missing path: %s", line)
	}
}

func TestRequestLoggerErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/statistics", nil)
	RequestLogger(logger)(next).ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Errorf("5xx should log at error: %s", buf.String())
	}
}

func TestRequestLoggerSkipsHealthChecks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	RequestLogger(logger)(next).ServeHTTP(httptest.NewRecorder(), req)

	if buf.Len() != 0 {
		t.Errorf("health check should not be logged: %s", buf.String())
	}
}
