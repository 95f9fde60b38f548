package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestNewFormats(t *testing.T) {
	var buf bytes.Buffer
	New("prod", &buf).Info("hello", slog.String("k", "v"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("prod logger should write JSON: %v (%q)", err, buf.String())
	}
	if entry["k"] != "v" {
		t.Errorf("entry = %v", entry)
	}

	buf.Reset()
	New("prod", &buf).Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("prod logger wrote a debug line: %q", buf.String())
	}

	buf.Reset()
	New("dev", &buf).Debug("shown")
	if !strings.Contains(buf.String(), "msg=shown") {
		t.Errorf("dev logger should write text at debug, got %q", buf.String())
	}
}

func TestFromContextAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(New("prod", &buf))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	FromContext(ctx).Info("traced")

	if !strings.Contains(buf.String(), `"request_id":"req-42"`) {
		t.Errorf("missing request_id in %q", buf.String())
	}
}

func TestRequestsMiddleware(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(New("prod", &buf))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := Requests(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/usuarios", nil))

	out := buf.String()
	if !strings.Contains(out, `"status":418`) || !strings.Contains(out, `"path":"/api/usuarios"`) {
		t.Errorf("unexpected log line %q", out)
	}
}
