package ops

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/trackhub/trackhub/internal/core"
	"github.com/trackhub/trackhub/internal/telemetry"
)

type fakeBackend struct {
	getErr error
}

func (f *fakeBackend) Get(_ context.Context, _ string, _ url.Values, out any) error {
	if f.getErr != nil {
		return f.getErr
	}
	if out != nil {
		return json.Unmarshal([]byte(`{"id":"1-1","login":"bot"}`), out)
	}
	return nil
}

func (f *fakeBackend) Post(_ context.Context, _ string, _, _ any) error { return nil }

func (f *fakeBackend) Delete(_ context.Context, _ string) error { return nil }

func newTestServer(fb *fakeBackend) *Server {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	svc := core.NewService(fb, core.NewResolver(core.ScopeConfig{EnforcedProject: "TEAM"}, logger), logger)
	return NewServer("127.0.0.1:0", svc, logger, BuildInfo{
		Version:   "1.2.3",
		GitCommit: "abc123",
		BuildTime: "2026-01-01T00:00:00Z",
	})
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := doRequest(t, newTestServer(&fakeBackend{}), http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestReadyzReflectsBackend(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		rec := doRequest(t, newTestServer(&fakeBackend{}), http.MethodGet, "/readyz")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("backend down", func(t *testing.T) {
		fb := &fakeBackend{getErr: errors.New("dial tcp: connection refused")}
		rec := doRequest(t, newTestServer(fb), http.MethodGet, "/readyz")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "connection refused") {
			t.Fatalf("body = %s", rec.Body.String())
		}
	})
}

func TestMetricsRendersPrometheusText(t *testing.T) {
	telemetry.IncToolCall("yt_issues", "ok")

	rec := doRequest(t, newTestServer(&fakeBackend{}), http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "trackhub_tool_calls_total") {
		t.Fatalf("metrics output missing counters:\n%s", rec.Body.String())
	}
}

func TestVersion(t *testing.T) {
	rec := doRequest(t, newTestServer(&fakeBackend{}), http.MethodGet, "/version")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var info BuildInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Version != "1.2.3" || info.GitCommit != "abc123" {
		t.Fatalf("info = %+v", info)
	}
}
