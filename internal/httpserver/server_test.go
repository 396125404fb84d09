package httpserver

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNormaliseBasePath(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"/", ""},
		{"app", "/app"},
		{"/app", "/app"},
		{"/app/", "/app"},
		{"  /app  ", "/app"},
	}
	for _, tc := range cases {
		if got := normaliseBasePath(tc.input); got != tc.want {
			t.Errorf("normaliseBasePath(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestMountWithBasePath(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.URL.Path))
	})
	handler := mountWithBasePath("/app", inner)

	cases := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/app/healthz", http.StatusOK, "/healthz"},
		{"/app", http.StatusOK, "/"},
		{"/healthz", http.StatusNotFound, ""},
		{"/application/healthz", http.StatusNotFound, ""},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rec.Code != tc.wantStatus {
			t.Errorf("%s: status = %d, want %d", tc.path, rec.Code, tc.wantStatus)
			continue
		}
		if tc.wantBody != "" && rec.Body.String() != tc.wantBody {
			t.Errorf("%s: body = %q, want %q", tc.path, rec.Body.String(), tc.wantBody)
		}
	}
}

func TestHealthWithoutStore(t *testing.T) {
	server := New(":0", testLogger(), nil, "")
	rec := httptest.NewRecorder()
	server.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("content type = %q", rec.Header().Get("Content-Type"))
	}
	if body := rec.Body.String(); body != "{\"status\":\"ok\"}\n" {
		t.Fatalf("body = %q", body)
	}
}

func TestHealthRejectsPost(t *testing.T) {
	server := New(":0", testLogger(), nil, "")
	rec := httptest.NewRecorder()
	server.handleHealth(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSessionEndpointWithoutDependency(t *testing.T) {
	server := New(":0", testLogger(), nil, "")
	rec := httptest.NewRecorder()
	server.handleSession(rec, httptest.NewRequest(http.MethodGet, "/admin/session", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}
