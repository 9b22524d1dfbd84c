package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "github.com/cortexhub/mnemo/internal/metrics"
)

type stubPinger struct {
	err error
}

func (p *stubPinger) Ping(ctx context.Context) error { return p.err }

func testServer(t *testing.T, opts Options) *Server {
	t.Helper()
	if opts.BotName == "" {
		opts.BotName = "mnemo"
	}
	return New(opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRootInfo(t *testing.T) {
	srv := testServer(t, Options{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var rr RootResponse
	if err := json.NewDecoder(w.Body).Decode(&rr); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !rr.OK || rr.Bot != "mnemo" || rr.Webhook != "/webhook" {
		t.Errorf("Unexpected payload: %+v", rr)
	}
}

func TestRootRejectsOtherPaths(t *testing.T) {
	srv := testServer(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", w.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	srv := testServer(t, Options{Store: &stubPinger{}})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.healthHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var hr HealthResponse
	json.NewDecoder(w.Body).Decode(&hr)
	if hr.Status != "healthy" {
		t.Errorf("Expected healthy, got %s", hr.Status)
	}
	if !hr.Services["store"].Healthy {
		t.Error("Expected healthy store")
	}
}

func TestHealthDegradedOnStoreFailure(t *testing.T) {
	srv := testServer(t, Options{Store: &stubPinger{err: errors.New("db locked")}})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.healthHandler(w, req)

	var hr HealthResponse
	json.NewDecoder(w.Body).Decode(&hr)
	if hr.Status != "degraded" {
		t.Errorf("Expected degraded, got %s", hr.Status)
	}
	if hr.Services["store"].Healthy {
		t.Error("Expected unhealthy store")
	}
}

func TestWebhookRouteMounted(t *testing.T) {
	called := false
	hook := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	srv := testServer(t, Options{Webhook: hook})

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{}"))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if !called {
		t.Fatal("Webhook handler never ran")
	}
}

func TestMetricsExposed(t *testing.T) {
	srv := testServer(t, Options{})
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "mnemo_") {
		t.Error("Expected mnemo metrics in exposition")
	}
}

func TestShutdown(t *testing.T) {
	srv := testServer(t, Options{Host: "localhost", Port: 0})
	go srv.Start()
	time.Sleep(100 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}
