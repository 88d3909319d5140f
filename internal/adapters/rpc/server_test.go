package rpc

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"sei-gateway/go-backend/internal/platform/ratelimiter"
)

func TestHealthReportsSessions(t *testing.T) {
	f := newFixture(t, Options{}, true)
	_, events := openStream(t, f.ts.URL, "h1")
	readSessionInit(t, events)

	resp, err := http.Get(f.ts.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	got := decodeBody[healthBody](t, resp)
	if got.Status != "ok" || !got.Initialized || got.ActiveSessions != 1 {
		t.Fatalf("unexpected health: %+v", got)
	}
	if len(got.SessionIDs) != 1 || got.SessionIDs[0] != "h1" {
		t.Fatalf("unexpected session ids: %v", got.SessionIDs)
	}
}

func TestHealthBeforeBackendReady(t *testing.T) {
	f := newFixture(t, Options{}, false)
	resp, err := http.Get(f.ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if got := decodeBody[healthBody](t, resp); got.Initialized {
		t.Fatalf("expected uninitialized, got %+v", got)
	}
}

func TestIndexListsMethods(t *testing.T) {
	f := newFixture(t, Options{Version: "9.9.9"}, true)
	resp, err := http.Get(f.ts.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	got := decodeBody[indexBody](t, resp)
	if got.Name != "sei-gateway" || got.Version != "9.9.9" || len(got.Methods) != 18 {
		t.Fatalf("unexpected index: %+v", got)
	}

	resp, err = http.Get(f.ts.URL + "/nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCORSPreflightAllowsAnyOrigin(t *testing.T) {
	f := newFixture(t, Options{}, true)
	req, _ := http.NewRequest(http.MethodOptions, f.ts.URL+"/rpc", nil)
	req.Header.Set("Origin", "https://app.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin, got %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, Options{}, true)
	_, events := openStream(t, f.ts.URL, "m1")
	readSessionInit(t, events)

	resp, err := http.Get(f.ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"sei_gateway_sessions_active 1", "sei_gateway_sessions_opened_total 1"} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("expected %q in metrics output", want)
		}
	}
}

func TestRunReturnsBackendStartError(t *testing.T) {
	deps, _ := newDeps(t)
	boom := errors.New("chain id mismatch")
	backend := &fakeBackend{startErr: boom}
	deps.Backend = backend
	s := NewServer(Options{Addr: "127.0.0.1:0"}, deps)

	err := s.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if !backend.wasStopped() {
		t.Fatal("expected backend stop after failed start")
	}
}

func TestRunServesUntilCancelled(t *testing.T) {
	deps, f := newDeps(t)
	backend := &fakeBackend{onStart: f.bind}
	deps.Backend = backend
	s := NewServer(Options{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second}, deps)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	var base string
	deadline := time.Now().Add(2 * time.Second)
	for {
		if addr := s.Addr(); addr != nil && f.handlers.Ready() {
			base = "http://" + addr.String()
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("server did not become ready")
		}
		time.Sleep(10 * time.Millisecond)
	}

	_, events := openStream(t, base, "live")
	readSessionInit(t, events)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("run did not return after cancel")
	}
	events.waitClosed(t)
	if !backend.wasStopped() {
		t.Fatal("expected backend stop on shutdown")
	}
	if n := f.manager.Registry().Len(); n != 0 {
		t.Fatalf("expected registry purged, got %d", n)
	}
}

func TestSweepLimiterDropsIdleClients(t *testing.T) {
	f := newFixture(t, Options{RateLimit: RateLimitOptions{Enabled: true, RPS: 1, Burst: 1}}, true)
	f.server.limiter = ratelimiter.New(1, 1, time.Millisecond)
	f.server.limiter.Allow("10.0.0.1", time.Now().Add(-time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.server.sweepLimiter(ctx, 5*time.Millisecond)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for f.server.limiter.Len() != 0 {
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("idle client bucket was not swept")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
}
