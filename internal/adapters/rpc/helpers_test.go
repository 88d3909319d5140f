package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"sei-gateway/go-backend/internal/app"
	"sei-gateway/go-backend/internal/domains/contracts"
	"sei-gateway/go-backend/internal/platform/metrics"
	"sei-gateway/go-backend/internal/session"
)

// stubChain answers the handful of operations these tests call; any
// other method panics on the nil embedded interface.
type stubChain struct {
	contracts.ChainService
}

func (stubChain) SupportedNetworks() []contracts.NetworkInfo {
	return []contracts.NetworkInfo{{Name: "sei", ChainID: 1329, Symbol: "SEI", Default: true}}
}

func (stubChain) GetBalance(_ context.Context, network, address string) (contracts.Balance, error) {
	v, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	return contracts.Balance{Network: network, Address: address, Value: v, Formatted: "123456789012.34567890123456789", Symbol: "SEI"}, nil
}

type fakeBackend struct {
	startErr error
	onStart  func()

	mu      sync.Mutex
	started bool
	stopped bool
}

func (b *fakeBackend) Start(context.Context) error {
	if b.startErr != nil {
		return b.startErr
	}
	if b.onStart != nil {
		b.onStart()
	}
	b.mu.Lock()
	b.started = true
	b.mu.Unlock()
	return nil
}

func (b *fakeBackend) Stop() {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()
}

func (b *fakeBackend) wasStopped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stopped
}

type fixture struct {
	server   *Server
	ts       *httptest.Server
	manager  *session.Manager
	handlers *session.HandlerSlot
	router   *app.Router
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func newDeps(t *testing.T) (Deps, *fixture) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	registry := session.NewRegistry()
	handlers := &session.HandlerSlot{}
	manager := session.NewManager(registry, handlers, logger, m)
	f := &fixture{
		manager:  manager,
		handlers: handlers,
		router:   app.NewRouter(contracts.DefaultNetwork, logger, m),
		metrics:  m,
		logger:   logger,
	}
	deps := Deps{
		Manager:    manager,
		Dispatcher: session.NewDispatcher(registry, handlers, logger, m),
		Handlers:   handlers,
		Router:     f.router,
		Metrics:    m,
		Logger:     logger,
	}
	return deps, f
}

// bind installs the stub backend the way the composition layer does.
func (f *fixture) bind() {
	f.router.Bind(stubChain{})
	f.handlers.Set(app.NewSessionHandler(f.router, f.logger))
}

func newFixture(t *testing.T, opts Options, ready bool) *fixture {
	t.Helper()
	deps, f := newDeps(t)
	if ready {
		f.bind()
	}
	f.server = NewServer(opts, deps)
	f.ts = httptest.NewServer(f.server.Handler())
	t.Cleanup(func() {
		f.manager.CloseAll(session.CloseReasonShutdown)
		f.ts.Close()
	})
	return f
}

type eventReader struct {
	data chan string
}

// openStream connects to /sse and returns the response plus a reader of
// its data frames. The connection closes when the test ends.
func openStream(t *testing.T, baseURL, sessionID string) (*http.Response, *eventReader) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	url := baseURL + "/sse"
	if sessionID != "" {
		url += "?sessionId=" + sessionID
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("stream request failed: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	r := &eventReader{data: make(chan string, 16)}
	go func() {
		defer close(r.data)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "data: ") {
				r.data <- strings.TrimPrefix(line, "data: ")
			}
		}
	}()
	return resp, r
}

func (r *eventReader) next(t *testing.T) string {
	t.Helper()
	select {
	case data, ok := <-r.data:
		if !ok {
			t.Fatal("stream ended before next event")
		}
		return data
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stream event")
		return ""
	}
}

func (r *eventReader) waitClosed(t *testing.T) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-r.data:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream did not close")
		}
	}
}

func readSessionInit(t *testing.T, r *eventReader) string {
	t.Helper()
	var init struct {
		Type      string `json:"type"`
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal([]byte(r.next(t)), &init); err != nil {
		t.Fatalf("decode session_init: %v", err)
	}
	if init.Type != "session_init" || init.SessionID == "" {
		t.Fatalf("unexpected first event: %+v", init)
	}
	return init.SessionID
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return out
}

type rpcResult struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
