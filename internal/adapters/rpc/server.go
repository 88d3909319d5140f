package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"

	"sei-gateway/go-backend/internal/app"
	"sei-gateway/go-backend/internal/platform/metrics"
	"sei-gateway/go-backend/internal/platform/ratelimiter"
	"sei-gateway/go-backend/internal/session"
)

const (
	DefaultAddr            = "127.0.0.1:3001"
	DefaultShutdownTimeout = 5 * time.Second
	DefaultMaxBodyBytes    = 1 << 20
	componentName          = "http"

	limiterSweepInterval = time.Minute
)

// Backend is brought up by Run after the listener is bound. Start must
// leave the gateway ready to serve calls; Stop releases upstream clients.
type Backend interface {
	Start(ctx context.Context) error
	Stop()
}

type Options struct {
	Addr            string
	Heartbeat       time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	RateLimit       RateLimitOptions
	Streams         StreamLimitOptions
	Version         string
}

type RateLimitOptions struct {
	Enabled bool
	RPS     float64
	Burst   int
}

// Deps are the collaborators the transport routes requests to.
type Deps struct {
	Manager    *session.Manager
	Dispatcher *session.Dispatcher
	Handlers   *session.HandlerSlot
	Router     *app.Router
	Metrics    *metrics.Metrics
	Backend    Backend
	Logger     *slog.Logger
}

type Server struct {
	opts       Options
	deps       Deps
	logger     *slog.Logger
	httpServer *http.Server
	limiter    *ratelimiter.MapLimiter
	streams    *streamLimiter

	mu   sync.Mutex
	addr net.Addr
}

func NewServer(opts Options, deps Deps) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = session.DefaultHeartbeat
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		opts:    opts,
		deps:    deps,
		logger:  logger,
		streams: newStreamLimiter(opts.Streams),
	}
	if opts.RateLimit.Enabled {
		s.limiter = ratelimiter.New(opts.RateLimit.RPS, opts.RateLimit.Burst, 0)
	}
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// sweepLimiter drops idle rate-limit buckets every interval until ctx ends.
func (s *Server) sweepLimiter(ctx context.Context, interval time.Duration) {
	if s.limiter == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.limiter.Sweep(now)
		}
	}
}

// Handler returns the full route table behind the any-origin CORS policy.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/sse", s.instrument("/sse", false, s.handleStream))
	mux.Handle("/message", s.instrument("/message", true, s.handleMessage))
	mux.Handle("/messages", s.instrument("/message", true, s.handleMessage))
	mux.Handle("/rpc", s.instrument("/rpc", true, s.handleRPC))
	mux.Handle("/call", s.instrument("/rpc", true, s.handleRPC))
	mux.Handle("/health", s.instrument("/health", true, s.handleHealth))
	mux.Handle("/healthz", s.instrument("/health", true, s.handleHealth))
	mux.Handle("/", s.instrument("/", true, s.handleIndex))
	if s.deps.Metrics != nil {
		mux.Handle("/metrics", s.deps.Metrics.Handler())
	}
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         600,
	})
	return c.Handler(mux)
}

// Addr reports the bound listener address once Run is serving.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run binds the listener, starts the backend and serves until ctx is
// cancelled. Requests that arrive before the backend is ready are
// answered with service-unavailable errors. A backend start failure
// stops the server and is returned.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		err := s.httpServer.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
			return
		}
		errCh <- err
	}()
	sweepCtx, stopSweep := context.WithCancel(ctx)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		s.sweepLimiter(sweepCtx, limiterSweepInterval)
	}()
	defer func() {
		stopSweep()
		<-sweepDone
	}()

	s.logger.Info("gateway listening",
		"component", componentName,
		"operation", "run",
		"addr", ln.Addr().String(),
		"version", s.opts.Version,
	)

	if s.deps.Backend != nil {
		if err := s.deps.Backend.Start(ctx); err != nil {
			s.shutdown()
			<-errCh
			return fmt.Errorf("initialize backend: %w", err)
		}
	}
	s.logger.Info("gateway ready", "component", componentName, "operation", "run")

	select {
	case <-ctx.Done():
		err := s.shutdown()
		if serveErr := <-errCh; serveErr != nil && err == nil {
			err = serveErr
		}
		return err
	case err := <-errCh:
		s.shutdown()
		return err
	}
}

// shutdown closes live streams first so their handlers return, then
// drains the HTTP server and stops the backend.
func (s *Server) shutdown() error {
	if s.deps.Manager != nil {
		s.deps.Manager.CloseAll(session.CloseReasonShutdown)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	err := s.httpServer.Shutdown(shutdownCtx)
	if s.deps.Backend != nil {
		s.deps.Backend.Stop()
	}
	s.logger.Info("gateway stopped", "component", componentName, "operation", "shutdown")
	return err
}
