// Package gatewayserver wires configuration, the chain backend, the
// session core and the HTTP transport into one runnable server.
package gatewayserver

import (
	"context"
	"io"
	"log/slog"
	"os"

	"sei-gateway/go-backend/internal/adapters/rpc"
	"sei-gateway/go-backend/internal/app"
	"sei-gateway/go-backend/internal/chain"
	"sei-gateway/go-backend/internal/config"
	"sei-gateway/go-backend/internal/domains/contracts"
	"sei-gateway/go-backend/internal/platform/metrics"
	"sei-gateway/go-backend/internal/platform/privacylog"
	"sei-gateway/go-backend/internal/session"
)

// NewLogger builds the JSON logger every component writes through.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	base := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(privacylog.WrapHandler(base))
}

// New builds the server from cfg. Nothing is dialed until Run.
func New(cfg config.Config, version string, logger *slog.Logger) (*rpc.Server, error) {
	if logger == nil {
		logger = NewLogger(os.Stdout, cfg.LogLevel())
	}
	svc, err := chain.NewService(Networks(cfg), cfg.Chain.DefaultNetwork, cfg.Chain.RequestTimeout, logger)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	registry := session.NewRegistry()
	handlers := &session.HandlerSlot{}
	router := app.NewRouter(cfg.Chain.DefaultNetwork, logger, m)

	backend := &chainBackend{
		svc:      svc,
		router:   router,
		handlers: handlers,
		handler:  app.NewSessionHandler(router, logger),
		logger:   logger,
	}
	opts := rpc.Options{
		Addr:            cfg.Server.Addr,
		Heartbeat:       cfg.Server.Heartbeat,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		RateLimit: rpc.RateLimitOptions{
			Enabled: cfg.RateLimitEnabled(),
			RPS:     cfg.RateLimit.RPS,
			Burst:   cfg.RateLimit.Burst,
		},
		Streams: rpc.StreamLimitOptions{
			MaxGlobal:    cfg.Streams.MaxGlobal,
			MaxPerClient: cfg.Streams.MaxPerClient,
		},
		Version: version,
	}
	return rpc.NewServer(opts, rpc.Deps{
		Manager:    session.NewManager(registry, handlers, logger, m),
		Dispatcher: session.NewDispatcher(registry, handlers, logger, m),
		Handlers:   handlers,
		Router:     router,
		Metrics:    m,
		Backend:    backend,
		Logger:     logger,
	}), nil
}

// Networks converts configured endpoints for the chain service.
func Networks(cfg config.Config) []chain.Network {
	out := make([]chain.Network, 0, len(cfg.Chain.Networks))
	for _, n := range cfg.Chain.Networks {
		out = append(out, chain.Network{
			Name:     n.Name,
			ChainID:  n.ChainID,
			RPCURL:   n.RPCURL,
			Symbol:   n.Symbol,
			Explorer: n.Explorer,
		})
	}
	return out
}

// chainInitializer is the part of the chain service the backend drives.
type chainInitializer interface {
	contracts.ChainService
	Init(ctx context.Context) error
	Close()
}

type chainBackend struct {
	svc      chainInitializer
	router   *app.Router
	handlers *session.HandlerSlot
	handler  session.MessageHandler
	logger   *slog.Logger
}

// Start verifies the default network, binds the router and only then
// publishes the message handler, so streams never see a half-ready
// backend.
func (b *chainBackend) Start(ctx context.Context) error {
	if err := b.svc.Init(ctx); err != nil {
		return err
	}
	b.router.Bind(b.svc)
	b.handlers.Set(b.handler)
	b.logger.Info("backend bound",
		"component", "gateway",
		"operation", "start",
		"methods", len(b.router.MethodNames()),
	)
	return nil
}

func (b *chainBackend) Stop() {
	b.svc.Close()
}
