package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"sei-gateway/go-backend/internal/domains/contracts"
	"sei-gateway/go-backend/internal/domains/rpckit"
)

const (
	ProtocolVersion = "2.0"
	componentName   = "router"
)

var nullID = json.RawMessage("null")

// Envelope is a JSON-RPC style call.
type Envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the caller expects no response.
func (e Envelope) IsNotification() bool {
	return len(bytes.TrimSpace(e.ID)) == 0
}

// Response echoes the request id and carries either a result or an error.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpckit.Error   `json:"error,omitempty"`
}

// CallMetrics receives per-method outcomes. A nil CallMetrics is ignored.
type CallMetrics interface {
	RecordCall(method, outcome string, latency time.Duration)
}

// Router dispatches calls by method name to the chain service. It reports
// ServiceUnavailable until Bind installs a chain service.
type Router struct {
	chain          atomic.Pointer[chainRef]
	methods        map[string]method
	defaultNetwork string
	logger         *slog.Logger
	metrics        CallMetrics
}

type chainRef struct {
	svc contracts.ChainService
}

func NewRouter(defaultNetwork string, logger *slog.Logger, metrics CallMetrics) *Router {
	if defaultNetwork == "" {
		defaultNetwork = contracts.DefaultNetwork
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		methods:        defaultMethods(),
		defaultNetwork: defaultNetwork,
		logger:         logger,
		metrics:        metrics,
	}
}

// Bind installs the chain service; the router is ready afterwards.
func (r *Router) Bind(svc contracts.ChainService) {
	if svc == nil {
		r.chain.Store(nil)
		return
	}
	r.chain.Store(&chainRef{svc: svc})
}

func (r *Router) Ready() bool {
	return r.chain.Load() != nil
}

// MethodNames returns the table keys in sorted order.
func (r *Router) MethodNames() []string {
	list := sortedMethods(r.methods)
	out := make([]string, len(list))
	for i, m := range list {
		out[i] = m.Name
	}
	return out
}

func (r *Router) HasMethod(name string) bool {
	_, ok := r.methods[name]
	return ok
}

// Handle decodes one call envelope and always produces a response.
func (r *Router) Handle(ctx context.Context, body []byte) Response {
	env, err := DecodeEnvelope(body)
	if !r.Ready() {
		return errorResponse(env.ID, contracts.ErrServiceUnavailable)
	}
	if err != nil {
		return errorResponse(env.ID, err)
	}
	return r.Respond(ctx, env)
}

// Respond validates a decoded envelope and runs it.
func (r *Router) Respond(ctx context.Context, env Envelope) Response {
	if !r.Ready() {
		return errorResponse(env.ID, contracts.ErrServiceUnavailable)
	}
	if env.JSONRPC != ProtocolVersion {
		return errorResponse(env.ID, contracts.NewError(contracts.KindInvalidProtocolVersion, `jsonrpc must be "2.0"`))
	}
	if env.Method == "" {
		return errorResponse(env.ID, contracts.NewError(contracts.KindMissingMethod, "method is required"))
	}
	result, err := r.Call(ctx, env.Method, env.Params)
	if err != nil {
		return errorResponse(env.ID, err)
	}
	return Response{JSONRPC: ProtocolVersion, ID: responseID(env.ID), Result: result}
}

// Call runs one backend operation and returns its precision-safe result.
func (r *Router) Call(ctx context.Context, name string, params json.RawMessage) (any, error) {
	ref := r.chain.Load()
	if ref == nil {
		return nil, contracts.ErrServiceUnavailable
	}
	if name == "" {
		return nil, contracts.NewError(contracts.KindMissingMethod, "method is required")
	}
	m, ok := r.methods[name]
	if !ok {
		r.record("unknown", contracts.KindUnknownMethod, 0)
		return nil, &contracts.Error{Kind: contracts.KindUnknownMethod, Message: fmt.Sprintf("method %q not found", name)}
	}

	started := time.Now()
	network, err := resolveNetwork(params, r.defaultNetwork)
	if err == nil {
		var result any
		result, err = m.call(ctx, ref.svc, network, params)
		if err == nil {
			r.record(name, "", time.Since(started))
			return EncodeSafe(result), nil
		}
	}
	err = contracts.WrapError(contracts.KindBackendOperationFailed, fmt.Errorf("%s failed: %w", name, err))
	kind := contracts.KindOf(err)
	r.record(name, kind, time.Since(started))
	r.logger.Warn("call failed",
		"component", componentName,
		"operation", "call",
		"method", name,
		"network", network,
		"kind", string(kind),
		"error", err.Error(),
		"latency_ms", time.Since(started).Milliseconds(),
	)
	return nil, err
}

func (r *Router) record(method string, kind contracts.Kind, latency time.Duration) {
	if r.metrics == nil {
		return
	}
	outcome := "ok"
	if kind != "" {
		outcome = string(kind)
	}
	r.metrics.RecordCall(method, outcome, latency)
}

// DecodeEnvelope parses a call body. Fields of the wrong JSON type decode
// as empty so validation reports them by name; only malformed JSON is a
// parse error.
func DecodeEnvelope(body []byte) (Envelope, error) {
	var raw struct {
		JSONRPC json.RawMessage `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Method  json.RawMessage `json:"method"`
		Params  json.RawMessage `json:"params"`
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&raw); err != nil {
		return Envelope{}, &contracts.Error{Kind: contracts.KindParseError, Message: "parse error", Err: err}
	}
	env := Envelope{ID: raw.ID, Params: raw.Params}
	if dec.More() {
		return env, contracts.NewError(contracts.KindParseError, "trailing data after envelope")
	}
	_ = json.Unmarshal(raw.JSONRPC, &env.JSONRPC)
	_ = json.Unmarshal(raw.Method, &env.Method)
	return env, nil
}

func errorResponse(id json.RawMessage, err error) Response {
	return Response{JSONRPC: ProtocolVersion, ID: responseID(id), Error: rpckit.FromError(err)}
}

func responseID(id json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(id)) == 0 {
		return nullID
	}
	return id
}
