package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	EnvAddr             = "SEI_GATEWAY_ADDR"
	EnvLogLevel         = "SEI_GATEWAY_LOG_LEVEL"
	EnvDefaultNetwork   = "SEI_GATEWAY_DEFAULT_NETWORK"
	EnvRPCURLPrefix     = "SEI_GATEWAY_RPC_URL_"
	EnvRateLimitEnabled = "SEI_GATEWAY_RATE_LIMIT_ENABLED"
	EnvRateLimitRPS     = "SEI_GATEWAY_RATE_LIMIT_RPS"
	EnvRateLimitBurst   = "SEI_GATEWAY_RATE_LIMIT_BURST"
	EnvStreamMaxGlobal  = "SEI_GATEWAY_STREAM_MAX_GLOBAL"
	EnvStreamMaxClient  = "SEI_GATEWAY_STREAM_MAX_PER_CLIENT"
)

// ApplyEnvOverrides applies SEI_GATEWAY_* variables. Unparseable values
// are ignored and the previous setting stays.
func ApplyEnvOverrides(cfg *Config) {
	if v := envString(EnvAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := envString(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := envString(EnvDefaultNetwork); v != "" {
		cfg.Chain.DefaultNetwork = v
	}
	for i := range cfg.Chain.Networks {
		if v := envString(RPCURLEnvKey(cfg.Chain.Networks[i].Name)); v != "" {
			cfg.Chain.Networks[i].RPCURL = v
		}
	}
	if v, ok := envBool(EnvRateLimitEnabled); ok {
		cfg.RateLimit.Enabled = &v
	}
	cfg.RateLimit.RPS = envPositiveFloatWithFallback(EnvRateLimitRPS, cfg.RateLimit.RPS)
	cfg.RateLimit.Burst = envPositiveIntWithFallback(EnvRateLimitBurst, cfg.RateLimit.Burst)
	cfg.Streams.MaxGlobal = envPositiveIntWithFallback(EnvStreamMaxGlobal, cfg.Streams.MaxGlobal)
	cfg.Streams.MaxPerClient = envPositiveIntWithFallback(EnvStreamMaxClient, cfg.Streams.MaxPerClient)
}

// RPCURLEnvKey names the override variable for a network, e.g.
// SEI_GATEWAY_RPC_URL_SEI_TESTNET for "sei-testnet".
func RPCURLEnvKey(network string) string {
	key := strings.ToUpper(strings.TrimSpace(network))
	key = strings.NewReplacer("-", "_", ".", "_").Replace(key)
	return EnvRPCURLPrefix + key
}

func envString(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envBool(key string) (bool, bool) {
	switch strings.ToLower(envString(key)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

func envPositiveIntWithFallback(key string, fallback int) int {
	parsed, err := strconv.Atoi(envString(key))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envPositiveFloatWithFallback(key string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(envString(key), 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
