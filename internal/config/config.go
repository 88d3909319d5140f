// Package config loads gateway settings from YAML with environment
// overrides on top. Missing keys keep their defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr            = "127.0.0.1:3001"
	DefaultHeartbeat       = 20 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
	DefaultMaxBodyBytes    = 1 << 20
	DefaultRequestTimeout  = 15 * time.Second
	DefaultNetwork         = "sei"
)

var defaultCandidates = []string{
	"configs/gateway.yaml",
	"go-backend/configs/gateway.yaml",
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Streams   StreamConfig    `yaml:"streams"`
	Chain     ChainConfig     `yaml:"chain"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	Heartbeat       time.Duration `yaml:"heartbeat"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	MaxBodyBytes    int64         `yaml:"maxBodyBytes"`
}

type RateLimitConfig struct {
	Enabled *bool   `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

type StreamConfig struct {
	MaxGlobal    int `yaml:"maxGlobal"`
	MaxPerClient int `yaml:"maxPerClient"`
}

type ChainConfig struct {
	DefaultNetwork string          `yaml:"defaultNetwork"`
	RequestTimeout time.Duration   `yaml:"requestTimeout"`
	Networks       []NetworkConfig `yaml:"networks"`
}

type NetworkConfig struct {
	Name     string `yaml:"name"`
	ChainID  int64  `yaml:"chainId"`
	RPCURL   string `yaml:"rpcUrl"`
	Symbol   string `yaml:"symbol"`
	Explorer string `yaml:"explorer"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() Config {
	enabled := true
	return Config{
		Server: ServerConfig{
			Addr:            DefaultAddr,
			Heartbeat:       DefaultHeartbeat,
			ShutdownTimeout: DefaultShutdownTimeout,
			MaxBodyBytes:    DefaultMaxBodyBytes,
		},
		RateLimit: RateLimitConfig{Enabled: &enabled, RPS: 30, Burst: 60},
		Streams:   StreamConfig{MaxGlobal: 128, MaxPerClient: 8},
		Chain: ChainConfig{
			DefaultNetwork: DefaultNetwork,
			RequestTimeout: DefaultRequestTimeout,
			Networks: []NetworkConfig{
				{Name: "sei", ChainID: 1329, RPCURL: "https://evm-rpc.sei-apis.com", Symbol: "SEI", Explorer: "https://seitrace.com"},
				{Name: "sei-testnet", ChainID: 1328, RPCURL: "https://evm-rpc-testnet.sei-apis.com", Symbol: "SEI", Explorer: "https://seitrace.com/?chain=atlantic-2"},
				{Name: "sei-devnet", ChainID: 713715, RPCURL: "https://evm-rpc-arctic-1.sei-apis.com", Symbol: "SEI", Explorer: "https://seitrace.com/?chain=arctic-1"},
			},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads configPath, or the first default candidate that exists,
// merges it over Default and applies environment overrides. An explicit
// path that cannot be read is an error; absent default candidates are not.
func Load(configPath string) (Config, error) {
	cfg := Default()

	candidates := defaultCandidates
	explicit := strings.TrimSpace(configPath) != ""
	if explicit {
		candidates = []string{configPath}
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
			continue
		}
		var parsed Config
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
		Merge(&cfg, parsed)
		break
	}

	ApplyEnvOverrides(&cfg)
	return cfg, cfg.Validate()
}

// Merge copies every non-zero field of src onto dst. Networks are merged
// by name so a file may override one endpoint without repeating the rest.
func Merge(dst *Config, src Config) {
	if src.Server.Addr != "" {
		dst.Server.Addr = src.Server.Addr
	}
	if src.Server.Heartbeat != 0 {
		dst.Server.Heartbeat = src.Server.Heartbeat
	}
	if src.Server.ShutdownTimeout != 0 {
		dst.Server.ShutdownTimeout = src.Server.ShutdownTimeout
	}
	if src.Server.MaxBodyBytes != 0 {
		dst.Server.MaxBodyBytes = src.Server.MaxBodyBytes
	}
	if src.RateLimit.Enabled != nil {
		v := *src.RateLimit.Enabled
		dst.RateLimit.Enabled = &v
	}
	if src.RateLimit.RPS != 0 {
		dst.RateLimit.RPS = src.RateLimit.RPS
	}
	if src.RateLimit.Burst != 0 {
		dst.RateLimit.Burst = src.RateLimit.Burst
	}
	if src.Streams.MaxGlobal != 0 {
		dst.Streams.MaxGlobal = src.Streams.MaxGlobal
	}
	if src.Streams.MaxPerClient != 0 {
		dst.Streams.MaxPerClient = src.Streams.MaxPerClient
	}
	if src.Chain.DefaultNetwork != "" {
		dst.Chain.DefaultNetwork = src.Chain.DefaultNetwork
	}
	if src.Chain.RequestTimeout != 0 {
		dst.Chain.RequestTimeout = src.Chain.RequestTimeout
	}
	for _, n := range src.Chain.Networks {
		mergeNetwork(&dst.Chain, n)
	}
	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
	}
}

func mergeNetwork(dst *ChainConfig, src NetworkConfig) {
	name := strings.ToLower(strings.TrimSpace(src.Name))
	if name == "" {
		return
	}
	src.Name = name
	for i := range dst.Networks {
		cur := &dst.Networks[i]
		if cur.Name != name {
			continue
		}
		if src.ChainID != 0 {
			cur.ChainID = src.ChainID
		}
		if src.RPCURL != "" {
			cur.RPCURL = src.RPCURL
		}
		if src.Symbol != "" {
			cur.Symbol = src.Symbol
		}
		if src.Explorer != "" {
			cur.Explorer = src.Explorer
		}
		return
	}
	dst.Networks = append(dst.Networks, src)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("config: server.addr is required")
	}
	if c.Server.Heartbeat <= 0 {
		return errors.New("config: server.heartbeat must be positive")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New("config: server.maxBodyBytes must be positive")
	}
	def := strings.ToLower(strings.TrimSpace(c.Chain.DefaultNetwork))
	for _, n := range c.Chain.Networks {
		if n.Name == def {
			if strings.TrimSpace(n.RPCURL) == "" {
				return fmt.Errorf("config: network %q has no rpcUrl", def)
			}
			return nil
		}
	}
	return fmt.Errorf("config: default network %q is not configured", c.Chain.DefaultNetwork)
}

// RateLimitEnabled reports the effective rate limit switch.
func (c Config) RateLimitEnabled() bool {
	return c.RateLimit.Enabled == nil || *c.RateLimit.Enabled
}

// LogLevel parses log.level, falling back to info.
func (c Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); err != nil {
		return slog.LevelInfo
	}
	return level
}
