// Package config loads and validates the closed set of environment
// variables plus the YAML provider-operations file this service runs on.
// Everything is checked at startup; a malformed value fails the process
// immediately rather than at query time.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hanlulong/openecon-data-sub002/internal/breaker"
	"github.com/hanlulong/openecon-data-sub002/internal/cache"
	"github.com/hanlulong/openecon-data-sub002/internal/httpclient"
	"github.com/hanlulong/openecon-data-sub002/internal/intent"
	"github.com/hanlulong/openecon-data-sub002/internal/snapshot"
)

// Config is the fully-resolved process configuration: environment-variable
// closed set plus the loaded ProviderOps file.
type Config struct {
	HTTPHost string
	HTTPPort int

	LLM intent.LLMConfig

	ProviderAPIKeys map[string]string // absent key disables that provider, never fails startup
	AllowProviders []string // empty = allow all
	DenyProviders []string

	Pool httpclient.Config
	Breaker breaker.Config
	CacheTTL cache.TTLTable

	Snapshot snapshot.Config

	IndexPath string
	IndexRebuildCron string // robfig/cron expression

	Ops ProviderOps
}

// Load reads .env (if present), then the environment, then the YAML
// provider-ops file, and validates the result. A .env value never
// overrides a variable already set in the environment; the YAML file
// only supplies Ops and does not override any environment setting.
func Load(opsPath string) (*Config, error) {
	_ = godotenv.Load()

	ops, err := LoadProviderOps(opsPath)
	if err != nil {
 return nil, fmt.Errorf("loading provider ops file %s: %w", opsPath, err)
	}

	cfg := &Config{
 HTTPHost: getEnv("HTTP_HOST", "0.0.0.0"),
 HTTPPort: getEnvAsInt("HTTP_PORT", 8080),

 LLM: intent.LLMConfig{
 BaseURL: getEnv("LLM_BASE_URL", "https://api.anthropic.com/v1"),
 APIKey: getEnv("LLM_API_KEY", ""),
 Model: getEnv("LLM_MODEL", "claude-3-5-sonnet-20241022"),
 Timeout: getEnvAsDuration("LLM_TIMEOUT", 20*time.Second),
 },

 ProviderAPIKeys: map[string]string{
 "fred": getEnv("FRED_API_KEY", ""),
 "worldbank": getEnv("WORLDBANK_API_KEY", ""),
 "imf": getEnv("IMF_API_KEY", ""),
 "exchangerate": getEnv("EXCHANGERATE_API_KEY", ""),
 "coingecko": getEnv("COINGECKO_API_KEY", ""),
 "comtrade": getEnv("COMTRADE_API_KEY", ""),
 "statcan": getEnv("STATCAN_API_KEY", ""),
 },
 AllowProviders: splitCSV(getEnv("PROVIDER_ALLOWLIST", "")),
 DenyProviders: splitCSV(getEnv("PROVIDER_DENYLIST", "")),

 Pool: httpclient.Config{
 MaxConnsTotal: getEnvAsInt("HTTP_POOL_MAX_CONNS", 200),
 MaxIdlePerHost: getEnvAsInt("HTTP_POOL_MAX_IDLE_PER_HOST", 20),
 KeepAliveExpiry: getEnvAsDuration("HTTP_POOL_IDLE_TIMEOUT", 90*time.Second),
 ConnectTimeout: getEnvAsDuration("HTTP_POOL_CONNECT_TIMEOUT", 5*time.Second),
 RequestTimeout: getEnvAsDuration("HTTP_POOL_REQUEST_TIMEOUT", 30*time.Second),
 UserAgent: getEnv("HTTP_POOL_USER_AGENT", "openecon-data/1.0 (+query pipeline)"),
 },
 Breaker: breaker.Config{
 FailureThreshold: uint32(getEnvAsInt("BREAKER_FAILURE_THRESHOLD", 5)),
 MinRequests: uint32(getEnvAsInt("BREAKER_MIN_REQUESTS", 10)),
 RecoveryTimeout: getEnvAsDuration("BREAKER_RECOVERY_TIMEOUT", 30*time.Second),
 SuccessThreshold: uint32(getEnvAsInt("BREAKER_SUCCESS_THRESHOLD", 2)),
 WindowSize: getEnvAsDuration("BREAKER_WINDOW_SIZE", 60*time.Second),
 },
 CacheTTL: cache.DefaultTTLTable(),

 Snapshot: snapshot.Config{
 Bucket: getEnv("SNAPSHOT_S3_BUCKET", ""),
 Prefix: getEnv("SNAPSHOT_S3_PREFIX", "openecon"),
 Region: getEnv("SNAPSHOT_S3_REGION", "us-east-1"),
 },

 IndexPath: getEnv("INDEX_DB_PATH", "data/index.sqlite"),
 IndexRebuildCron: getEnv("INDEX_REBUILD_CRON", "0 0 3 * * *"), // daily at 03:00

 Ops: ops,
	}

	if err := cfg.Validate(); err != nil {
 return nil, err
	}
	return cfg, nil
}

// Validate fails fast on malformed configuration.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
 return fmt.Errorf("HTTP_PORT out of range: %d", c.HTTPPort)
	}
	if c.LLM.APIKey == "" {
 return fmt.Errorf("LLM_API_KEY is required (no LLM provider configured)")
	}
	if c.Breaker.FailureThreshold == 0 {
 return fmt.Errorf("BREAKER_FAILURE_THRESHOLD must be > 0")
	}
	if c.Breaker.MinRequests == 0 {
 return fmt.Errorf("BREAKER_MIN_REQUESTS must be > 0")
	}
	return nil
}

// ConfiguredProviders reports which providers have a non-empty API key,
// used to populate GET /health's provider list.
func (c *Config) ConfiguredProviders() []string {
	var out []string
	for name, key := range c.ProviderAPIKeys {
 if key != "" {
 out = append(out, name)
 }
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
 return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
 if n, err := strconv.Atoi(v); err == nil {
 return n
 }
	}
	return def
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
 if d, err := time.ParseDuration(v); err == nil {
 return d
 }
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
 return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
 if i == len(s) || s[i] == ',' {
 if i > start {
 out = append(out, s[start:i])
 }
 start = i + 1
 }
	}
	return out
}

// ProviderOps is the YAML-loaded operational-tuning file: per-provider rate
// limits, TTL overrides, and retry knobs, loaded from YAML rather than env
// vars since it's operational tuning an operator edits without a redeploy.
type ProviderOps struct {
	Defaults ProviderOpsDefaults `yaml:"defaults"`
	Providers map[string]ProviderOpsEntry `yaml:"providers"`
}

type ProviderOpsDefaults struct {
	RateLimitRPS float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int `yaml:"rate_limit_burst"`
	TTLSeconds int `yaml:"ttl_seconds"`
	MaxRetries int `yaml:"max_retries"`
}

type ProviderOpsEntry struct {
	RateLimitRPS float64 `yaml:"rate_limit_rps,omitempty"`
	RateLimitBurst int `yaml:"rate_limit_burst,omitempty"`
	TTLSeconds int `yaml:"ttl_seconds,omitempty"`
	MaxRetries int `yaml:"max_retries,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// LoadProviderOps reads the YAML provider-operations file: per-provider
// rate limits, cache TTL overrides, and retry counts that an operator
// tunes without a redeploy. A missing file is not an error; it falls
// back to conservative defaults.
func LoadProviderOps(path string) (ProviderOps, error) {
	var ops ProviderOps
	data, err := os.ReadFile(path)
	if err != nil {
 if os.IsNotExist(err) {
 return ProviderOps{Defaults: ProviderOpsDefaults{RateLimitRPS: 2, RateLimitBurst: 5, TTLSeconds: 3600, MaxRetries: 1}}, nil
 }
 return ops, err
	}
	if err := yaml.Unmarshal(data, &ops); err != nil {
 return ops, fmt.Errorf("parsing provider ops yaml: %w", err)
	}
	return ops, nil
}

// RateLimit resolves a provider's effective rate limit, falling back to
// Defaults when the provider has no entry or an unset rate.
func (o ProviderOps) RateLimit(provider string) (rps float64, burst int) {
	if e, ok := o.Providers[provider]; ok && e.RateLimitRPS > 0 {
 b := e.RateLimitBurst
 if b <= 0 {
 b = o.Defaults.RateLimitBurst
 }
 return e.RateLimitRPS, b
	}
	return o.Defaults.RateLimitRPS, o.Defaults.RateLimitBurst
}

// TTL resolves a provider's effective cache TTL override.
func (o ProviderOps) TTL(provider string) time.Duration {
	if e, ok := o.Providers[provider]; ok && e.TTLSeconds > 0 {
 return time.Duration(e.TTLSeconds) * time.Second
	}
	return time.Duration(o.Defaults.TTLSeconds) * time.Second
}
