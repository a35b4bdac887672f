package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ProgramIDPlaceholder is the value shipped in sample configs. Running with it is refused.
const ProgramIDPlaceholder = "Enter Program ID here"

const (
	DefaultAccountSize        = 72
	MaxBatchSize              = 100
	defaultPrefixAccounts     = "application_accounts"
	defaultPrefixWithRefs     = "time_stamped_accounts"
	defaultLocateCommitment   = "finalized"
	defaultFetchCommitment    = "confirmed"
	defaultReferenceTimeoutMS = 30000
)

type Config struct {
	Solana    SolanaConfig    `yaml:"solana"`
	Program   ProgramConfig   `yaml:"program"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	RPC       RPCConfig       `yaml:"rpc"`
	Reference ReferenceConfig `yaml:"reference"`
	Export    ExportConfig    `yaml:"export"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Alert     AlertConfig     `yaml:"alert"`
	Log       LogConfig       `yaml:"log"`

	programKey solana.PublicKey
}

type SolanaConfig struct {
	RPCURL           string `yaml:"rpc_url" validate:"required,url"`
	Network          string `yaml:"network" validate:"required"`
	LocateCommitment string `yaml:"locate_commitment" validate:"oneof=processed confirmed finalized"`
	FetchCommitment  string `yaml:"fetch_commitment" validate:"oneof=processed confirmed finalized"`
}

type ProgramConfig struct {
	ID          string `yaml:"id" validate:"required"`
	AccountSize int    `yaml:"account_size" validate:"min=1"`
}

type PipelineConfig struct {
	BatchSize       int  `yaml:"batch_size" validate:"min=1,max=100"`
	FetchReferences bool `yaml:"fetch_references"`
	StrictDecode    bool `yaml:"strict_decode"`
}

type RateLimitConfig struct {
	MaxRetries      int `yaml:"max_retries" validate:"min=0"`
	OtherMaxRetries int `yaml:"other_max_retries" validate:"min=0"`
	BaseDelayMs     int `yaml:"base_delay_ms" validate:"min=1"`
	MaxDelayMs      int `yaml:"max_delay_ms" validate:"gtefield=BaseDelayMs"`
	MaxJitterMs     int `yaml:"max_jitter_ms" validate:"min=0"`
	BatchDelayMs    int `yaml:"batch_delay_ms" validate:"min=0"`
	RequestDelayMs  int `yaml:"request_delay_ms" validate:"min=0"`
}

// RPCConfig caps client-side request rate. RPS of 0 disables the limiter.
type RPCConfig struct {
	RPS   float64 `yaml:"rps" validate:"min=0"`
	Burst int     `yaml:"burst" validate:"min=1"`
}

// ReferenceConfig guards reference lookups with a circuit breaker.
// BreakerThreshold of 0 disables it.
type ReferenceConfig struct {
	BreakerThreshold     int `yaml:"breaker_threshold" validate:"min=0"`
	BreakerOpenTimeoutMs int `yaml:"breaker_open_timeout_ms" validate:"min=0"`
}

type ExportConfig struct {
	Dir                   string `yaml:"dir" validate:"required"`
	Prefix                string `yaml:"prefix"`
	IncludeAccountAddress bool   `yaml:"include_account_address"`
}

type MetricsConfig struct {
	Addr     string `yaml:"addr"`
	Textfile string `yaml:"textfile"`
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint" validate:"required_if=Enabled true"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio" validate:"min=0,max=1"`
}

type AlertConfig struct {
	SlackWebhookURL string `yaml:"slack_webhook_url" validate:"omitempty,url"`
	WebhookURL      string `yaml:"webhook_url" validate:"omitempty,url"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

// ConfigError reports a setting that prevents the exporter from starting.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config %s: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("config %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Load builds the configuration from defaults, the optional CONFIG_FILE YAML
// overlay, and environment variables, in that order of precedence.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Solana: SolanaConfig{
			RPCURL:           "https://api.devnet.solana.com",
			Network:          "devnet",
			LocateCommitment: defaultLocateCommitment,
			FetchCommitment:  defaultFetchCommitment,
		},
		Program: ProgramConfig{
			ID:          ProgramIDPlaceholder,
			AccountSize: DefaultAccountSize,
		},
		Pipeline: PipelineConfig{
			BatchSize:       MaxBatchSize,
			FetchReferences: true,
		},
		RateLimit: RateLimitConfig{
			MaxRetries:      5,
			OtherMaxRetries: 2,
			BaseDelayMs:     1000,
			MaxDelayMs:      30000,
			MaxJitterMs:     1000,
			BatchDelayMs:    2000,
			RequestDelayMs:  100,
		},
		RPC: RPCConfig{
			Burst: 1,
		},
		Reference: ReferenceConfig{
			BreakerOpenTimeoutMs: defaultReferenceTimeoutMS,
		},
		Export: ExportConfig{
			Dir: "./output",
		},
		Tracing: TracingConfig{
			Insecure:    true,
			SampleRatio: 1.0,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &ConfigError{Field: "CONFIG_FILE", Message: "failed to read config file", Err: err}
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return &ConfigError{Field: "CONFIG_FILE", Message: "failed to parse config file", Err: err}
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Solana.RPCURL = getEnv("SOLANA_RPC_URL", c.Solana.RPCURL)
	c.Solana.Network = getEnv("SOLANA_NETWORK", c.Solana.Network)
	c.Solana.LocateCommitment = getEnv("SOLANA_LOCATE_COMMITMENT", c.Solana.LocateCommitment)
	c.Solana.FetchCommitment = getEnv("SOLANA_FETCH_COMMITMENT", c.Solana.FetchCommitment)

	c.Program.ID = strings.TrimSpace(getEnv("PROGRAM_ID", c.Program.ID))
	c.Program.AccountSize = getEnvInt("PROGRAM_ACCOUNT_SIZE", c.Program.AccountSize)

	c.Pipeline.BatchSize = getEnvInt("PIPELINE_BATCH_SIZE", c.Pipeline.BatchSize)
	c.Pipeline.FetchReferences = getEnvBool("PIPELINE_FETCH_REFERENCES", c.Pipeline.FetchReferences)
	c.Pipeline.StrictDecode = getEnvBool("PIPELINE_STRICT_DECODE", c.Pipeline.StrictDecode)

	c.RateLimit.MaxRetries = getEnvInt("RATE_LIMIT_MAX_RETRIES", c.RateLimit.MaxRetries)
	c.RateLimit.OtherMaxRetries = getEnvInt("RATE_LIMIT_OTHER_MAX_RETRIES", c.RateLimit.OtherMaxRetries)
	c.RateLimit.BaseDelayMs = getEnvInt("RATE_LIMIT_BASE_DELAY_MS", c.RateLimit.BaseDelayMs)
	c.RateLimit.MaxDelayMs = getEnvInt("RATE_LIMIT_MAX_DELAY_MS", c.RateLimit.MaxDelayMs)
	c.RateLimit.MaxJitterMs = getEnvInt("RATE_LIMIT_MAX_JITTER_MS", c.RateLimit.MaxJitterMs)
	c.RateLimit.BatchDelayMs = getEnvInt("RATE_LIMIT_BATCH_DELAY_MS", c.RateLimit.BatchDelayMs)
	c.RateLimit.RequestDelayMs = getEnvInt("RATE_LIMIT_REQUEST_DELAY_MS", c.RateLimit.RequestDelayMs)

	c.RPC.RPS = getEnvFloat("RPC_RPS", c.RPC.RPS)
	c.RPC.Burst = getEnvInt("RPC_BURST", c.RPC.Burst)

	c.Reference.BreakerThreshold = getEnvInt("REFERENCE_BREAKER_THRESHOLD", c.Reference.BreakerThreshold)
	c.Reference.BreakerOpenTimeoutMs = getEnvInt("REFERENCE_BREAKER_OPEN_TIMEOUT_MS", c.Reference.BreakerOpenTimeoutMs)

	c.Export.Dir = getEnv("EXPORT_DIR", c.Export.Dir)
	c.Export.Prefix = getEnv("EXPORT_PREFIX", c.Export.Prefix)
	c.Export.IncludeAccountAddress = getEnvBool("EXPORT_INCLUDE_ACCOUNT_ADDRESS", c.Export.IncludeAccountAddress)

	c.Metrics.Addr = getEnv("METRICS_ADDR", c.Metrics.Addr)
	c.Metrics.Textfile = getEnv("METRICS_TEXTFILE", c.Metrics.Textfile)

	c.Tracing.Enabled = getEnvBool("OTEL_TRACING_ENABLED", c.Tracing.Enabled)
	c.Tracing.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.Endpoint)
	c.Tracing.Insecure = getEnvBool("OTEL_INSECURE", c.Tracing.Insecure)
	c.Tracing.SampleRatio = getEnvFloat("OTEL_SAMPLE_RATIO", c.Tracing.SampleRatio)

	c.Alert.SlackWebhookURL = getEnv("ALERT_SLACK_WEBHOOK_URL", c.Alert.SlackWebhookURL)
	c.Alert.WebhookURL = getEnv("ALERT_WEBHOOK_URL", c.Alert.WebhookURL)

	c.Log.Level = strings.ToLower(getEnv("LOG_LEVEL", c.Log.Level))
	c.Log.Format = strings.ToLower(getEnv("LOG_FORMAT", c.Log.Format))
}

func (c *Config) validate() error {
	if c.Program.ID == "" || c.Program.ID == ProgramIDPlaceholder {
		return &ConfigError{Field: "PROGRAM_ID", Message: "program id is not set"}
	}
	key, err := solana.PublicKeyFromBase58(c.Program.ID)
	if err != nil {
		return &ConfigError{Field: "PROGRAM_ID", Message: "program id is not a valid base-58 address", Err: err}
	}
	c.programKey = key

	if err := structValidator.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ConfigError{
				Field:   fe.Namespace(),
				Message: fmt.Sprintf("failed %q check (value %v)", fe.Tag(), fe.Value()),
			}
		}
		return &ConfigError{Field: "config", Message: "validation failed", Err: err}
	}
	return nil
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// ProgramKey returns the parsed program id. Valid only after Load.
func (c *Config) ProgramKey() solana.PublicKey {
	return c.programKey
}

// ExportPrefix returns the configured file prefix, or the mode default.
func (c *Config) ExportPrefix() string {
	if c.Export.Prefix != "" {
		return c.Export.Prefix
	}
	if c.Pipeline.FetchReferences {
		return defaultPrefixWithRefs
	}
	return defaultPrefixAccounts
}

func (r RateLimitConfig) BaseDelay() time.Duration {
	return time.Duration(r.BaseDelayMs) * time.Millisecond
}

func (r RateLimitConfig) MaxDelay() time.Duration {
	return time.Duration(r.MaxDelayMs) * time.Millisecond
}

func (r RateLimitConfig) MaxJitter() time.Duration {
	return time.Duration(r.MaxJitterMs) * time.Millisecond
}

func (r RateLimitConfig) BatchDelay() time.Duration {
	return time.Duration(r.BatchDelayMs) * time.Millisecond
}

func (r RateLimitConfig) RequestDelay() time.Duration {
	return time.Duration(r.RequestDelayMs) * time.Millisecond
}

func (r ReferenceConfig) BreakerOpenTimeout() time.Duration {
	return time.Duration(r.BreakerOpenTimeoutMs) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
