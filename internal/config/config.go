// Package config loads the recognized options table from spec.md §6 into a
// single Config struct, read once at process startup via viper. Hot reload
// is not supported; a new process is required to pick up changes.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration object, loaded once in main and passed
// down through the dig container to every component that needs it.
type Config struct {
	Monitor    MonitorConfig    `mapstructure:"monitor"`
	Ingest     IngestConfig     `mapstructure:"ingest"`
	Stores     StoresConfig     `mapstructure:"stores"`
	Supervisor SupervisorConfig `mapstructure:"supervisor"`
	Whitelist  WhitelistConfig  `mapstructure:"whitelist"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Embed      EmbedConfig      `mapstructure:"embed"`
	Messaging  MessagingConfig  `mapstructure:"messaging"`
	Admin      AdminConfig      `mapstructure:"admin"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	ObjectStore ObjectStoreConfig `mapstructure:"objectstore"`
	Queue      QueueConfig      `mapstructure:"queue"`
	Server     ServerConfig     `mapstructure:"server"`
}

// ServerConfig controls the HTTP listener cmd/assistant binds.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// ObjectStoreConfig configures the MinIO/S3-compatible client SourceMonitor
// polls and the ingestion pipeline reads payloads from (spec.md §4.8).
type ObjectStoreConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// QueueConfig configures the asynq-backed Redis queue that connects
// SourceMonitor's dispatch step to the ingestion pipeline worker (spec.md
// §4.8's "dispatches ... as a durable task" requirement).
type QueueConfig struct {
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	Name          string `mapstructure:"name"`
	Concurrency   int    `mapstructure:"concurrency"`
}

// MonitorConfig controls SourceMonitor scheduling (spec.md §4.8).
type MonitorConfig struct {
	IntervalSeconds int `mapstructure:"interval_s"`
	Workers         int `mapstructure:"workers"`
	GraceSeconds    int `mapstructure:"grace_s"`
	LedgerPath      string `mapstructure:"ledger_path"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
}

// Interval returns the configured poll interval, floored at the documented
// 10s minimum.
func (m MonitorConfig) Interval() time.Duration {
	s := m.IntervalSeconds
	if s < 10 {
		s = 10
	}
	return time.Duration(s) * time.Second
}

// GraceDeadline returns the shutdown grace period, defaulting to 120s.
func (m MonitorConfig) GraceDeadline() time.Duration {
	if m.GraceSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(m.GraceSeconds) * time.Second
}

// IngestConfig controls Chunker and pipeline sizing (spec.md §4.1, §6).
type IngestConfig struct {
	ChunkMinChars  int `mapstructure:"chunk_min_chars"`
	ChunkMaxChars  int `mapstructure:"chunk_max_chars"`
	ChunkCeiling   int `mapstructure:"chunk_ceiling"`
	EmbeddingDim   int `mapstructure:"embedding_dim"`
	EmbeddingBatch int `mapstructure:"embedding_batch"`
}

// Defaults fills zero-valued fields with the spec's nominal defaults.
func (c IngestConfig) Defaults() IngestConfig {
	if c.ChunkMinChars == 0 {
		c.ChunkMinChars = 500
	}
	if c.ChunkMaxChars == 0 {
		c.ChunkMaxChars = 1500
	}
	if c.ChunkCeiling == 0 {
		c.ChunkCeiling = 2000
	}
	if c.EmbeddingDim == 0 {
		c.EmbeddingDim = 1024
	}
	if c.EmbeddingBatch == 0 {
		c.EmbeddingBatch = 50
	}
	return c
}

// StoresConfig toggles GraphWriter/RelationalWriter and their connections.
type StoresConfig struct {
	Graph      StoreToggle `mapstructure:"graph"`
	Relational StoreToggle `mapstructure:"relational"`
	TimeoutMS  int         `mapstructure:"timeout_ms"`
}

// StoreToggle enables or disables one store and carries its DSN.
type StoreToggle struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// Timeout returns the per-call store timeout, defaulting to 30s.
func (s StoresConfig) Timeout() time.Duration {
	if s.TimeoutMS <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

// Validate enforces that at least one writer is enabled (spec.md §6).
func (s StoresConfig) Validate() error {
	if !s.Graph.Enabled && !s.Relational.Enabled {
		return fmt.Errorf("config: at least one of stores.graph.enabled or stores.relational.enabled must be true")
	}
	return nil
}

// SupervisorConfig controls QuerySupervisor behavior (spec.md §4.10).
type SupervisorConfig struct {
	MaxIterations  int `mapstructure:"max_iterations"`
	HistoryTurns   int `mapstructure:"history_turns"`
	FreshnessDays  int `mapstructure:"freshness_days"`
	MaxSessions    int `mapstructure:"max_concurrent_sessions"`
}

// Defaults fills zero-valued fields with the spec's nominal defaults.
func (s SupervisorConfig) Defaults() SupervisorConfig {
	if s.MaxIterations == 0 {
		s.MaxIterations = 50
	}
	if s.HistoryTurns == 0 {
		s.HistoryTurns = 5
	}
	if s.FreshnessDays == 0 {
		s.FreshnessDays = 60
	}
	if s.MaxSessions == 0 {
		s.MaxSessions = 8
	}
	return s
}

// WhitelistConfig controls WhitelistGate (spec.md §4.9).
type WhitelistConfig struct {
	Enabled bool `mapstructure:"enabled"`
	TTLSeconds int `mapstructure:"cache_ttl_s"`
}

// CacheTTL returns the whitelist cache TTL, defaulting to 60s.
func (w WhitelistConfig) CacheTTL() time.Duration {
	if w.TTLSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(w.TTLSeconds) * time.Second
}

// LLMConfig configures the chat/extraction backend.
type LLMConfig struct {
	Provider  string `mapstructure:"provider"` // "ollama" | "openai_compat"
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

// Timeout returns the per-call LLM timeout, defaulting to 60s.
func (l LLMConfig) Timeout() time.Duration {
	if l.TimeoutMS <= 0 {
		return 60 * time.Second
	}
	return time.Duration(l.TimeoutMS) * time.Millisecond
}

// EmbedConfig configures the embedding backend.
type EmbedConfig struct {
	Provider  string `mapstructure:"provider"`
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

// Timeout returns the per-batch embedding timeout, defaulting to 120s.
func (e EmbedConfig) Timeout() time.Duration {
	if e.TimeoutMS <= 0 {
		return 120 * time.Second
	}
	return time.Duration(e.TimeoutMS) * time.Millisecond
}

// MessagingConfig controls inbound webhook trigger behavior (spec.md §6).
type MessagingConfig struct {
	TriggerTokens []string `mapstructure:"trigger_tokens"`
	ReplyBaseURL  string   `mapstructure:"reply_base_url"`
	ReplyAPIKey   string   `mapstructure:"reply_api_key"`
}

// Triggers returns the configured trigger tokens, defaulting to the spec's
// documented defaults if none are configured.
func (m MessagingConfig) Triggers() []string {
	if len(m.TriggerTokens) == 0 {
		return []string{"@agent", "@bot", "hey agent"}
	}
	return m.TriggerTokens
}

// AdminConfig controls the optional bearer-token guard on /admin/* routes.
// PasswordHash gates IssueAdminToken, which mints a session token for an
// admin console or on-call engineer. IssueAdminToken is not exposed as an
// HTTP route, and cmd/assistant has no flag that calls it.
type AdminConfig struct {
	AuthEnabled  bool   `mapstructure:"auth_enabled"`
	JWTSecret    string `mapstructure:"jwt_secret"`
	PasswordHash string `mapstructure:"password_hash"`
}

// TelemetryConfig controls TelemetryLog output and the optional OTel trace
// exporter.
type TelemetryConfig struct {
	Path              string `mapstructure:"path"`
	RotateMaxBytes    int64  `mapstructure:"rotate_max_bytes"`
	TracingEnabled    bool   `mapstructure:"tracing_enabled"`
	TracingEndpoint   string `mapstructure:"tracing_endpoint"`
	TracingInsecure   bool   `mapstructure:"tracing_insecure"`
	TracingServiceName string `mapstructure:"tracing_service_name"`
}

// Load reads configuration from the given file path (YAML), overlaying
// environment variables prefixed MEETINGMIND_ with "." replaced by "_".
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("meetingmind")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	cfg.Ingest = cfg.Ingest.Defaults()
	cfg.Supervisor = cfg.Supervisor.Defaults()

	if err := cfg.Stores.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("monitor.interval_s", 60)
	v.SetDefault("monitor.workers", 1)
	v.SetDefault("monitor.grace_s", 120)
	v.SetDefault("monitor.ledger_path", "./data/ledger.json")
	v.SetDefault("whitelist.enabled", true)
	v.SetDefault("supervisor.max_iterations", 50)
	v.SetDefault("supervisor.history_turns", 5)
	v.SetDefault("supervisor.freshness_days", 60)
	v.SetDefault("stores.timeout_ms", 30000)
	v.SetDefault("telemetry.path", "./data/telemetry.jsonl")
	v.SetDefault("telemetry.rotate_max_bytes", 100*1024*1024)
	v.SetDefault("telemetry.tracing_service_name", "meetingmind")
	v.SetDefault("queue.name", "ingestion")
	v.SetDefault("queue.concurrency", 4)
	v.SetDefault("queue.redis_addr", "127.0.0.1:6379")
	v.SetDefault("server.addr", ":8080")
}
