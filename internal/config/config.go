package config

import (
	"path/filepath"
	"time"
)

// Config is the complete xrplgate configuration.
type Config struct {
	Node        NodeConfig        `toml:"node" mapstructure:"node"`
	Fee         FeeConfig         `toml:"fee" mapstructure:"fee"`
	Window      WindowConfig      `toml:"window" mapstructure:"window"`
	Submit      SubmitConfig      `toml:"submit" mapstructure:"submit"`
	Signing     SigningConfig     `toml:"signing" mapstructure:"signing"`
	Faucet      FaucetConfig      `toml:"faucet" mapstructure:"faucet"`
	Idempotency IdempotencyConfig `toml:"idempotency" mapstructure:"idempotency"`
	Journal     JournalConfig     `toml:"journal" mapstructure:"journal"`
	Events      EventsConfig      `toml:"events" mapstructure:"events"`
	Metrics     MetricsConfig     `toml:"metrics" mapstructure:"metrics"`
	Log         LogConfig         `toml:"log" mapstructure:"log"`

	configPath string `toml:"-" mapstructure:"-"`
}

// NodeConfig is the [node] section: the rippled websocket endpoint.
type NodeConfig struct {
	URL            string        `toml:"url" mapstructure:"url"`
	DialTimeout    time.Duration `toml:"dial_timeout" mapstructure:"dial_timeout"`
	RequestTimeout time.Duration `toml:"request_timeout" mapstructure:"request_timeout"`
	// RateLimit caps requests per second. Zero disables the limit.
	RateLimit float64 `toml:"rate_limit" mapstructure:"rate_limit"`
	Burst     int     `toml:"burst" mapstructure:"burst"`
}

// FeeConfig is the [fee] section.
type FeeConfig struct {
	FallbackDrops uint64 `toml:"fallback_drops" mapstructure:"fallback_drops"`
	// MaxDrops caps recommendations. Zero means no cap.
	MaxDrops uint64 `toml:"max_drops" mapstructure:"max_drops"`
}

// WindowConfig is the [window] section: how many ledgers a transaction
// stays valid for.
type WindowConfig struct {
	Margin      uint32 `toml:"margin" mapstructure:"margin"`
	TrustMargin uint32 `toml:"trust_margin" mapstructure:"trust_margin"`
}

// SubmitConfig is the [submit] section.
type SubmitConfig struct {
	MaxRetries   int           `toml:"max_retries" mapstructure:"max_retries"`
	RetryDelay   time.Duration `toml:"retry_delay" mapstructure:"retry_delay"`
	PollInterval time.Duration `toml:"poll_interval" mapstructure:"poll_interval"`
}

// SigningConfig is the [signing] section.
type SigningConfig struct {
	// Mode is local or remote. Remote sends the seed to the node.
	Mode string `toml:"mode" mapstructure:"mode"`
}

// FaucetConfig is the [faucet] section. Account creation is only
// available when URL is set.
type FaucetConfig struct {
	URL     string        `toml:"url" mapstructure:"url"`
	Timeout time.Duration `toml:"timeout" mapstructure:"timeout"`
}

// IdempotencyConfig is the [idempotency] section.
type IdempotencyConfig struct {
	// Backend is none, memory, pebble or leveldb.
	Backend string `toml:"backend" mapstructure:"backend"`
	Size    int    `toml:"size" mapstructure:"size"`
	Path    string `toml:"path" mapstructure:"path"`
}

// JournalConfig is the [journal] section. An empty driver disables the
// journal.
type JournalConfig struct {
	Driver       string        `toml:"driver" mapstructure:"driver"`
	DSN          string        `toml:"dsn" mapstructure:"dsn"`
	MaxOpenConns int           `toml:"max_open_conns" mapstructure:"max_open_conns"`
	Timeout      time.Duration `toml:"timeout" mapstructure:"timeout"`
}

// EventsConfig is the [events] section. An empty URL disables outcome
// events.
type EventsConfig struct {
	NATSURL       string        `toml:"nats_url" mapstructure:"nats_url"`
	SubjectPrefix string        `toml:"subject_prefix" mapstructure:"subject_prefix"`
	ReconnectWait time.Duration `toml:"reconnect_wait" mapstructure:"reconnect_wait"`
	MaxReconnects int           `toml:"max_reconnects" mapstructure:"max_reconnects"`
}

// MetricsConfig is the [metrics] section.
type MetricsConfig struct {
	// Textfile, when set, receives the metrics in text exposition format
	// when a command finishes.
	Textfile string `toml:"textfile" mapstructure:"textfile"`
}

// LogConfig is the [log] section.
type LogConfig struct {
	Level  string `toml:"level" mapstructure:"level"`
	Format string `toml:"format" mapstructure:"format"`
}

// ConfigPaths holds the paths to configuration files
type ConfigPaths struct {
	Main string // Path to main config file (xrplgate.toml)
}

// DefaultConfigPaths returns the default configuration file paths
func DefaultConfigPaths() ConfigPaths {
	return ConfigPaths{Main: "xrplgate.toml"}
}

// ConfigPathsFromDir returns configuration paths for a specific directory
func ConfigPathsFromDir(configDir string) ConfigPaths {
	return ConfigPaths{Main: filepath.Join(configDir, "xrplgate.toml")}
}

// GetConfigPath returns the path of the loaded file, empty when only
// defaults and environment were used.
func (c *Config) GetConfigPath() string {
	return c.configPath
}
