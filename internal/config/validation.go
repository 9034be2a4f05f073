package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ValidateConfig performs validation on the complete configuration
func ValidateConfig(config *Config) error {
	if err := config.Node.Validate(); err != nil {
		return fmt.Errorf("node validation failed: %w", err)
	}
	if err := config.Submit.Validate(); err != nil {
		return fmt.Errorf("submit validation failed: %w", err)
	}
	if err := config.Signing.Validate(); err != nil {
		return fmt.Errorf("signing validation failed: %w", err)
	}
	if err := config.Idempotency.Validate(); err != nil {
		return fmt.Errorf("idempotency validation failed: %w", err)
	}
	if err := config.Journal.Validate(); err != nil {
		return fmt.Errorf("journal validation failed: %w", err)
	}
	if err := config.Log.Validate(); err != nil {
		return fmt.Errorf("log validation failed: %w", err)
	}
	if config.Fee.MaxDrops != 0 && config.Fee.FallbackDrops > config.Fee.MaxDrops {
		return fmt.Errorf("fee.fallback_drops %d exceeds fee.max_drops %d", config.Fee.FallbackDrops, config.Fee.MaxDrops)
	}
	return nil
}

// Validate performs validation on the node configuration
func (n *NodeConfig) Validate() error {
	if n.URL == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(n.URL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", n.URL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("url %q must use ws or wss", n.URL)
	}
	if n.RateLimit < 0 {
		return fmt.Errorf("rate_limit must be non-negative, got %v", n.RateLimit)
	}
	if n.Burst < 0 {
		return fmt.Errorf("burst must be non-negative, got %d", n.Burst)
	}
	return nil
}

// Validate performs validation on the submit configuration
func (s *SubmitConfig) Validate() error {
	if s.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative, got %d", s.MaxRetries)
	}
	if s.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must be non-negative, got %s", s.RetryDelay)
	}
	if s.PollInterval < 0 {
		return fmt.Errorf("poll_interval must be non-negative, got %s", s.PollInterval)
	}
	return nil
}

// Validate performs validation on the signing configuration
func (s *SigningConfig) Validate() error {
	switch strings.ToLower(s.Mode) {
	case "", "local", "remote":
		return nil
	default:
		return fmt.Errorf("invalid mode: %s (valid options: local, remote)", s.Mode)
	}
}

// Validate performs validation on the idempotency configuration
func (i *IdempotencyConfig) Validate() error {
	backend := strings.ToLower(i.Backend)
	if !slices.Contains([]string{"", "none", "memory", "pebble", "leveldb"}, backend) {
		return fmt.Errorf("invalid backend: %s (valid options: none, memory, pebble, leveldb)", i.Backend)
	}
	if (backend == "pebble" || backend == "leveldb") && i.Path == "" {
		return fmt.Errorf("path is required for the %s backend", backend)
	}
	if i.Size < 0 {
		return fmt.Errorf("size must be non-negative, got %d", i.Size)
	}
	return nil
}

// Enabled reports whether a guard is configured.
func (i *IdempotencyConfig) Enabled() bool {
	b := strings.ToLower(i.Backend)
	return b != "" && b != "none"
}

// Validate performs validation on the journal configuration
func (j *JournalConfig) Validate() error {
	switch j.Driver {
	case "":
		return nil
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid driver: %s (valid options: sqlite, postgres)", j.Driver)
	}
	if j.DSN == "" {
		return fmt.Errorf("dsn is required when driver=%s", j.Driver)
	}
	if j.MaxOpenConns < 0 {
		return fmt.Errorf("max_open_conns must be non-negative, got %d", j.MaxOpenConns)
	}
	return nil
}

// Enabled reports whether the journal is configured.
func (j *JournalConfig) Enabled() bool { return j.Driver != "" }

// Enabled reports whether outcome events are published.
func (e *EventsConfig) Enabled() bool { return e.NATSURL != "" }

// Validate performs validation on the log configuration
func (l *LogConfig) Validate() error {
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(l.Level)) {
		return fmt.Errorf("invalid level: %s (valid options: debug, info, warn, error)", l.Level)
	}
	if !slices.Contains([]string{"text", "json"}, strings.ToLower(l.Format)) {
		return fmt.Errorf("invalid format: %s (valid options: text, json)", l.Format)
	}
	return nil
}
