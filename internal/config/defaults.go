package config

import (
	"time"

	"github.com/spf13/viper"
)

// DefaultNodeURL is the public XRPL test network.
const DefaultNodeURL = "wss://s.altnet.rippletest.net:51233"

// setDefaults sets all default values
func setDefaults(v *viper.Viper) {
	v.SetDefault("node.url", DefaultNodeURL)
	v.SetDefault("node.dial_timeout", 10*time.Second)
	v.SetDefault("node.request_timeout", 30*time.Second)
	v.SetDefault("node.rate_limit", 0)
	v.SetDefault("node.burst", 1)

	// 10 drops is the reference transaction cost.
	v.SetDefault("fee.fallback_drops", 10)
	v.SetDefault("fee.max_drops", 0)

	v.SetDefault("window.margin", 20)
	v.SetDefault("window.trust_margin", 100)

	v.SetDefault("submit.max_retries", 3)
	v.SetDefault("submit.retry_delay", time.Second)
	v.SetDefault("submit.poll_interval", time.Second)

	v.SetDefault("signing.mode", "local")

	v.SetDefault("faucet.url", "")
	v.SetDefault("faucet.timeout", 30*time.Second)

	v.SetDefault("idempotency.backend", "memory")
	v.SetDefault("idempotency.size", 10000)
	v.SetDefault("idempotency.path", "")

	v.SetDefault("journal.driver", "")
	v.SetDefault("journal.dsn", "")
	v.SetDefault("journal.max_open_conns", 4)
	v.SetDefault("journal.timeout", 5*time.Second)

	v.SetDefault("events.nats_url", "")
	v.SetDefault("events.subject_prefix", "xrplgate.outcomes")
	v.SetDefault("events.reconnect_wait", 2*time.Second)
	v.SetDefault("events.max_reconnects", 60)

	v.SetDefault("metrics.textfile", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
