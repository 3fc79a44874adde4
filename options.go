package tendril

import (
	"log/slog"
	"time"

	"github.com/aretw0/tendril/internal/config"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/observability"
	"github.com/aretw0/tendril/pkg/ports"
)

// Option defines a functional option for configuring a Client.
type Option func(*Client)

// WithEndpoint sets the engine address. The scheme picks the transport:
// http(s)://, ws(s):// or unix://.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.overrides = append(c.overrides, func(cfg *config.Config) { cfg.Endpoint = endpoint })
	}
}

// WithCredentials sets the auth material sent in the handshake.
func WithCredentials(credentials string) Option {
	return func(c *Client) {
		c.overrides = append(c.overrides, func(cfg *config.Config) { cfg.Credentials = credentials })
	}
}

// WithTimeout bounds how long Connect waits for the engine to become ready.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.overrides = append(c.overrides, func(cfg *config.Config) { cfg.Timeout = d })
	}
}

// WithResolveTimeout bounds every terminal call. Zero leaves only the
// caller's context.
func WithResolveTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.overrides = append(c.overrides, func(cfg *config.Config) { cfg.ResolveTimeout = d })
	}
}

// WithConfigFile loads settings from a YAML or JSON file before the
// environment and the other options are applied.
func WithConfigFile(path string) Option {
	return func(c *Client) {
		c.configFile = path
	}
}

// WithLogger sets a custom structured logger. By default the client is silent
// unless TENDRIL_LOG_LEVEL is set.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTransport injects a ready-made transport, bypassing endpoint
// selection. The client owns it from then on.
func WithTransport(t ports.Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls are merged.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Client) {
		c.hooks = c.hooks.Merge(hooks)
	}
}

// WithMetrics records Prometheus metrics for the session.
func WithMetrics(m *observability.Metrics) Option {
	return WithLifecycleHooks(m.Hooks())
}

// WithResultCache memoises identical terminal calls within the session.
// Off by default: every terminal call normally reaches the engine.
func WithResultCache(cache ports.ResultCache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}
