package tendril

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/tendril/internal/config"
	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/internal/transport"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/resolve"
	"github.com/aretw0/tendril/pkg/session"
)

// Client is the entry point of the library: one Ready session plus the
// resolver that executes references against it. Safe for concurrent use.
type Client struct {
	session  *session.Session
	resolver *resolve.Resolver
	config   config.Config

	configFile string
	overrides  []func(*config.Config)
	logger     *slog.Logger
	transport  ports.Transport
	hooks      domain.LifecycleHooks
	cache      ports.ResultCache
}

// Connect establishes a session with the engine. It fails with a
// *ConnectionError when the engine is unreachable, rejects the credentials
// or does not become ready within the configured timeout.
func Connect(ctx context.Context, opts ...Option) (*Client, error) {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}

	cfg, err := config.Load(c.configFile)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	for _, override := range c.overrides {
		override(&cfg)
	}
	c.config = cfg

	if c.logger == nil {
		c.logger = logging.NewNop()
		if cfg.LogLevel != "" {
			level, err := logging.ParseLevel(cfg.LogLevel)
			if err != nil {
				return nil, fmt.Errorf("loading configuration: %w", err)
			}
			c.logger = logging.New(nil, level)
		}
	}

	tr := c.transport
	if tr == nil {
		tr, err = transport.New(cfg.Endpoint)
		if err != nil {
			return nil, &domain.ConnectionError{Endpoint: cfg.Endpoint, Err: err}
		}
	}

	s, err := session.Connect(ctx, tr,
		session.WithCredentials(cfg.Credentials),
		session.WithTimeout(cfg.Timeout),
		session.WithResolveTimeout(cfg.ResolveTimeout),
		session.WithClientName(session.DefaultClientName+"/"+strings.TrimSpace(Version)),
		session.WithLogger(c.logger),
		session.WithLifecycleHooks(c.hooks),
	)
	if err != nil {
		return nil, err
	}
	c.session = s

	resolverOpts := []resolve.Option{
		resolve.WithLogger(s.Logger()),
		resolve.WithLifecycleHooks(c.hooks),
	}
	if c.cache != nil {
		resolverOpts = append(resolverOpts, resolve.WithResultCache(c.cache))
	}
	c.resolver = resolve.New(resolverOpts...)
	return c, nil
}

// With connects, runs fn and closes the client on every exit path. A Close
// failure is returned only when fn succeeded.
func With(ctx context.Context, fn func(context.Context, *Client) error, opts ...Option) (err error) {
	c, err := Connect(ctx, opts...)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := c.teardownContext(ctx)
		defer cancel()
		if closeErr := c.CloseContext(closeCtx); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(ctx, c)
}

// Close ends the session. It is safe to call more than once; only the
// first call can return an error. Close waits at most the connect timeout.
func (c *Client) Close() error {
	ctx, cancel := c.teardownContext(context.Background())
	defer cancel()
	return c.CloseContext(ctx)
}

// teardownContext detaches ctx from its cancellation and bounds it by the
// connect timeout.
func (c *Client) teardownContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if c.config.Timeout > 0 {
		return context.WithTimeout(ctx, c.config.Timeout)
	}
	return context.WithCancel(ctx)
}

// CloseContext is Close bounded by ctx.
func (c *Client) CloseContext(ctx context.Context) error {
	return c.session.Close(ctx)
}

// Session returns the underlying session.
func (c *Client) Session() *session.Session {
	return c.session
}

// State returns the session's lifecycle state.
func (c *Client) State() domain.SessionState {
	return c.session.State()
}

// Endpoint returns where the engine is reached.
func (c *Client) Endpoint() string {
	return c.session.Endpoint()
}
