// Package cli holds the logic behind the tendril command so it can be
// tested without a process boundary.
package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/observability"
)

// Options mirrors the global command-line flags. Empty values leave the
// configuration file and environment in charge.
type Options struct {
	Endpoint   string
	Token      string
	Timeout    time.Duration
	ConfigFile string
	Debug      bool

	// Extra is appended last; tests use it to inject a transport.
	Extra []tendril.Option
}

// Connect opens a client from opts.
func Connect(ctx context.Context, opts Options) (*tendril.Client, error) {
	return tendril.Connect(ctx, clientOptions(opts)...)
}

func clientOptions(opts Options) []tendril.Option {
	var out []tendril.Option
	if opts.ConfigFile != "" {
		out = append(out, tendril.WithConfigFile(opts.ConfigFile))
	}
	if opts.Endpoint != "" {
		out = append(out, tendril.WithEndpoint(opts.Endpoint))
	}
	if opts.Token != "" {
		out = append(out, tendril.WithCredentials(opts.Token))
	}
	if opts.Timeout > 0 {
		out = append(out, tendril.WithTimeout(opts.Timeout))
	}
	if opts.Debug {
		logger := createLogger(true)
		out = append(out,
			tendril.WithLogger(logger),
			tendril.WithLifecycleHooks(observability.LogHooks(logger)),
		)
	}
	return append(out, opts.Extra...)
}

// createLogger configures the application logger.
// In debug mode, it writes to Stderr (to separate from Stdout command output).
func createLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(nil, slog.LevelDebug)
	}
	return logging.NewNop()
}

// With connects from opts, runs fn and closes the client afterwards.
func With(ctx context.Context, opts Options, fn func(context.Context, *tendril.Client) error) error {
	return tendril.With(ctx, fn, clientOptions(opts)...)
}
