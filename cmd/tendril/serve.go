package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/adapters/socket"
	"github.com/aretw0/tendril/pkg/enginetest"
	"github.com/spf13/cobra"
)

// shutdownTimeout gives outstanding requests a deadline for completion.
const shutdownTimeout = 5 * time.Second

type serveOptions struct {
	dir    string
	addr   string
	socket string
	token  string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a development engine backed by the local filesystem",
		Long: `Starts an engine that resolves host chains against --dir, speaking the HTTP
protocol on --addr (WebSocket under /ws) and, with --socket, the Unix socket
protocol. Intended for trying the client locally.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts, logging.New(cmd.ErrOrStderr(), slog.LevelInfo))
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", ".", "Directory the engine exposes as the host filesystem")
	cmd.Flags().StringVarP(&opts.addr, "addr", "a", "127.0.0.1:8080", "Address to listen on")
	cmd.Flags().StringVar(&opts.socket, "socket", "", "Also listen on this Unix socket path")
	cmd.Flags().StringVar(&opts.token, "require-token", "", "Reject handshakes without this token")
	return cmd
}

func serve(ctx context.Context, opts serveOptions, logger *slog.Logger) error {
	root, err := filepath.Abs(opts.dir)
	if err != nil {
		return err
	}
	engineOpts := []enginetest.Option{
		enginetest.WithName("tendril-dev"),
		enginetest.WithBackend(enginetest.NewHostFS(root)),
	}
	if opts.token != "" {
		engineOpts = append(engineOpts, enginetest.WithCredentials(opts.token))
	}
	engine := enginetest.New(engineOpts...)

	listener, err := net.Listen("tcp", opts.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", opts.addr, err)
	}
	srv := &http.Server{Handler: engine.Handler(), ReadHeaderTimeout: 10 * time.Second}

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Channel to listen for errors coming from the listeners.
	serverErrors := make(chan error, 2)
	go func() {
		logger.Info("engine listening", "endpoint", "http://"+listener.Addr().String(), "dir", root)
		serverErrors <- srv.Serve(listener)
	}()

	socketDone := make(chan struct{})
	if opts.socket != "" {
		sockSrv := socket.NewServer(opts.socket, engine, logger)
		sockListener, err := sockSrv.Listen()
		if err != nil {
			srv.Close()
			return err
		}
		go func() {
			defer close(socketDone)
			serverErrors <- sockSrv.Serve(serveCtx, sockListener)
		}()
	} else {
		close(socketDone)
	}

	var runErr error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
		srv.Close()
	}
	<-socketDone
	return runErr
}
