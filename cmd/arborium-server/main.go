// Command arborium-server runs the highlight engine behind the HTTP API
// (internal/httpapi), backed by the static grammar registry and a
// byte-budget parse cache.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-arborium/arborium/internal/config"
	"github.com/go-arborium/arborium/internal/engine"
	"github.com/go-arborium/arborium/internal/grammar"
	"github.com/go-arborium/arborium/internal/httpapi"
)

func main() {
	if err := run(); err != nil {
		slog.Error("arborium-server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := os.Getenv("ARBORIUM_CONFIG")
	opts, err := config.LoadFile(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	provider := grammar.NewStaticProvider(opts.ParserPoolSize)
	defer provider.Close()

	cache := engine.NewParseCache(opts.CacheMaxEntries, opts.CacheMaxBytes)
	defer cache.Close()

	eng := engine.New(provider, cache)

	var serverOpts []httpapi.Option
	if opts.HTTPAuthJWT {
		secret := os.Getenv("ARBORIUM_JWT_SECRET")
		if secret == "" {
			return errors.New("ARBORIUM_JWT_SECRET is required when http_auth_jwt is enabled")
		}
		serverOpts = append(serverOpts, httpapi.WithJWTAuth([]byte(secret)))
	}

	srv := httpapi.NewServer(eng, serverOpts...)
	httpServer := &http.Server{
		Addr:         opts.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("arborium-server listening", "addr", opts.HTTPAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}

	return nil
}
