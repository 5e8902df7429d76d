package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/philly/edge-permissions/internal/config"
)

// App owns the HTTP server's lifecycle: start, then block for a shutdown
// signal, then drain in-flight requests before returning.
type App struct {
	server *http.Server
	cfg    config.Config
}

// NewApp builds an App from an already-configured HTTP server.
func NewApp(server *http.Server, cfg config.Config) *App {
	return &App{server: server, cfg: cfg}
}

// Run starts the server and blocks until it exits, either because it
// errored or because the process received a shutdown signal.
func (a *App) Run() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- a.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case <-sigChan:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
	}
	return nil
}
