package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const shutdownTimeout = 5 * time.Second

// run warms the simulator up, then either dumps the registry to stdout or
// serves it over HTTP until ctx is done or a step fails.
func (s *server) run(ctx context.Context, stdout io.Writer) error {
	cfg := s.currentConfig()

	if err := s.warmUp(ctx, cfg.WarmupSteps, cfg.Interval); err != nil {
		return err
	}
	if cfg.Dump {
		_, err := s.registry.WriteTo(stdout)
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.scheduler != nil {
		s.scheduler.Start()
		defer s.scheduler.Stop()
	}
	if cfg.WatchConfig && cfg.ConfigFile != "" {
		if err := s.watchConfig(ctx, cfg.ConfigFile); err != nil {
			return err
		}
	}

	// Wrap the router with h2c to support HTTP/2 over cleartext
	httpServer := &http.Server{
		Addr:        net.JoinHostPort(cfg.Listen, strconv.Itoa(cfg.Port)),
		Handler:     h2c.NewHandler(s.setupRoutes(), &http2.Server{}),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 2)
	go func() {
		s.logger.Info("serving metrics",
			"path", cfg.MetricsPath,
			"interval", cfg.Interval,
		)
		if err := s.startServer(httpServer, cfg); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		if err := s.runLoop(ctx, cfg.Interval); err != nil {
			errc <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		s.logger.Info("shutting down")
	case runErr = <-errc:
		s.logger.Error("stopping", "error", runErr)
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("http shutdown: %w", err)
	}
	return runErr
}
