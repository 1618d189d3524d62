package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/fitcoach/internal/api"
	"github.com/claude/fitcoach/internal/config"
	"github.com/claude/fitcoach/internal/dashboard"
	"github.com/claude/fitcoach/internal/logging"
	"github.com/claude/fitcoach/internal/metrics"
	"github.com/claude/fitcoach/internal/server"
	"github.com/claude/fitcoach/internal/session"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log, logCloser := logging.New(cfg.Log, os.Stdout)
	defer func() { _ = logCloser.Close() }()
	log.Info("FitCoach starting", "version", Version)

	loc, err := cfg.Session.Location()
	if err != nil {
		log.Error("invalid timezone", "error", err)
		os.Exit(1)
	}

	reg := metrics.NewRegistry()
	mm := metrics.NewManager("fitcoach", "daemon", reg)

	client := api.NewClient(cfg.API.BaseURL, cfg.API.Token, cfg.API.Timeout(),
		mm.InstrumentRoundTripper(http.DefaultTransport))

	ctrl := session.New(client, log, session.Options{
		Location:    loc,
		DefaultRest: cfg.Session.DefaultRestSeconds,
		Observer:    mm,
		OnEvent: func(e session.Event) {
			log.Info("session event", "type", e.Type, "index", e.Index, "exercise", e.Name)
		},
	})
	defer ctrl.Close()

	dash := dashboard.New(client, log, loc)

	srv := server.New(ctrl, client, dash, log, server.Options{
		APIKey:      cfg.Server.APIKey,
		CORSOrigins: cfg.Server.CORSOrigins,
		Metrics:     mm,
		Registry:    reg,
	})

	// Listen on the tailnet when enabled, plain TCP otherwise.
	var listener net.Listener

	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer func() { _ = tsServer.Close() }()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := cfg.Server.Addr()
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	// Load today's workout up front so the first UI request has data.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.API.Timeout())
		defer cancel()
		if err := ctrl.Load(ctx, false); err != nil {
			log.Warn("initial workout load failed", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down", "signal", sig)
	case err := <-errc:
		log.Error("server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
