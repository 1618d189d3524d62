package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/claude/fitcoach/internal/api"
	"github.com/claude/fitcoach/internal/config"
	"github.com/claude/fitcoach/internal/dashboard"
	"github.com/claude/fitcoach/internal/logging"
	"github.com/claude/fitcoach/internal/mcp"
	"github.com/claude/fitcoach/internal/session"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	remote := flag.String("remote", "http://127.0.0.1:8390", "control API URL of a running fitcoach daemon")
	apiKey := flag.String("api-key", os.Getenv("FITCOACH_SERVER_API_KEY"), "control API key")
	local := flag.Bool("local", false, "run an embedded session instead of connecting to a daemon")
	configPath := flag.String("config", "config.yaml", "path to config file (with -local)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("fitcoach-mcp", Version)
		return
	}

	// stdout carries the MCP protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var ds mcp.Workout
	if *local {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		var closer io.Closer
		log, closer = logging.New(cfg.Log, os.Stderr)
		defer func() { _ = closer.Close() }()

		loc, err := cfg.Session.Location()
		if err != nil {
			log.Error("invalid timezone", "error", err)
			os.Exit(1)
		}
		client := api.NewClient(cfg.API.BaseURL, cfg.API.Token, cfg.API.Timeout(), http.DefaultTransport)
		ctrl := session.New(client, log, session.Options{
			Location:    loc,
			DefaultRest: cfg.Session.DefaultRestSeconds,
		})
		defer ctrl.Close()
		ds = mcp.NewLocal(ctrl, dashboard.New(client, log, loc))
		log.Info("mcp serving embedded session")
	} else {
		ds = mcp.NewHTTPClient(strings.TrimRight(*remote, "/"), *apiKey)
		log.Info("mcp serving remote session", "remote", *remote)
	}

	s := mcp.New(ds, Version, log)
	if err := server.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
