package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/trackhub/trackhub/internal/config"
	"github.com/trackhub/trackhub/internal/core"
	mcpsvr "github.com/trackhub/trackhub/internal/mcp"
	"github.com/trackhub/trackhub/internal/notify"
	"github.com/trackhub/trackhub/internal/ops"
	"github.com/trackhub/trackhub/internal/youtrack"
)

var (
	version   = "dev"
	gitCommit = ""
	buildTime = ""
)

func main() {
	configFile := pflag.StringP("config", "c", "", "path to a YAML config file")
	showVersion := pflag.BoolP("version", "v", false, "print version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Printf("trackhub %s (commit %s, built %s)\n", version, gitCommit, buildTime)
		return
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("configuration invalid", "err", err)
		os.Exit(1)
	}

	// stdout carries the MCP transport; all logging goes to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	logger.Info("effective config",
		"profile", cfg.Profile,
		"youtrack_url", cfg.BaseURL,
		"enforced_project", cfg.EnforcedProject,
		"scope_strict", cfg.ScopeStrict,
		"ops_listen", cfg.OpsListen,
		"poll_enabled", cfg.PollEnabled,
	)

	var tokens youtrack.TokenSource
	if cfg.Token != "" {
		tokens = youtrack.NewStaticTokenSource(cfg.Token)
	} else {
		tokens = youtrack.NewHubTokenSource(cfg.HubURL, cfg.HubClientID, cfg.HubClientSecret)
	}
	client := youtrack.NewClient(cfg.BaseURL, tokens)

	resolver := core.NewResolver(core.ScopeConfig{
		EnforcedProject: cfg.EnforcedProject,
		Strict:          cfg.ScopeStrict,
	}, logger)
	svc := core.NewService(client, resolver, logger)

	mcpServer := mcpsvr.NewServer(svc, logger, version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 2)
	go func() { errCh <- mcpsvr.Serve(mcpServer) }()

	var opsServer *ops.Server
	if cfg.OpsListen != "" {
		opsServer = ops.NewServer(cfg.OpsListen, svc, logger, ops.BuildInfo{
			Version:   version,
			GitCommit: gitCommit,
			BuildTime: buildTime,
		})
		go func() { errCh <- opsServer.ListenAndServe() }()
	}

	if cfg.PollEnabled {
		poller := notify.New(svc, cfg.PollInterval, logger)
		go poller.Run(ctx)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "err", err)
		}
	}
	cancel()

	if opsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		opsServer.Shutdown(shutdownCtx)
	}
	logger.Info("shutdown complete")
}

func logLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
