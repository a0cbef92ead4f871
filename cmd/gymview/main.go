package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"

	"github.com/meltforce/gymview/internal/config"
	"github.com/meltforce/gymview/internal/eventlog"
	"github.com/meltforce/gymview/internal/hosting"
	"github.com/meltforce/gymview/internal/mcp"
	"github.com/meltforce/gymview/internal/server"
	"github.com/meltforce/gymview/internal/shard"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit (postgres backend)")
	mcpMode := flag.Bool("mcp", false, "serve MCP over stdio instead of HTTP")
	flag.Parse()

	// MCP mode owns stdout for the protocol stream; keep logs off it.
	logOut := os.Stdout
	if *mcpMode {
		logOut = os.Stderr
	}
	log := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("gymview starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Open the event log backend
	ctx := context.Background()
	var store eventlog.Store

	switch cfg.EventLog.Backend {
	case "postgres":
		dsn := cfg.Database.DSN()
		if err := eventlog.RunMigrations(dsn, "migrations"); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")
		if *migrateOnly {
			log.Info("migrate-only: exiting")
			return
		}
		store, err = eventlog.NewPostgres(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
	case "sqlite":
		store, err = eventlog.OpenSQLite(cfg.EventLog.SQLitePath)
		if err != nil {
			log.Error("failed to open sqlite event log", "path", cfg.EventLog.SQLitePath, "error", err)
			os.Exit(1)
		}
	default:
		store = eventlog.NewMemory()
	}
	defer store.Close()
	log.Info("event log ready", "backend", cfg.EventLog.Backend)

	// Per-user view instances
	views := hosting.NewRegistry(store, log, hosting.Options{
		PollInterval: cfg.EventLog.PollInterval(),
		IdleTimeout:  cfg.View.IdleTimeout(),
	})
	defer views.Close()

	if *mcpMode {
		m := mcp.New(views, Version, log)
		if err := mcpserver.ServeStdio(m); err != nil {
			log.Error("mcp server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shardCount := cfg.View.ShardCount
	if shardCount == 0 {
		shardCount = shard.DefaultShardCount
	}
	router := shard.NewRouter(shardCount)

	srv := server.New(views, store, router, cfg.Auth.APIKey, log)

	// Start server — tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
