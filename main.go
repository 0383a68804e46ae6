// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/rate-my-teacher/cliparse"
	"github.com/danielhkuo/rate-my-teacher/csrf"
	"github.com/danielhkuo/rate-my-teacher/db"
	"github.com/danielhkuo/rate-my-teacher/handlers"
	"github.com/danielhkuo/rate-my-teacher/middleware"
	"github.com/danielhkuo/rate-my-teacher/points"
	"github.com/danielhkuo/rate-my-teacher/router"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Connect to the database
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn, cfg.DatabaseType); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	csrfStore, closeStore, err := openCsrfStore(cfg)
	if err != nil {
		slog.Error("csrf store unavailable", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	var tiers points.Tiers
	if cfg.BadgeConfigPath != "" {
		if tiers, err = points.LoadTiers(cfg.BadgeConfigPath); err != nil {
			slog.Error("badge config invalid", "path", cfg.BadgeConfigPath, "error", err)
			os.Exit(1)
		}
		slog.Info("Badge tiers loaded", "path", cfg.BadgeConfigPath)
	}

	// Create router
	svc := handlers.NewServices(dbConn, cfg, csrfStore, tiers)
	mux := router.NewRouter(svc, cfg)

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal, then let in-flight requests finish
		<-ctrlc
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

// openCsrfStore uses Redis when an address is configured.
func openCsrfStore(cfg cliparse.Config) (csrf.Store, func(), error) {
	if cfg.RedisAddr == "" {
		slog.Info("CSRF tokens kept in memory")
		return csrf.NewMemoryStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, err
	}

	slog.Info("CSRF tokens kept in Redis", "addr", cfg.RedisAddr)
	return csrf.NewRedisStore(client), func() { client.Close() }, nil
}
