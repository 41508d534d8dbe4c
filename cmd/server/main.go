// Package main is the entry point for the wiki server.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jordan-Tam/mini-wiki-sub000/internal/api"
	"github.com/Jordan-Tam/mini-wiki-sub000/internal/cache"
	"github.com/Jordan-Tam/mini-wiki-sub000/internal/config"
	"github.com/Jordan-Tam/mini-wiki-sub000/internal/realtime"
	"github.com/Jordan-Tam/mini-wiki-sub000/internal/stats"
	"github.com/Jordan-Tam/mini-wiki-sub000/internal/storage"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// Defaults to "dev" when not provided.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "HTTP server address (overrides config)")
	dataDir := flag.String("data", "", "Data directory for SQLite database (overrides config)")
	redisAddr := flag.String("redis", "", "Redis address for cache and leaderboard (overrides config)")
	healthCheck := flag.Bool("health-check", false, "Run health check and exit")
	flag.Parse()

	// Health check mode for Docker HEALTHCHECK
	if *healthCheck {
		checkAddr := *addr
		if checkAddr == "" {
			checkAddr = config.Default().Addr
		}
		if err := runHealthCheck(checkAddr); err != nil {
			log.Fatalf("Health check failed: %v", err)
		}
		os.Exit(0)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *redisAddr != "" {
		cfg.RedisAddr = *redisAddr
	}

	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}

	log.Printf("Starting wiki server (version: %s)...", version)

	// Initialize database
	dbPath := cfg.DataDir + "/wiki.db"
	db, err := storage.NewDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations complete")

	// Initialize the cache and leaderboard when redis is configured
	var c *cache.Cache
	if cfg.RedisAddr != "" {
		c = cache.New(cfg.RedisAddr, cfg.CacheTTL())
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := c.Ping(pingCtx); err != nil {
			log.Fatalf("Failed to connect to redis at %s: %v", cfg.RedisAddr, err)
		}
		cancel()
		defer c.Close()
		log.Printf("Connected to redis at %s", cfg.RedisAddr)
	}

	// Initialize the realtime gateway
	registry := realtime.NewRegistry()

	var activity realtime.ActivityRecorder
	if c != nil {
		activity = c
	}

	table := realtime.NewTable()
	table.Handle("/wiki/:id/chat/:usr", realtime.ChatHandler(registry, activity, nil))
	gateway := realtime.NewGateway(table)

	// Initialize the stats reporter
	reporter := stats.NewReporter(registry, c)
	reporter.Start()

	// Initialize HTTP router
	router := api.NewRouter(db, registry, gateway, c)

	// Create HTTP server. Read/write timeouts are left unset because the
	// gateway holds hijacked connections open indefinitely; the realtime
	// pumps enforce their own deadlines.
	server := &http.Server{
		Addr:        cfg.Addr,
		Handler:     router,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("Server listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	reporter.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	url := "http://localhost" + addr + "/api/health"
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return http.ErrAbortHandler
	}
	return nil
}
