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

	"github.com/joho/godotenv"

	"github.com/hmcoe/skillprofile/api"
	"github.com/hmcoe/skillprofile/internal/config"
	"github.com/hmcoe/skillprofile/internal/state"
	"github.com/hmcoe/skillprofile/pkg/profiling"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	// .env is optional; real env vars win either way
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	log.Printf("Starting skill profiling server version %s (built at %s)", version, buildTime)

	ctx := context.Background()

	// Open local state store
	store, err := state.New(ctx, cfg.StatePath)
	if err != nil {
		log.Fatalf("Failed to open state store: %v", err)
	}

	// Purge abandoned drafts in the background
	janitor := state.NewJanitor(store, nil, time.Hour, 30*24*time.Hour)
	janitor.Start(ctx)

	// Profiling API client
	client, err := profiling.NewDefaultClient(cfg.Client)
	if err != nil {
		log.Fatalf("Failed to create profiling client: %v", err)
	}

	handler := api.SetupRoutes(cfg, version, buildTime, client, store)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	janitor.Stop()

	if err := client.Close(); err != nil {
		log.Printf("Error closing profiling client: %v", err)
	}
	if err := store.Close(); err != nil {
		log.Printf("Error closing state store: %v", err)
	}

	log.Println("Server exited")
}
