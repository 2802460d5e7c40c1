// cmd/healthai/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"healthai/internal/gemini"
	"healthai/internal/server"
)

var (
	transport = flag.String("transport", "http", "Transport mode: http")
	port      = flag.Int("port", 8011, "Port for HTTP transport")
	host      = flag.String("host", "0.0.0.0", "Host address")
	address   = flag.String("address", "", "Address (alias for host)")
	dbPath    = flag.String("db-path", "/data/healthai.db", "Database path")
	envFile   = flag.String("env-file", ".env", "Optional dotenv file with GEMINI_* settings")
	version   = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("healthai version 1.0.0")
		os.Exit(0)
	}

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("Warning: failed to load %s: %v (using process environment)", *envFile, err)
	}

	geminiCfg, err := geminiConfigFromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Use address if provided, otherwise use host
	hostAddr := *host
	if *address != "" {
		hostAddr = *address
	}

	config := &server.Config{
		Transport: *transport,
		Host:      hostAddr,
		Port:      *port,
		DBPath:    *dbPath,
		Gemini:    geminiCfg,
	}

	// Create server
	srv, err := server.NewFoodServer(config)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-sigCh:
		log.Println("Received shutdown signal")
	case err := <-errCh:
		log.Printf("Server error: %v", err)
	}

	// Graceful shutdown
	log.Println("Shutting down...")
	cancel()
	if err := srv.Stop(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}

func geminiConfigFromEnv() (gemini.Config, error) {
	cfg := gemini.Config{
		APIKey:  os.Getenv("GEMINI_API_KEY"),
		Model:   os.Getenv("GEMINI_MODEL"),
		BaseURL: os.Getenv("GEMINI_BASE_URL"),
	}
	if cfg.APIKey == "" {
		return cfg, fmt.Errorf("GEMINI_API_KEY is required")
	}

	if raw := os.Getenv("GEMINI_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return cfg, fmt.Errorf("invalid GEMINI_TIMEOUT %q: %w", raw, err)
		}
		cfg.Timeout = timeout
	}
	return cfg, nil
}
