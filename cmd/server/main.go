/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the loan engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Configure structured logging
  3. Initialize SQLite store
  4. Wire the benchmark rate updater (optional)
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port          HTTP server port (default: 8080)
  -db            SQLite database path (default: loans.db)
                 Use ":memory:" for an in-memory database
  -log-level     logrus level: debug, info, warn, error (default: info)
  -prime-url     Benchmark observations URL (default: Bank of Canada Valet)
  -prime-cron    Cron spec for the recurring prime update ("" disables)
  -update-prime  Run one prime update at startup and continue

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the updater, close the database
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/loans.db"

  # Run without the scheduled benchmark update
  ./server -prime-cron=""

SEE ALSO:
  - api/server.go: Router configuration
  - api/updater.go: Benchmark rate update job
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/loan-engine/api"
	"github.com/warp/loan-engine/benchmark"
	"github.com/warp/loan-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "loans.db", "SQLite database path")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	primeURL := flag.String("prime-url", benchmark.DefaultPrimeURL, "benchmark observations URL")
	primeCron := flag.String("prime-cron", api.DefaultPrimeCron, "cron spec for the prime update (empty disables)")
	updateNow := flag.Bool("update-prime", false, "run one prime update at startup")
	flag.Parse()

	// Logging
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Invalid log level %q: %v", *logLevel, err)
	}
	log.SetLevel(level)

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store, log)

	// Benchmark updater
	var updater *api.PrimeUpdater
	if *primeCron != "" || *updateNow {
		client := benchmark.NewClient(*primeURL, log)
		updater = api.NewPrimeUpdater(store, client, log, *primeCron)
		handler.Updater = updater

		if *updateNow {
			if _, err := updater.RunOnce(context.Background()); err != nil {
				log.WithError(err).Warn("startup prime update failed")
			}
		}
		if *primeCron != "" {
			if err := updater.Start(); err != nil {
				log.Fatalf("Failed to start prime updater: %v", err)
			}
			defer updater.Stop()
		}
	}

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Server starting on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped")
}
