/*
main.go - Application entry point

STARTUP SEQUENCE:
  1. Load .env (optional) and logging configuration
  2. Open the SQLite store
  3. Wire the API handler and router
  4. Serve with graceful shutdown on SIGINT/SIGTERM

FLAGS:
  --port   HTTP server port (default 8080)
  --db     SQLite database path (default supplies.db, ":memory:" works)

ENVIRONMENT:
  LOG_LEVEL, LOG_FORMAT, LOG_OUTPUT (see the logging package)
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/construtrack/supply-engine/api"
	"github.com/construtrack/supply-engine/logging"
	"github.com/construtrack/supply-engine/store/sqlite"
)

var (
	port   int
	dbPath string
)

var rootCmd = &cobra.Command{
	Use:   "supply-engine",
	Short: "Supply, payroll and reporting backend for construction projects",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func init() {
	serveCmd.Flags().IntVar(&port, "port", 8080, "HTTP server port")
	serveCmd.Flags().StringVar(&dbPath, "db", "supplies.db", "SQLite database path")
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	// .env is optional; environment wins when both are present.
	_ = godotenv.Load()

	cfg := logging.DefaultConfig()
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("LOG_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if err := logging.Setup(cfg); err != nil {
		return fmt.Errorf("logging setup: %w", err)
	}
	log := logging.WithComponent("server")

	store, err := sqlite.New(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	handler := api.NewHandler(store)

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	handler.Supplies.StartJanitor(janitorCtx, time.Minute)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", port).Str("db", dbPath).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
