/*
main.go - Inventory engine server entry point

PURPOSE:
  Starts the HTTP API over a SQLite-backed store. Configuration comes
  from STOCKBOOK_* environment variables with command-line flags taking
  precedence, and the process drains in-flight requests on SIGINT or
  SIGTERM before exiting.

USAGE:
  server [-port 8080] [-db stockbook.db] [-uploads uploads] [-pretty]

ENVIRONMENT:
  STOCKBOOK_PORT        Listen port (default 8080)
  STOCKBOOK_DB_PATH     SQLite database file (default stockbook.db)
  STOCKBOOK_UPLOAD_DIR  Photo attachment directory (default uploads)
  STOCKBOOK_PRETTY_LOG  Human-readable console logs (default false)
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

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/stockbook/inventory-engine/api"
	"github.com/stockbook/inventory-engine/store/sqlite"
)

// Config is populated from the environment, then overridden by flags.
type Config struct {
	Port      int    `envconfig:"PORT" default:"8080"`
	DBPath    string `envconfig:"DB_PATH" default:"stockbook.db"`
	UploadDir string `envconfig:"UPLOAD_DIR" default:"uploads"`
	PrettyLog bool   `envconfig:"PRETTY_LOG" default:"false"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("STOCKBOOK", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to SQLite database file")
	flag.StringVar(&cfg.UploadDir, "uploads", cfg.UploadDir, "Photo attachment directory")
	flag.BoolVar(&cfg.PrettyLog, "pretty", cfg.PrettyLog, "Human-readable console logs")
	flag.Parse()

	log := newLogger(cfg.PrettyLog)

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
	}
	defer store.Close()

	photos, err := api.NewPhotoStore(cfg.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("failed to prepare upload directory")
	}

	handler := api.NewHandler(store, photos, log)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Serve in the background so we can block on signals.
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Str("db", cfg.DBPath).Msg("server listening")
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("server failed")
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown did not complete cleanly")
	}
	log.Info().Msg("server stopped")
}

func newLogger(pretty bool) zerolog.Logger {
	if pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
