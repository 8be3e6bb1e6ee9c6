// Package main provides the dedup worker entry point for transcript-dedup.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"

	"github.com/lukaszraczylo/transcript-dedup/internal/config"
	db "github.com/lukaszraczylo/transcript-dedup/internal/db/gorm"
	"github.com/lukaszraczylo/transcript-dedup/internal/embedding"
	"github.com/lukaszraczylo/transcript-dedup/internal/watcher"
	"github.com/lukaszraczylo/transcript-dedup/internal/worker"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	port := flag.Int("port", 0, "HTTP port (default: from settings)")
	dataDir := flag.String("data-dir", "", "Data directory (default: ~/.transcript-dedup)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	if err := config.EnsureAll(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure data directory")
	}

	cfg := config.Get()
	if *port > 0 {
		cfg.WorkerPort = *port
	}

	dbPath := cfg.DBPath
	if *dataDir != "" {
		dbPath = filepath.Join(*dataDir, "transcript-dedup.db")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("Shutting down dedup worker")
		cancel()
	}()

	store, err := db.NewStore(db.Config{
		Path:     dbPath,
		MaxConns: cfg.MaxConns,
		LogLevel: logger.Silent,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer store.Close()

	provider := embedding.NewOllamaClient(embedding.OllamaConfig{
		BaseURL:   cfg.OllamaURL,
		Model:     cfg.EmbeddingModel,
		Dim:       cfg.EmbeddingDim,
		BatchSize: cfg.BatchSize,
	})

	svc := worker.NewService(Version, cfg, store, provider, nil)

	startSettingsWatcher()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WorkerPort),
		Handler: svc.Router(),
	}

	go func() {
		log.Info().Int("port", cfg.WorkerPort).Str("version", Version).Str("model", cfg.EmbeddingModel).Msg("Starting dedup worker")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

// startSettingsWatcher watches the settings file and exits the process on
// change so a supervisor restarts it with the new configuration.
func startSettingsWatcher() {
	settingsPath := config.SettingsPath()
	w, err := watcher.New(settingsPath, func() {
		log.Warn().Str("path", settingsPath).Msg("Settings changed, exiting for restart...")
		time.Sleep(100 * time.Millisecond) // Give logs time to flush
		os.Exit(0)
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create settings watcher")
		return
	}
	if err := w.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start settings watcher")
		return
	}
	log.Info().Str("path", settingsPath).Msg("Settings file watcher started")
}
