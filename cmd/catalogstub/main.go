// Command catalogstub serves a development catalog backend compatible with
// the REST surface the frontend expects, backed by SQLite and seeded from
// a YAML or JSON file.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/movieontip/movieontip/internal/config"
	"github.com/movieontip/movieontip/internal/database"
	"github.com/movieontip/movieontip/internal/logger"
	"github.com/movieontip/movieontip/internal/stub"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	reset := flag.Bool("reset", false, "Drop the catalog database and reseed it")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		Path:     cfg.Logging.Path,
		FileName: "catalogstub.log",
	})
	defer log.Close()

	if dir := filepath.Dir(cfg.Stub.Database); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("failed to create data directory")
		}
	}

	open := database.New
	if *reset {
		log.Warn().Str("path", cfg.Stub.Database).Msg("resetting catalog database")
		open = database.Recreate
	}
	db, err := open(cfg.Stub.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	store := stub.NewStore(db.Conn(), log.Logger)

	if cfg.Stub.SeedFile != "" {
		seed, err := stub.LoadSeed(cfg.Stub.SeedFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.Stub.SeedFile).Msg("failed to load seed")
		}
		if _, err := store.SeedIfEmpty(context.Background(), seed); err != nil {
			log.Fatal().Err(err).Msg("failed to seed catalog")
		}
	}

	e := stub.NewServer(store, log.Logger)
	if cfg.Stub.ImagesDir != "" {
		e.Static("/images", cfg.Stub.ImagesDir)
	}

	go func() {
		addr := cfg.Stub.Address()
		log.Info().Str("address", addr).Msg("catalog stub listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("catalog stub failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("catalog stub shutdown error")
	}
	log.Info().Msg("catalog stub stopped")
}
