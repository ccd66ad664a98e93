package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/setup"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	logger := log.Logger

	// Load env
	_ = godotenv.Load()

	dataDir := flag.String("data", "", "corpus directory (overrides DATA_DIR)")
	flag.Parse()

	ctx := context.Background()

	cfg := setup.LoadConfig()
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	deps, err := setup.Wire(ctx, cfg, &logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to wire dependencies")
	}

	start := time.Now()
	chunks, err := deps.Loader.Load(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Str("data_dir", cfg.DataDir).Msg("Unable to load corpus")
	}
	log.Info().Int("chunks", len(chunks)).Str("data_dir", cfg.DataDir).Msg("Corpus loaded")

	if err := deps.Retriever.Rebuild(ctx, chunks); err != nil {
		log.Fatal().Err(err).Msg("Index build failed")
	}

	stats := deps.Retriever.Stats()
	log.Info().
		Int("chunks", stats.Chunks).
		Int("sparse_features", stats.SparseFeatures).
		Dur("elapsed", time.Since(start)).
		Msg("Index built")
}
