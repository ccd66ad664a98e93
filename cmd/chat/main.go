package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/models"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/orchestrator"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/setup"
)

func main() {
	// Setup logging; keep stdout clean for the conversation
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(zerolog.WarnLevel)
	logger := log.Logger

	// Load env
	_ = godotenv.Load()

	dataDir := flag.String("data", "", "corpus directory (overrides DATA_DIR)")
	convertTone := flag.Bool("tone", false, "restyle answers for the detected audience")
	description := flag.String("description", "", "visual description of the user, used for tone selection")
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

	fmt.Println("Building index...")
	chunks, err := deps.Loader.Load(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Str("data_dir", cfg.DataDir).Msg("Unable to load corpus")
	}
	if err := deps.Retriever.Rebuild(ctx, chunks); err != nil {
		log.Fatal().Err(err).Msg("Index build failed")
	}
	stats := deps.Retriever.Stats()
	fmt.Printf("Ready: %d chunks indexed. Type a question, or /quit to exit.\n\n", stats.Chunks)

	sessionID := uuid.NewString()
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			break
		}

		err := deps.Orchestrator.Query(ctx, models.QueryRequest{
			Text:                 line,
			SessionID:            sessionID,
			IncludeHistory:       true,
			AuxiliaryContext:     *description,
			ApplyStyleConversion: *convertTone,
		}, func(chunk string) error {
			if chunk == orchestrator.EndFlag {
				fmt.Println()
				return nil
			}
			fmt.Print(chunk)
			return nil
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		fmt.Println()
	}
}
