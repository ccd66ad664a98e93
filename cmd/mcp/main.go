package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/mcpadapter"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/setup"
)

func main() {
	// Setup logging; stdout belongs to the MCP transport
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	logger := log.Logger

	// Load env
	_ = godotenv.Load()

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load Config
	cfg := setup.LoadConfig()

	// Wire dependencies
	deps, err := setup.Wire(ctx, cfg, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Unable to wire dependencies")
		os.Exit(1)
	}

	// The MCP tools need a live index before the first query
	chunks, err := deps.Loader.Load(cfg.DataDir)
	if err != nil {
		logger.Error().Err(err).Str("data_dir", cfg.DataDir).Msg("Unable to load corpus")
		os.Exit(1)
	}
	if err := deps.Retriever.Rebuild(ctx, chunks); err != nil {
		logger.Error().Err(err).Msg("Unable to build index")
		os.Exit(1)
	}

	// Create MCP Server
	server := createMCPServer(deps)

	// Run over stdio
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		// EOF / "server is closing" is expected when stdin closes
		if errors.Is(err, io.EOF) || strings.Contains(err.Error(), "server is closing") {
			logger.Debug().Err(err).Msg("MCP server stopped")
			return
		}
		logger.Error().Err(err).Msg("Failed to run mcp server")
		os.Exit(1)
	}
}

func createMCPServer(deps *setup.Dependencies) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "avatar-rag",
			Version: "1.0.0",
		}, nil,
	)

	// Add Tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "query",
		Description: "Answer a question about the institute knowledge base, optionally restyled for the audience",
	}, mcpadapter.NewQueryHandler(deps.Orchestrator))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search",
		Description: "Run hybrid dense+sparse retrieval and return the ranked chunks without generating an answer",
	}, mcpadapter.NewSearchHandler(deps.Retriever))

	return server
}
