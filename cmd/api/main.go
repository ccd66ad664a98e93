package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/api"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/api/middleware"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/setup"
)

func enrichSwaggerObject(swo *spec.Swagger) {
	swo.Info = &spec.Info{
		InfoProps: spec.InfoProps{
			Title:       "Digital Avatar RAG API",
			Description: "Hybrid retrieval and tone-adapted answer generation for the avatar",
			Version:     "1.0.0",
		},
	}
	swo.Tags = []spec.Tag{
		{TagProps: spec.TagProps{Name: "health", Description: "Health checks"}},
		{TagProps: spec.TagProps{Name: "query", Description: "Streaming query operations"}},
		{TagProps: spec.TagProps{Name: "tone", Description: "Tone conversion"}},
		{TagProps: spec.TagProps{Name: "sessions", Description: "Session history"}},
		{TagProps: spec.TagProps{Name: "index", Description: "Index lifecycle"}},
	}
}

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	logger := log.Logger

	log.Info().Msg("Starting Digital Avatar RAG API")

	// Load env
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found")
	}

	ctx := context.Background()

	// Load Config
	cfg := setup.LoadConfig()

	// Wire dependencies
	deps, err := setup.Wire(ctx, cfg, &logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to wire dependencies")
	}

	// Build the index up front so the service starts ready; a failure
	// here is not fatal, /init can retry later.
	if chunks, err := deps.Loader.Load(cfg.DataDir); err != nil {
		log.Warn().Err(err).Str("data_dir", cfg.DataDir).Msg("Corpus load failed, starting without index")
	} else if err := deps.Retriever.Rebuild(ctx, chunks); err != nil {
		log.Warn().Err(err).Msg("Index build failed, starting without index")
	}

	// API
	handler := api.NewHandler(
		deps.Orchestrator,
		deps.Retriever,
		deps.Sessions,
		deps.Loader,
		deps.Embedder,
		deps.Generator,
		cfg.DataDir,
		&logger,
	)
	container := restful.NewContainer()
	container.Filter(middleware.Logger)
	container.Filter(middleware.RecoverPanic)
	api.RegisterRoutes(container, handler)

	config := restfulspec.Config{
		WebServices:                   container.RegisteredWebServices(),
		APIPath:                       "/api/v1/openapi.json",
		PostBuildSwaggerObjectHandler: enrichSwaggerObject,
	}
	container.Add(restfulspec.NewOpenAPIService(config))

	// CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Info().Str("address", addr).Msg("Listening")

	server := http.Server{
		Addr:        addr,
		Handler:     corsHandler.Handler(container),
		ReadTimeout: 15 * time.Second,
		// Streaming responses outlive ordinary requests; no write
		// timeout, the client disconnect cancels the stream instead.
		IdleTimeout: 60 * time.Second,
	}

	if err := server.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
