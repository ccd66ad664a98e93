package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog"

	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/api/middleware"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/embedding"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/ingestion"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/llm"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/models"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/orchestrator"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/retriever"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/session"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/tone"
)

type Handler struct {
	orchestrator *orchestrator.Orchestrator
	retrieval    *retriever.Service
	sessions     session.Store
	loader       *ingestion.Loader
	embedder     embedding.Embedder
	generator    llm.Client
	dataDir      string
	logger       *zerolog.Logger
}

func NewHandler(
	orch *orchestrator.Orchestrator,
	retrieval *retriever.Service,
	sessions session.Store,
	loader *ingestion.Loader,
	embedder embedding.Embedder,
	generator llm.Client,
	dataDir string,
	logger *zerolog.Logger,
) *Handler {
	return &Handler{
		orchestrator: orch,
		retrieval:    retrieval,
		sessions:     sessions,
		loader:       loader,
		embedder:     embedder,
		generator:    generator,
		dataDir:      dataDir,
		logger:       logger,
	}
}

// Health handles GET /health
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	resp.WriteHeaderAndEntity(http.StatusOK, HealthResponse{
		Status:         "ok",
		RAGInitialized: h.retrieval.Ready(),
		Timestamp:      time.Now().Format(time.RFC3339),
	})
}

// Query handles POST /api/rag-llm/query
func (h *Handler) Query(req *restful.Request, resp *restful.Response) {
	h.runQuery(req, resp, false)
}

// QueryWithTone handles POST /api/rag-llm/query-with-tone
func (h *Handler) QueryWithTone(req *restful.Request, resp *restful.Response) {
	h.runQuery(req, resp, true)
}

func (h *Handler) runQuery(req *restful.Request, resp *restful.Response, defaultConvert bool) {
	var queryRequest QueryRequest
	if err := req.ReadEntity(&queryRequest); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	queryRequest.SetDefaults(defaultConvert)
	if err := queryRequest.Validate(); err != nil {
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	h.logger.Info().
		Str("session_id", queryRequest.SessionID).
		Bool("include_history", *queryRequest.IncludeHistory).
		Bool("convert_tone", *queryRequest.ConvertTone).
		Msg("Process query")

	emit, err := streamWriter(resp)
	if err != nil {
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	ctx := req.Request.Context()
	queryErr := h.orchestrator.Query(ctx, models.QueryRequest{
		Text:                 queryRequest.TextUserMsg,
		SessionID:            queryRequest.SessionID,
		IncludeHistory:       *queryRequest.IncludeHistory,
		AuxiliaryContext:     queryRequest.UserDescription,
		ApplyStyleConversion: *queryRequest.ConvertTone,
	}, emit)
	if queryErr != nil {
		// The stream is already open; the orchestrator has surfaced the
		// failure as an ERROR chunk and the end sentinel.
		h.logger.Error().Err(queryErr).Str("session_id", queryRequest.SessionID).Msg("Query failed")
	}
}

// ConvertTone handles POST /api/rag-llm/convert-tone
func (h *Handler) ConvertTone(req *restful.Request, resp *restful.Response) {
	var convertRequest ConvertToneRequest
	if err := req.ReadEntity(&convertRequest); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	convertRequest.SetDefaults()
	if convertRequest.Text == "" {
		middleware.HandleError(resp, fmt.Errorf("%w: text is required", models.ErrInvalidRequest), http.StatusBadRequest)
		return
	}
	profile, err := tone.Parse(convertRequest.Tone)
	if err != nil {
		middleware.HandleError(resp, fmt.Errorf("%w: %v", models.ErrInvalidRequest, err), http.StatusBadRequest)
		return
	}

	h.logger.Info().
		Str("tone", string(profile)).
		Bool("stream", *convertRequest.Stream).
		Msg("Process tone conversion")

	ctx := req.Request.Context()
	conversion := orchestrator.ConversionRequest{
		Text:            convertRequest.Text,
		Profile:         profile,
		UserDescription: convertRequest.UserDescription,
		UserMessage:     convertRequest.UserMsg,
	}

	if !*convertRequest.Stream {
		converted, err := h.orchestrator.ConvertTone(ctx, conversion, nil)
		if err != nil {
			h.logger.Error().Err(err).Msg("Tone conversion failed")
			middleware.HandleError(resp, err, http.StatusInternalServerError)
			return
		}
		resp.WriteHeaderAndEntity(http.StatusOK, ConvertToneResponse{
			Success:         true,
			OriginalText:    convertRequest.Text,
			ConvertedText:   converted,
			Tone:            string(profile),
			UserDescription: convertRequest.UserDescription,
		})
		return
	}

	emit, err := streamWriter(resp)
	if err != nil {
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}
	if _, err := h.orchestrator.ConvertTone(ctx, conversion, emit); err != nil {
		h.logger.Error().Err(err).Msg("Tone conversion failed")
	}
}

// SessionHistory handles GET /api/rag-llm/sessions/{session_id}/history
func (h *Handler) SessionHistory(req *restful.Request, resp *restful.Response) {
	sessionID := req.PathParameter("session_id")
	history, err := h.sessions.GetHistory(req.Request.Context(), sessionID)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to load history")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []models.Message{}
	}
	resp.WriteHeaderAndEntity(http.StatusOK, HistoryResponse{
		SessionID:    sessionID,
		History:      history,
		MessageCount: len(history),
	})
}

// ClearSessionHistory handles DELETE /api/rag-llm/sessions/{session_id}/history
func (h *Handler) ClearSessionHistory(req *restful.Request, resp *restful.Response) {
	sessionID := req.PathParameter("session_id")
	cleared, err := h.sessions.Clear(req.Request.Context(), sessionID)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to clear history")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}
	resp.WriteHeaderAndEntity(http.StatusOK, ClearHistoryResponse{
		SessionID:       sessionID,
		Message:         fmt.Sprintf("cleared %d messages", cleared),
		MessagesCleared: cleared,
	})
}

// CloseSession handles POST /api/rag-llm/close
func (h *Handler) CloseSession(req *restful.Request, resp *restful.Response) {
	var closeRequest CloseSessionRequest
	if err := req.ReadEntity(&closeRequest); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}
	if closeRequest.SessionID == "" {
		closeRequest.SessionID = "default"
	}

	cleared, err := h.sessions.Clear(req.Request.Context(), closeRequest.SessionID)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", closeRequest.SessionID).Msg("Failed to close session")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	h.logger.Info().Str("session_id", closeRequest.SessionID).Int("messages_cleared", cleared).Msg("Session closed")
	resp.WriteHeaderAndEntity(http.StatusOK, CloseSessionResponse{
		Success:         true,
		SessionID:       closeRequest.SessionID,
		Message:         "session closed",
		SessionExisted:  cleared > 0,
		MessagesCleared: cleared,
		Timestamp:       time.Now().Format(time.RFC3339),
	})
}

// InitIndex handles POST /api/rag-llm/init
func (h *Handler) InitIndex(req *restful.Request, resp *restful.Response) {
	ctx := req.Request.Context()

	chunks, err := h.loader.Load(h.dataDir)
	if err != nil {
		h.logger.Error().Err(err).Str("data_dir", h.dataDir).Msg("Failed to load corpus")
		resp.WriteHeaderAndEntity(http.StatusInternalServerError, InitResponse{
			Success:        false,
			RAGInitialized: h.retrieval.Ready(),
			Message:        err.Error(),
		})
		return
	}

	if err := h.retrieval.Rebuild(ctx, chunks); err != nil {
		h.logger.Error().Err(err).Msg("Index rebuild failed")
		resp.WriteHeaderAndEntity(http.StatusInternalServerError, InitResponse{
			Success:        false,
			RAGInitialized: h.retrieval.Ready(),
			Message:        err.Error(),
		})
		return
	}

	stats := h.retrieval.Stats()
	resp.WriteHeaderAndEntity(http.StatusOK, InitResponse{
		Success:        true,
		RAGInitialized: true,
		Message:        fmt.Sprintf("indexed %d chunks (%d sparse features)", stats.Chunks, stats.SparseFeatures),
	})
}

// Warmup handles POST /api/rag-llm/warmup
func (h *Handler) Warmup(req *restful.Request, resp *restful.Response) {
	ctx := req.Request.Context()

	embeddingTarget := h.warmEmbedding(ctx)
	llmTarget := h.warmLLM(ctx)

	resp.WriteHeaderAndEntity(http.StatusOK, WarmupResponse{
		EmbeddingModel: embeddingTarget,
		LLMModel:       llmTarget,
		OverallSuccess: embeddingTarget.Status == "ok" && llmTarget.Status == "ok",
		Timestamp:      time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) warmEmbedding(ctx context.Context) WarmupTarget {
	start := time.Now()
	if _, err := h.embedder.EmbedQuery(ctx, "warmup"); err != nil {
		return WarmupTarget{Status: "error", Message: err.Error(), TimeMS: time.Since(start).Milliseconds()}
	}
	message := "embedding model ready"
	if h.retrieval.Ready() {
		if _, err := h.retrieval.Search(ctx, "warmup", 1); err != nil && !errors.Is(err, models.ErrRetrievalUnavailable) {
			return WarmupTarget{Status: "error", Message: err.Error(), TimeMS: time.Since(start).Milliseconds()}
		}
		message = "embedding model and index ready"
	}
	return WarmupTarget{Status: "ok", Message: message, TimeMS: time.Since(start).Milliseconds()}
}

func (h *Handler) warmLLM(ctx context.Context) WarmupTarget {
	start := time.Now()
	_, err := h.generator.Generate(ctx, llm.Request{
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: "Hi"}},
		MaxTokens: 5,
	})
	if err != nil {
		return WarmupTarget{Status: "error", Message: err.Error(), TimeMS: time.Since(start).Milliseconds()}
	}
	return WarmupTarget{Status: "ok", Message: "llm model ready", TimeMS: time.Since(start).Milliseconds()}
}

// streamWriter prepares resp for chunked text streaming and returns an
// emit function that writes one chunk and flushes it to the client.
func streamWriter(resp *restful.Response) (orchestrator.EmitFunc, error) {
	resp.AddHeader("Content-Type", "text/plain; charset=utf-8")
	resp.AddHeader("Cache-Control", "no-cache")
	resp.AddHeader("Connection", "keep-alive")
	resp.AddHeader("X-Accel-Buffering", "no")

	writer := resp.ResponseWriter
	flusher, ok := writer.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	return func(chunk string) error {
		if _, err := writer.Write([]byte(chunk)); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}, nil
}
