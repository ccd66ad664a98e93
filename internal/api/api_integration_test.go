package api_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/api"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/api/middleware"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/config"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/index"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/ingestion"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/llm"
	llmmocks "github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/llm/mocks"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/models"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/orchestrator"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/retriever"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/session"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/tone"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/vectorstore"
	visionmocks "github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/vision/mocks"
)

// hashEmbedder derives a deterministic vector from the text itself, so
// the whole pipeline runs without a model server.
type hashEmbedder struct{}

func (hashEmbedder) embed(text string) []float32 {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, 8)
	for i := range vec {
		vec[i] = float32(sum[i]) / 255
	}
	return vec
}

func (h hashEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = h.embed(text)
	}
	return out, nil
}

func (h hashEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return h.embed(text), nil
}

type testAPI struct {
	container *restful.Container
	generator *llmmocks.MockClient
	sessions  *session.MemoryStore
}

// setupTestAPI builds the real container with real engine components;
// only the model clients are mocked.
func setupTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := zerolog.Nop()

	dataDir := t.TempDir()
	corpus := "ITRI was founded in 1973. The institute is headquartered in Hsinchu."
	if err := os.WriteFile(filepath.Join(dataDir, "facts.txt"), []byte(corpus), 0o644); err != nil {
		t.Fatalf("writing corpus: %v", err)
	}

	tokenizer, err := index.NewTokenizer()
	if err != nil {
		t.Fatalf("NewTokenizer() error = %v", err)
	}
	retrieval := retriever.NewService(hashEmbedder{}, tokenizer, func() vectorstore.Store {
		return vectorstore.NewMemoryStore()
	}, retriever.Config{}, &logger)

	chunker := ingestion.NewChunker(300, 50)
	loader := ingestion.NewLoader(chunker, &logger)
	sessions := session.NewMemoryStore(session.DefaultMaxMessages)
	generator := llmmocks.NewMockClient(ctrl)
	visionClient := visionmocks.NewMockClient(ctrl)

	selector := tone.NewSelector(config.TonesConfig{
		Selector: config.SelectorConfig{AgeWeight: 3, KeywordWeight: 1},
		Profiles: map[string]config.ProfileConfig{
			"child_friendly":        {Keywords: []string{"school uniform"}},
			"elder_friendly":        {Keywords: []string{"gray hair"}},
			"professional_friendly": {Keywords: []string{"business suit"}},
			"casual_friendly":       {},
		},
	})

	orch := orchestrator.New(retrieval, generator, visionClient, sessions, selector, orchestrator.Config{}, &logger)
	handler := api.NewHandler(orch, retrieval, sessions, loader, hashEmbedder{}, generator, dataDir, &logger)

	container := restful.NewContainer()
	container.Filter(middleware.RecoverPanic)
	api.RegisterRoutes(container, handler)

	return &testAPI{container: container, generator: generator, sessions: sessions}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/plain")
	recorder := httptest.NewRecorder()
	a.container.ServeHTTP(recorder, req)
	return recorder
}

/*
TEST 1: Health before and after index build
Purpose: the readiness probe reflects whether an index generation is live
*/
func TestAPI_HealthReportsIndexState(t *testing.T) {
	app := setupTestAPI(t)

	recorder := app.do(t, http.MethodGet, "/health", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", recorder.Code)
	}
	var health api.HealthResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &health); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("Expected status 'ok', got '%s'", health.Status)
	}
	if health.RAGInitialized {
		t.Error("Expected rag_initialized=false before init")
	}

	initRecorder := app.do(t, http.MethodPost, "/api/rag-llm/init", nil)
	if initRecorder.Code != http.StatusOK {
		t.Fatalf("init: expected status 200, got %d: %s", initRecorder.Code, initRecorder.Body.String())
	}

	recorder = app.do(t, http.MethodGet, "/health", nil)
	if err := json.Unmarshal(recorder.Body.Bytes(), &health); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !health.RAGInitialized {
		t.Error("Expected rag_initialized=true after init")
	}
}

/*
TEST 2: Streaming query happy path
Purpose: the answer streams as plain text and ends with END_FLAG
*/
func TestAPI_QueryStreamsAnswer(t *testing.T) {
	app := setupTestAPI(t)
	if rec := app.do(t, http.MethodPost, "/api/rag-llm/init", nil); rec.Code != http.StatusOK {
		t.Fatalf("init failed: %d", rec.Code)
	}

	app.generator.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, request llm.Request) (*llm.Response, error) {
			payload := request.Messages[len(request.Messages)-1].Content
			if !strings.Contains(payload, "1973") {
				t.Errorf("grounding payload does not carry the retrieved fact: %s", payload)
			}
			return &llm.Response{Content: "ITRI was founded in 1973."}, nil
		})

	recorder := app.do(t, http.MethodPost, "/api/rag-llm/query", map[string]any{
		"text_user_msg": "When was ITRI founded?",
		"session_id":    "stream-test",
		"convert_tone":  false,
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	body := recorder.Body.String()
	if !strings.Contains(body, "1973") {
		t.Errorf("answer missing from stream: %q", body)
	}
	if !strings.HasSuffix(body, orchestrator.EndFlag) {
		t.Errorf("stream not terminated with %s: %q", orchestrator.EndFlag, body)
	}

	history, err := app.sessions.GetHistory(context.Background(), "stream-test")
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected the completed exchange in history, got %d messages", len(history))
	}
}

/*
TEST 3: Request validation
Purpose: an empty question is rejected before any work starts
*/
func TestAPI_QueryRejectsEmptyText(t *testing.T) {
	app := setupTestAPI(t)

	recorder := app.do(t, http.MethodPost, "/api/rag-llm/query", map[string]any{
		"session_id": "validation-test",
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", recorder.Code)
	}

	var errResp middleware.ErrorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("Failed to parse error response: %v", err)
	}
	if !strings.Contains(errResp.Error, "text_user_msg") {
		t.Errorf("error does not name the missing field: %q", errResp.Error)
	}
}

/*
TEST 4: Buffered tone conversion
Purpose: stream=false returns the converted text as JSON
*/
func TestAPI_ConvertToneBuffered(t *testing.T) {
	app := setupTestAPI(t)

	app.generator.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		Return(&llm.Response{Content: "工研院在1973年成立的喔！"}, nil)

	recorder := app.do(t, http.MethodPost, "/api/rag-llm/convert-tone", map[string]any{
		"text":   "工研院成立於1973年。",
		"tone":   "child_friendly",
		"stream": false,
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var response api.ConvertToneResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !response.Success {
		t.Error("Expected success=true")
	}
	if response.OriginalText != "工研院成立於1973年。" {
		t.Errorf("original_text = %q", response.OriginalText)
	}
	if response.ConvertedText != "工研院在1973年成立的喔！" {
		t.Errorf("converted_text = %q", response.ConvertedText)
	}
	if response.Tone != string(tone.ChildFriendly) {
		t.Errorf("tone = %q", response.Tone)
	}
}

/*
TEST 5: Unknown tone
Purpose: conversion rejects tones outside the closed set
*/
func TestAPI_ConvertToneRejectsUnknownTone(t *testing.T) {
	app := setupTestAPI(t)

	recorder := app.do(t, http.MethodPost, "/api/rag-llm/convert-tone", map[string]any{
		"text": "hello",
		"tone": "sarcastic",
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", recorder.Code)
	}
}

/*
TEST 6: Session history surface
Purpose: history get/clear and close report counts for the right session
*/
func TestAPI_SessionHistoryLifecycle(t *testing.T) {
	app := setupTestAPI(t)
	ctx := context.Background()

	if err := app.sessions.Append(ctx, "visitor-1",
		models.Message{Role: models.RoleUser, Content: "你好"},
		models.Message{Role: models.RoleAssistant, Content: "您好，歡迎參觀！"},
	); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	recorder := app.do(t, http.MethodGet, "/api/rag-llm/sessions/visitor-1/history", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", recorder.Code)
	}
	var history api.HistoryResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &history); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if history.MessageCount != 2 || len(history.History) != 2 {
		t.Fatalf("expected 2 messages, got count=%d len=%d", history.MessageCount, len(history.History))
	}

	// Another session sees nothing
	recorder = app.do(t, http.MethodGet, "/api/rag-llm/sessions/visitor-2/history", nil)
	if err := json.Unmarshal(recorder.Body.Bytes(), &history); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if history.MessageCount != 0 {
		t.Errorf("expected empty history for unrelated session, got %d", history.MessageCount)
	}

	closeRecorder := app.do(t, http.MethodPost, "/api/rag-llm/close", map[string]any{
		"session_id": "visitor-1",
	})
	if closeRecorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", closeRecorder.Code)
	}
	var closeResp api.CloseSessionResponse
	if err := json.Unmarshal(closeRecorder.Body.Bytes(), &closeResp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !closeResp.SessionExisted || closeResp.MessagesCleared != 2 {
		t.Errorf("close response = %+v", closeResp)
	}
}

/*
TEST 7: Warmup
Purpose: warmup touches both model paths and reports per-target status
*/
func TestAPI_Warmup(t *testing.T) {
	app := setupTestAPI(t)

	app.generator.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		Return(&llm.Response{Content: "Hi"}, nil)

	recorder := app.do(t, http.MethodPost, "/api/rag-llm/warmup", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", recorder.Code)
	}

	var warmup api.WarmupResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &warmup); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !warmup.OverallSuccess {
		t.Errorf("warmup response = %+v", warmup)
	}
	if warmup.EmbeddingModel.Status != "ok" || warmup.LLMModel.Status != "ok" {
		t.Errorf("per-target status = %+v", warmup)
	}
}
