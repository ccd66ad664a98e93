// Package orchestrator runs one conversational exchange end to end:
// fetch visual context and generate a grounded answer in parallel,
// pick a tone from the visual context, optionally restyle the answer
// in a second streamed generation, and commit the finished exchange to
// the session.
package orchestrator

//go:generate mockgen -source=orchestrator.go -destination=mocks/retriever_mock.go -package=mocks

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/llm"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/models"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/session"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/tone"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/vision"
)

// EndFlag terminates every stream so callers can tell a complete
// response from a cut-off one.
const EndFlag = "END_FLAG"

// DefaultSessionID groups callers that do not manage their own sessions.
const DefaultSessionID = "default"

const (
	defaultTopK           = 10
	answerTemperature     = 0.7
	conversionTemperature = 0.3
)

// EmitFunc delivers one chunk to the caller. A non-nil error means the
// caller is gone; the exchange stops without touching history.
type EmitFunc func(chunk string) error

// Retriever is the slice of the retrieval service the orchestrator
// depends on.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]models.RetrievalResult, error)
}

// Config carries the generation knobs.
type Config struct {
	// TopK is the retrieval depth for grounding.
	TopK int
	// MaxTokens is forwarded to the model; zero lets the provider decide.
	MaxTokens int
}

type Orchestrator struct {
	retriever Retriever
	generator llm.Client
	vision    vision.Client
	sessions  session.Store
	selector  *tone.Selector
	cfg       Config
	logger    *zerolog.Logger
}

func New(retriever Retriever, generator llm.Client, visionClient vision.Client, sessions session.Store, selector *tone.Selector, cfg Config, logger *zerolog.Logger) *Orchestrator {
	if cfg.TopK <= 0 {
		cfg.TopK = defaultTopK
	}
	return &Orchestrator{
		retriever: retriever,
		generator: generator,
		vision:    visionClient,
		sessions:  sessions,
		selector:  selector,
		cfg:       cfg,
		logger:    logger,
	}
}

type contextResult struct {
	description string
	ok          bool
}

type answerResult struct {
	answer     string
	historyLen int
	err        error
}

// Query runs one exchange, delivering answer chunks and the end
// sentinel through emit. History is committed only after a fully
// delivered answer; every failure after the stream opens surfaces as a
// single ERROR chunk before the sentinel.
func (o *Orchestrator) Query(ctx context.Context, req models.QueryRequest, emit EmitFunc) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if req.SessionID == "" {
		req.SessionID = DefaultSessionID
	}

	state := o.transition(req.SessionID, StateIdle, StateFetchingAndGenerating)

	// The two tasks share no mutable state; the channel reads below are
	// the only join point, so the exchange costs max(T1, T2), not the sum.
	contextCh := make(chan contextResult, 1)
	answerCh := make(chan answerResult, 1)
	go o.fetchContext(ctx, req, contextCh)
	go o.generateAnswer(ctx, req, answerCh)

	auxiliary := <-contextCh
	answer := <-answerCh

	if answer.err != nil {
		return o.errored(req, state, emit, answer.err)
	}

	state = o.transition(req.SessionID, state, StateToneSelected)
	profile := o.selector.Select(auxiliary.description)
	o.logger.Info().
		Str("session_id", req.SessionID).
		Str("tone", string(profile)).
		Bool("context_available", auxiliary.ok).
		Msg("Tone selected")

	state = o.transition(req.SessionID, state, StateStreaming)
	final := answer.answer
	if req.ApplyStyleConversion {
		converted, err := o.streamConversion(ctx, answer.answer, profile, auxiliary.description, req.Text, answer.historyLen == 0, emit)
		if err != nil {
			return o.errored(req, state, emit, err)
		}
		final = converted
	} else {
		if err := emit(final); err != nil {
			return fmt.Errorf("emitting answer: %w", err)
		}
	}

	if err := emit(EndFlag); err != nil {
		return fmt.Errorf("emitting end flag: %w", err)
	}
	o.transition(req.SessionID, state, StateDone)

	// The exchange lands as one atomic pair; readers never observe the
	// user half alone.
	if err := o.sessions.Append(ctx, req.SessionID,
		models.Message{Role: models.RoleUser, Content: req.Text},
		models.Message{Role: models.RoleAssistant, Content: final},
	); err != nil {
		// The answer is already delivered; losing history must not fail it.
		o.logger.Warn().Err(err).Str("session_id", req.SessionID).Msg("Recording exchange failed")
	}
	return nil
}

// Answer runs Query and buffers the whole answer, for callers without a
// streaming surface.
func (o *Orchestrator) Answer(ctx context.Context, req models.QueryRequest) (string, error) {
	var b strings.Builder
	err := o.Query(ctx, req, func(chunk string) error {
		if chunk != EndFlag {
			b.WriteString(chunk)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// fetchContext resolves the auxiliary context for the exchange.
// Caller-supplied context wins and skips the fetch entirely; otherwise
// the vision sidecar is consulted only when the answer will be
// restyled, since the description has no other consumer.
func (o *Orchestrator) fetchContext(ctx context.Context, req models.QueryRequest, out chan<- contextResult) {
	if desc := strings.TrimSpace(req.AuxiliaryContext); desc != "" {
		out <- contextResult{description: desc, ok: true}
		return
	}
	if !req.ApplyStyleConversion {
		out <- contextResult{}
		return
	}
	description, ok := o.vision.GetContext(ctx, req.SessionID)
	out <- contextResult{description: description, ok: ok}
}

// generateAnswer is the grounded generation task: load history, retrieve
// reference chunks, and run the buffered answer call. Retrieval and
// history failures degrade the exchange instead of failing it; only the
// generation itself is fatal.
func (o *Orchestrator) generateAnswer(ctx context.Context, req models.QueryRequest, out chan<- answerResult) {
	var history []models.Message
	if req.IncludeHistory {
		h, err := o.sessions.GetHistory(ctx, req.SessionID)
		if err != nil {
			o.logger.Warn().Err(err).Str("session_id", req.SessionID).Msg("Loading session history failed")
		} else {
			history = h
		}
	}

	reference := ""
	results, err := o.retriever.Search(ctx, req.Text, o.cfg.TopK)
	if err != nil {
		o.logger.Warn().Err(err).Msg("Retrieval unavailable, generating without grounding context")
	} else {
		reference = buildReference(results)
	}

	resp, err := o.generator.Generate(ctx, llm.Request{
		Messages:    groundedMessages(req.Text, history, reference, req.AuxiliaryContext),
		Temperature: answerTemperature,
		MaxTokens:   o.cfg.MaxTokens,
	})
	if err != nil {
		out <- answerResult{err: fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)}
		return
	}
	if strings.TrimSpace(resp.Content) == "" {
		out <- answerResult{err: fmt.Errorf("%w: model returned an empty answer", models.ErrGenerationFailed)}
		return
	}
	out <- answerResult{answer: resp.Content, historyLen: len(history)}
}

// streamConversion restyles the answer for the profile in a second
// streamed generation, forwarding deltas to emit as they arrive.
func (o *Orchestrator) streamConversion(ctx context.Context, answer string, profile tone.Profile, description, question string, firstMessage bool, emit EmitFunc) (string, error) {
	request := conversionRequest(answer, profile, tone.ConversionContext{
		UserDescription: description,
		UserQuestion:    question,
		FirstMessage:    firstMessage,
	}, o.cfg.MaxTokens)

	resp, err := o.generator.GenerateStream(ctx, request, llm.StreamHandler(emit))
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("%w: style conversion returned an empty answer", models.ErrGenerationFailed)
	}
	return resp.Content, nil
}

// ConversionRequest is the input to the standalone tone conversion
// operation.
type ConversionRequest struct {
	Text            string
	Profile         tone.Profile
	UserDescription string
	UserMessage     string
}

// ConvertTone restyles text for a fixed profile without touching
// retrieval or session state. With a nil emit the conversion runs
// buffered and only the converted text is returned; otherwise deltas
// and the end sentinel stream through emit as in Query.
func (o *Orchestrator) ConvertTone(ctx context.Context, req ConversionRequest, emit EmitFunc) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", fmt.Errorf("%w: text is required", models.ErrInvalidRequest)
	}
	profile := req.Profile
	if profile == "" {
		profile = tone.ChildFriendly
	}

	request := conversionRequest(req.Text, profile, tone.ConversionContext{
		UserDescription: req.UserDescription,
		UserQuestion:    req.UserMessage,
	}, o.cfg.MaxTokens)

	if emit == nil {
		resp, err := o.generator.Generate(ctx, request)
		if err != nil {
			return "", fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)
		}
		return resp.Content, nil
	}

	resp, err := o.generator.GenerateStream(ctx, request, llm.StreamHandler(emit))
	if err != nil {
		err = fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)
		if emitErr := emit("ERROR: " + err.Error()); emitErr == nil {
			_ = emit(EndFlag)
		}
		return "", err
	}
	if err := emit(EndFlag); err != nil {
		return resp.Content, fmt.Errorf("emitting end flag: %w", err)
	}
	return resp.Content, nil
}

// errored surfaces err to the caller as a single ERROR chunk followed
// by the end sentinel, leaving history untouched. Emit failures are
// ignored; a caller that is gone cannot receive the error either.
func (o *Orchestrator) errored(req models.QueryRequest, from State, emit EmitFunc, err error) error {
	o.transition(req.SessionID, from, StateErrored)
	o.logger.Error().Err(err).Str("session_id", req.SessionID).Msg("Exchange failed")
	if emitErr := emit("ERROR: " + err.Error()); emitErr == nil {
		_ = emit(EndFlag)
	}
	return err
}

func (o *Orchestrator) transition(sessionID string, from, to State) State {
	o.logger.Debug().
		Str("session_id", sessionID).
		Stringer("from", from).
		Stringer("to", to).
		Msg("State transition")
	return to
}
