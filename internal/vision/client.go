// Package vision fetches the visual context observed for a session from
// the avatar's vision sidecar. Visual context is best-effort auxiliary
// input: timeouts and failures are absorbed so they can never fail a
// chat request.
package vision

//go:generate mockgen -source=client.go -destination=mocks/client_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/models"
)

// DefaultBaseURL is where the vision sidecar listens.
const DefaultBaseURL = "http://localhost:5004"

// requestTimeout bounds one context fetch; a stalled sidecar must not
// delay the answer beyond this.
const requestTimeout = 5 * time.Second

// Client supplies the visual context observed for a session.
type Client interface {
	// GetContext returns the current visual description for the session
	// and whether one is available. It never returns an error: failures
	// are absorbed into ("", false).
	GetContext(ctx context.Context, sessionID string) (string, bool)
}

// HTTPClient is the REST implementation of Client.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *zerolog.Logger
}

func NewHTTPClient(baseURL string, logger *zerolog.Logger) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: requestTimeout},
		logger:  logger,
	}
}

type visualContextResponse struct {
	SessionID     string `json:"sessionid"`
	VisualContext string `json:"visual_context"`
	Available     bool   `json:"available"`
}

func (c *HTTPClient) GetContext(ctx context.Context, sessionID string) (string, bool) {
	url := fmt.Sprintf("%s/visual-context/%s", c.baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Building visual context request failed")
		return "", false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			err = fmt.Errorf("%w: %v", models.ErrContextFetchTimeout, err)
		}
		c.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Visual context fetch failed")
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().Int("status", resp.StatusCode).Str("session_id", sessionID).Msg("Visual context fetch returned non-OK status")
		return "", false
	}

	var payload visualContextResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Decoding visual context failed")
		return "", false
	}

	if !payload.Available || strings.TrimSpace(payload.VisualContext) == "" {
		return "", false
	}
	return payload.VisualContext, true
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
