// Package session keeps per-session conversation history. Sessions are
// created implicitly on first use and live until cleared; history is
// capped at the most recent messages.
package session

import (
	"context"

	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/models"
)

// DefaultMaxMessages caps stored history per session. One exchange is
// two messages, so this keeps the last five exchanges.
const DefaultMaxMessages = 10

// Store is the conversation history contract. Append takes the whole
// exchange in one call so a completed user/assistant pair lands
// atomically; readers never observe the user half alone. Operations on
// different sessions never block each other.
type Store interface {
	GetHistory(ctx context.Context, sessionID string) ([]models.Message, error)
	Append(ctx context.Context, sessionID string, messages ...models.Message) error
	// Clear removes all messages and reports how many were dropped.
	// The session id stays valid for future appends.
	Clear(ctx context.Context, sessionID string) (int, error)
}
