package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/models"
)

const defaultKeyPrefix = "session"

// RedisStore keeps history in Redis lists, one list per session. Redis
// serializes commands per key, which gives the same per-session
// ordering contract as the in-memory store while surviving restarts.
type RedisStore struct {
	client      *redis.Client
	prefix      string
	ttl         time.Duration
	maxMessages int
}

// NewRedisStore wraps an already connected client. A zero TTL keeps
// sessions until cleared.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration, maxMessages int) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	return &RedisStore{
		client:      client,
		prefix:      prefix,
		ttl:         ttl,
		maxMessages: maxMessages,
	}
}

func (r *RedisStore) key(sessionID string) string {
	return fmt.Sprintf("%s:%s", r.prefix, sessionID)
}

func (r *RedisStore) GetHistory(ctx context.Context, sessionID string) ([]models.Message, error) {
	entries, err := r.client.LRange(ctx, r.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", sessionID, err)
	}

	history := make([]models.Message, 0, len(entries))
	for _, entry := range entries {
		var msg models.Message
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			return nil, fmt.Errorf("corrupt message in session %s: %w", sessionID, err)
		}
		history = append(history, msg)
	}
	return history, nil
}

func (r *RedisStore) Append(ctx context.Context, sessionID string, messages ...models.Message) error {
	if len(messages) == 0 {
		return nil
	}
	now := time.Now()

	payloads := make([]interface{}, 0, len(messages))
	for _, msg := range messages {
		if msg.Timestamp.IsZero() {
			msg.Timestamp = now
		}
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("encoding message: %w", err)
		}
		payloads = append(payloads, data)
	}

	key := r.key(sessionID)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, payloads...)
	pipe.LTrim(ctx, key, int64(-r.maxMessages), -1)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("appending to session %s: %w", sessionID, err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context, sessionID string) (int, error) {
	key := r.key(sessionID)

	pipe := r.client.TxPipeline()
	length := pipe.LLen(ctx, key)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("clearing session %s: %w", sessionID, err)
	}
	return int(length.Val()), nil
}
