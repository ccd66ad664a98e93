package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// redisCache is the slice of the Redis client the cache layer needs.
type redisCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedEmbedder memoizes embeddings in Redis, keyed by provider prefix
// and a hash of the text. Cache trouble is logged and absorbed; the
// inner embedder always remains the source of truth. A zero TTL keeps
// entries until Redis evicts them.
type CachedEmbedder struct {
	inner  Embedder
	cache  redisCache
	prefix string
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewCachedEmbedder(inner Embedder, cache redisCache, prefix string, ttl time.Duration, logger *zerolog.Logger) *CachedEmbedder {
	return &CachedEmbedder{
		inner:  inner,
		cache:  cache,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CachedEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	var missIndexes []int
	var missTexts []string
	for i, text := range texts {
		if vec, ok := c.lookup(ctx, c.key("d", text)); ok {
			vectors[i] = vec
			continue
		}
		missIndexes = append(missIndexes, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return vectors, nil
	}

	fresh, err := c.inner.EmbedDocuments(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, i := range missIndexes {
		vectors[i] = fresh[j]
		c.store(ctx, c.key("d", texts[i]), fresh[j])
	}
	return vectors, nil
}

func (c *CachedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := c.key("q", text)
	if vec, ok := c.lookup(ctx, key); ok {
		return vec, nil
	}

	vec, err := c.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, vec)
	return vec, nil
}

// Documents and queries hash to distinct keys because prefixed models
// embed the same text differently on each side.
func (c *CachedEmbedder) key(role, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("embed:%s:%s:%x", c.prefix, role, sum)
}

func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Msg("Embedding cache read failed")
		}
		return nil, false
	}

	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Corrupt embedding cache entry")
		return nil, false
	}
	return vec, true
}

func (c *CachedEmbedder) store(ctx context.Context, key string, vec []float32) {
	data, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("Embedding cache write failed")
	}
}
