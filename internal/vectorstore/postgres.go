package vectorstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PostgresConfig describes the pgvector-backed store connection.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

func (c *PostgresConfig) ConnectionString() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s", c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// PostgresStore keeps embeddings in a pgvector table. Replace runs in a
// single transaction, so concurrent readers see either the previous
// generation or the new one, never a mix.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, config PostgresConfig) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, config.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("Failed to connect to database, Error: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("Failed to ping database, Error: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema creates the extension and embeddings table if missing.
// The dimension must match the embedder in use.
func (s *PostgresStore) EnsureSchema(ctx context.Context, dimension int) error {
	if _, err := s.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("Unable to create vector extension: %w", err)
	}
	ddl := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS chunk_embeddings (
	  chunk_id  TEXT PRIMARY KEY,
	  embedding VECTOR(%d) NOT NULL
	)`, dimension)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("Unable to create embeddings table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Replace(ctx context.Context, items []Item) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("Unable to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM chunk_embeddings`); err != nil {
		return fmt.Errorf("Unable to clear embeddings table: %w", err)
	}
	for _, item := range items {
		_, err := tx.Exec(ctx,
			`INSERT INTO chunk_embeddings (chunk_id, embedding) VALUES ($1, $2)`,
			item.ChunkID, pgvector.NewVector(item.Vector))
		if err != nil {
			return fmt.Errorf("Unable to insert embedding for %s: %w", item.ChunkID, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) QueryByVector(ctx context.Context, vector []float32, limit int) ([]Match, error) {
	queryEmbedding := pgvector.NewVector(vector)

	query := `
	SELECT
	  chunk_id,
	  embedding <=> $1 AS distance
	FROM chunk_embeddings
	ORDER BY distance ASC`
	args := []any{queryEmbedding}
	if limit > 0 {
		query += `
	LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Unable to query the database: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var match Match
		var distance float64

		if err := rows.Scan(&match.ChunkID, &distance); err != nil {
			return nil, fmt.Errorf("Failed to scan match: %w", err)
		}

		// Cosine distance back to similarity.
		match.Score = 1 - distance
		matches = append(matches, match)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return matches, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM chunk_embeddings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("Unable to count embeddings: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
