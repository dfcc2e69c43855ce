// Package knowledge manages indexed course content with vector search.
//
// Store embeds chunk text through a Genkit embedder and persists the vectors
// in PostgreSQL + pgvector. Search is cosine-similarity nearest neighbor with
// an exact-match AND metadata filter; similarity is reported as 1 - distance.
//
// Store is safe for concurrent use by multiple goroutines.
package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

// Querier is the subset of pgxpool.Pool the store depends on.
// Defined on the consumer side so tests can substitute a fake.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	upsertSQL = `
		INSERT INTO content_chunks (id, content, embedding, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET content = EXCLUDED.content,
		    embedding = EXCLUDED.embedding,
		    metadata = EXCLUDED.metadata`

	searchSQL = `
		SELECT id, content, metadata, created_at,
		       1 - (embedding <=> $1) AS similarity
		FROM content_chunks
		WHERE metadata @> $2
		ORDER BY embedding <=> $1
		LIMIT $3`

	searchAllSQL = `
		SELECT id, content, metadata, created_at,
		       1 - (embedding <=> $1) AS similarity
		FROM content_chunks
		ORDER BY embedding <=> $1
		LIMIT $2`

	deleteByFilterSQL = `DELETE FROM content_chunks WHERE metadata @> $1`

	countSQL    = `SELECT count(*) FROM content_chunks WHERE metadata @> $1`
	countAllSQL = `SELECT count(*) FROM content_chunks`
)

// Store manages content chunks with vector search capabilities.
type Store struct {
	db       Querier
	embedder ai.Embedder
	logger   *slog.Logger
}

// New creates a Store. A nil logger falls back to slog.Default().
func New(db Querier, embedder ai.Embedder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:       db,
		embedder: embedder,
		logger:   logger,
	}
}

// Upsert embeds the chunk's content and inserts or updates it.
func (s *Store) Upsert(ctx context.Context, chunk Chunk) error {
	embedding, err := s.embed(ctx, chunk.Content)
	if err != nil {
		return fmt.Errorf("failed to embed chunk %q: %w", chunk.ID, err)
	}

	metadataJSON, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata for %q: %w", chunk.ID, err)
	}

	createdAt := chunk.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	vec := pgvector.NewVector(embedding)
	if _, err := s.db.Exec(ctx, upsertSQL, chunk.ID, chunk.Content, vec, metadataJSON, createdAt); err != nil {
		return fmt.Errorf("failed to upsert chunk %q: %w", chunk.ID, err)
	}

	s.logger.Debug("upserted chunk", "id", chunk.ID, "content_length", len(chunk.Content))
	return nil
}

// Search performs a cosine-similarity nearest-neighbor query over the stored
// chunks, restricted by whatever metadata filters the options supply.
//
// Example:
//
//	results, err := store.Search(ctx, "pointer receivers",
//	    knowledge.WithTopK(3),
//	    knowledge.WithFilter(knowledge.MetaLessonID, "lesson-7"))
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	cfg := buildSearchConfig(opts)

	embedding, err := s.embed(ctx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("query embedding timeout: %w", err)
		}
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	vec := pgvector.NewVector(embedding)

	var rows pgx.Rows
	if len(cfg.filter) > 0 {
		// The filter JSON is always produced by json.Marshal and bound as a
		// parameter; the @> containment operator does exact-match AND.
		filterJSON, marshalErr := json.Marshal(cfg.filter)
		if marshalErr != nil {
			return nil, fmt.Errorf("failed to marshal filter: %w", marshalErr)
		}
		rows, err = s.db.Query(ctx, searchSQL, vec, filterJSON, cfg.topK)
	} else {
		rows, err = s.db.Query(ctx, searchAllSQL, vec, cfg.topK)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("search query timeout: %w", err)
		}
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	return s.scanResults(rows)
}

// DeleteByContentID removes every chunk produced from the given content unit.
func (s *Store) DeleteByContentID(ctx context.Context, contentID string) error {
	filterJSON, err := json.Marshal(map[string]string{MetaContentID: contentID})
	if err != nil {
		return fmt.Errorf("failed to marshal filter: %w", err)
	}
	if _, err := s.db.Exec(ctx, deleteByFilterSQL, filterJSON); err != nil {
		return fmt.Errorf("failed to delete chunks for %q: %w", contentID, err)
	}

	s.logger.Debug("deleted chunks", "content_id", contentID)
	return nil
}

// Count returns the number of chunks matching the filter, or the total count
// when the filter is empty.
func (s *Store) Count(ctx context.Context, filter map[string]string) (int, error) {
	var count int64
	if len(filter) > 0 {
		filterJSON, err := json.Marshal(filter)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal filter: %w", err)
		}
		if err := s.db.QueryRow(ctx, countSQL, filterJSON).Scan(&count); err != nil {
			return 0, fmt.Errorf("count failed: %w", err)
		}
	} else {
		if err := s.db.QueryRow(ctx, countAllSQL).Scan(&count); err != nil {
			return 0, fmt.Errorf("count failed: %w", err)
		}
	}
	return int(count), nil
}

// embed generates the vector for a single text through the Genkit embedder.
func (s *Store) embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			{Content: []*ai.Part{ai.NewTextPart(text)}},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, errors.New("empty embedding returned")
	}
	return resp.Embeddings[0].Embedding, nil
}

// scanResults converts search rows into Results.
func (s *Store) scanResults(rows pgx.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var (
			id           string
			content      string
			metadataJSON []byte
			createdAt    time.Time
			similarity   float64
		)
		if err := rows.Scan(&id, &content, &metadataJSON, &createdAt, &similarity); err != nil {
			return nil, fmt.Errorf("failed to scan search row: %w", err)
		}

		var metadata map[string]string
		if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
			s.logger.Warn("failed to parse chunk metadata", "chunk_id", id, "error", err)
			metadata = make(map[string]string)
		}

		results = append(results, Result{
			Chunk: Chunk{
				ID:        id,
				Content:   content,
				Metadata:  metadata,
				CreatedAt: createdAt,
			},
			Similarity: float32(similarity),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search rows failed: %w", err)
	}
	return results, nil
}
