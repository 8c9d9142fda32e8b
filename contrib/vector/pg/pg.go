package pg

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	errorskg "github.com/sweetpotato0/legalrag/pkg/errors"
	"github.com/sweetpotato0/legalrag/vector"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config holds pgvector configuration
type Config struct {
	DSN       string
	Dimension int
	TableName string
	// CreateSchema creates the extension and table when missing.
	CreateSchema bool
}

// Store implements vector.Store using PostgreSQL with the pgvector extension. Rows
// are ranked by cosine distance.
type Store struct {
	db        *sql.DB
	dimension int
	tableName string
}

var _ vector.Store = (*Store)(nil)

// New opens the database and verifies connectivity.
func New(ctx context.Context, config Config) (*Store, error) {
	if config.TableName == "" {
		config.TableName = "legal_chunks"
	}
	if !tableNamePattern.MatchString(config.TableName) {
		return nil, fmt.Errorf("invalid table name %q: %w", config.TableName, errorskg.ErrInvalidInput)
	}
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive: %w", errorskg.ErrInvalidInput)
	}

	db, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %v: %w", err, errorskg.ErrIndexUnavailable)
	}

	store := &Store{db: db, dimension: config.Dimension, tableName: config.TableName}
	if config.CreateSchema {
		if err := store.setup(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to setup pgvector: %w", err)
		}
	}
	return store, nil
}

func (s *Store) setup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}
	createTableSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR(255) PRIMARY KEY,
		source TEXT NOT NULL DEFAULT '',
		locator TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL,
		embedding vector(%d) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`, s.tableName, s.dimension)
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Upsert writes all embeddings in one transaction.
func (s *Store) Upsert(ctx context.Context, embeddings ...*vector.Embedding) error {
	for _, emb := range embeddings {
		if emb == nil || emb.ID == "" {
			return fmt.Errorf("embedding must have an ID: %w", errorskg.ErrInvalidInput)
		}
		if len(emb.Vector) != s.dimension {
			return fmt.Errorf("embedding %s dimension mismatch: expected %d, got %d: %w", emb.ID, s.dimension, len(emb.Vector), errorskg.ErrInvalidInput)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	query := fmt.Sprintf(`
	INSERT INTO %s (id, source, locator, text, embedding)
	VALUES ($1, $2, $3, $4, $5::vector)
	ON CONFLICT (id) DO UPDATE SET
		source = EXCLUDED.source,
		locator = EXCLUDED.locator,
		text = EXCLUDED.text,
		embedding = EXCLUDED.embedding,
		created_at = CURRENT_TIMESTAMP
	`, s.tableName)
	for _, emb := range embeddings {
		if _, err := tx.ExecContext(ctx, query, emb.ID, emb.Source, emb.Locator, emb.Text, vectorLiteral(emb.Vector)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to upsert embedding %s: %w", emb.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// Search returns the nearest rows by cosine distance, ties broken by id.
func (s *Store) Search(ctx context.Context, queryVector []float32, topK int) ([]*vector.Embedding, error) {
	if len(queryVector) != s.dimension {
		return nil, fmt.Errorf("query vector dimension mismatch: expected %d, got %d: %w", s.dimension, len(queryVector), errorskg.ErrInvalidInput)
	}
	if topK <= 0 {
		topK = 10
	}

	query := fmt.Sprintf(`
	SELECT id, source, locator, text, 1 - (embedding <=> $1::vector) AS score
	FROM %s
	ORDER BY embedding <=> $1::vector, id
	LIMIT $2
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, vectorLiteral(queryVector), topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search embeddings: %v: %w", err, errorskg.ErrIndexUnavailable)
	}
	defer rows.Close()

	results := make([]*vector.Embedding, 0, topK)
	for rows.Next() {
		var (
			emb   vector.Embedding
			score float64
		)
		if err := rows.Scan(&emb.ID, &emb.Source, &emb.Locator, &emb.Text, &score); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		emb.Score = float32(score)
		results = append(results, &emb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating embeddings: %v: %w", err, errorskg.ErrIndexUnavailable)
	}
	return results, nil
}

// Count returns the number of embeddings
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.tableName)
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return count, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// vectorLiteral renders vec in pgvector's text input format.
func vectorLiteral(vec []float32) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
