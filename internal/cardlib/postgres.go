package cardlib

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the definitions table.
const Schema = `CREATE TABLE IF NOT EXISTS card_definitions (
	name       TEXT PRIMARY KEY,
	definition JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresSource reads definitions from card_definitions.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and checks the connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresSource{pool: pool}, nil
}

// NewPostgresSource wraps an existing pool.
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

func (s *PostgresSource) String() string { return "postgres:card_definitions" }

// Close releases the pool.
func (s *PostgresSource) Close() { s.pool.Close() }

// EnsureSchema creates the definitions table when missing.
func (s *PostgresSource) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

// Entries implements Source. The row name is injected when the stored
// definition omits it.
func (s *PostgresSource) Entries(ctx context.Context) ([]json.RawMessage, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, definition FROM card_definitions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query card definitions: %w", err)
	}
	defer rows.Close()

	var entries []json.RawMessage
	for rows.Next() {
		var name string
		var body []byte
		if err := rows.Scan(&name, &body); err != nil {
			return nil, fmt.Errorf("scan card definition: %w", err)
		}
		entries = append(entries, withName(name, body))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Store upserts entries in one transaction and returns the number written.
func (s *PostgresSource) Store(ctx context.Context, entries []json.RawMessage) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, raw := range entries {
		name, err := entryName(raw)
		if err != nil {
			return 0, err
		}
		batch.Queue(`
			INSERT INTO card_definitions (name, definition) VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET definition = EXCLUDED.definition, updated_at = now()
		`, name, []byte(raw))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("failed to store card definitions: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit card definitions: %w", err)
	}
	return len(entries), nil
}

// Truncate removes every stored definition.
func (s *PostgresSource) Truncate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE card_definitions`)
	return err
}

func withName(name string, body []byte) json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return body
	}
	if _, ok := fields["Name"]; ok {
		return body
	}
	quoted, _ := json.Marshal(name)
	fields["Name"] = quoted
	out, err := json.Marshal(fields)
	if err != nil {
		return body
	}
	return out
}

func entryName(raw json.RawMessage) (string, error) {
	var head struct{ Name string }
	if err := json.Unmarshal(raw, &head); err != nil {
		return "", fmt.Errorf("card definition: %w", err)
	}
	if head.Name == "" {
		return "", fmt.Errorf("card definition has no name")
	}
	return head.Name, nil
}
