package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nieveai/content-crew/internal/models"
)

const pgTimeout = 10 * time.Second

type pgRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// pgConn is the part of a pgx connection the store uses.
type pgConn interface {
	Exec(ctx context.Context, sql string, args ...any) error
	QueryRow(ctx context.Context, sql string, args ...any) scanner
	Query(ctx context.Context, sql string, args ...any) (pgRows, error)
	Close(ctx context.Context) error
}

type pgxConn struct {
	conn *pgx.Conn
}

func (c *pgxConn) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := c.conn.Exec(ctx, sql, args...)
	return err
}

func (c *pgxConn) QueryRow(ctx context.Context, sql string, args ...any) scanner {
	return c.conn.QueryRow(ctx, sql, args...)
}

func (c *pgxConn) Query(ctx context.Context, sql string, args ...any) (pgRows, error) {
	return c.conn.Query(ctx, sql, args...)
}

func (c *pgxConn) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

// PostgresDatastore keeps runs in PostgreSQL. A single connection is
// shared, guarded by a mutex.
type PostgresDatastore struct {
	mu   sync.Mutex
	conn pgConn
}

func NewPostgresDatastore(ctx context.Context, connString string) (*PostgresDatastore, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	s := &PostgresDatastore{conn: &pgxConn{conn: conn}}
	if err := s.initDB(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *PostgresDatastore) initDB(ctx context.Context) error {
	err := s.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			temperature DOUBLE PRECISION NOT NULL,
			model_id TEXT NOT NULL,
			status TEXT NOT NULL,
			research TEXT,
			content TEXT,
			error TEXT,
			prompt_tokens BIGINT NOT NULL DEFAULT 0,
			completion_tokens BIGINT NOT NULL DEFAULT 0,
			total_tokens BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}
	err = s.conn.Exec(ctx, `CREATE INDEX IF NOT EXISTS runs_created_at_idx ON runs (created_at DESC)`)
	if err != nil {
		return fmt.Errorf("failed to create runs index: %w", err)
	}
	return nil
}

func (s *PostgresDatastore) AddRun(run *models.Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(context.Background(), pgTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.conn.Exec(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			research = EXCLUDED.research,
			content = EXCLUDED.content,
			error = EXCLUDED.error,
			prompt_tokens = EXCLUDED.prompt_tokens,
			completion_tokens = EXCLUDED.completion_tokens,
			total_tokens = EXCLUDED.total_tokens`,
		run.ID, run.Topic, run.Temperature, run.ModelID, string(run.Status), run.Research, run.Content, run.Error,
		run.Usage.PromptTokens, run.Usage.CompletionTokens, run.Usage.TotalTokens, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

func (s *PostgresDatastore) GetRun(id string) (*models.Run, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pgTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	run, err := scanRun(s.conn.QueryRow(ctx, "SELECT "+runColumns+" FROM runs WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (s *PostgresDatastore) ListRuns(limit int) ([]*models.Run, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pgTimeout)
	defer cancel()

	query := "SELECT " + runColumns + " FROM runs ORDER BY created_at DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *PostgresDatastore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), pgTimeout)
	defer cancel()
	return s.conn.Close(ctx)
}
