package database

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nieveai/content-crew/internal/models"
)

var ErrRunNotFound = errors.New("run not found")

type Datastore interface {
	AddRun(run *models.Run) error
	GetRun(id string) (*models.Run, error)
	ListRuns(limit int) ([]*models.Run, error)
	Close() error
}

type SQLiteDatastore struct {
	db *sql.DB
}

func NewSQLiteDatastore(path string) (*SQLiteDatastore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Create runs table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			topic TEXT,
			temperature REAL,
			model_id TEXT,
			status TEXT,
			research TEXT,
			content TEXT,
			error TEXT,
			prompt_tokens INTEGER,
			completion_tokens INTEGER,
			total_tokens INTEGER,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create runs table: %w", err)
	}

	return &SQLiteDatastore{db: db}, nil
}

const runColumns = "id, topic, temperature, model_id, status, research, content, error, prompt_tokens, completion_tokens, total_tokens, created_at"

// AddRun inserts run or replaces the stored row with the same ID.
func (s *SQLiteDatastore) AddRun(run *models.Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec("INSERT OR REPLACE INTO runs ("+runColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		run.ID, run.Topic, run.Temperature, run.ModelID, string(run.Status), run.Research, run.Content, run.Error,
		run.Usage.PromptTokens, run.Usage.CompletionTokens, run.Usage.TotalTokens, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.Run, error) {
	var run models.Run
	var status string
	var research, content, errText sql.NullString
	err := row.Scan(&run.ID, &run.Topic, &run.Temperature, &run.ModelID, &status, &research, &content, &errText,
		&run.Usage.PromptTokens, &run.Usage.CompletionTokens, &run.Usage.TotalTokens, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	run.Status = models.RunStatus(status)
	run.Research = research.String
	run.Content = content.String
	run.Error = errText.String
	return &run, nil
}

func (s *SQLiteDatastore) GetRun(id string) (*models.Run, error) {
	row := s.db.QueryRow("SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all.
func (s *SQLiteDatastore) ListRuns(limit int) ([]*models.Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY created_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
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

func (s *SQLiteDatastore) Close() error {
	return s.db.Close()
}

// MemoryDatastore keeps runs for the lifetime of the process.
type MemoryDatastore struct {
	mu   sync.RWMutex
	runs map[string]models.Run
}

func NewMemoryDatastore() *MemoryDatastore {
	return &MemoryDatastore{runs: make(map[string]models.Run)}
}

func (s *MemoryDatastore) AddRun(run *models.Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = *run
	return nil
}

func (s *MemoryDatastore) GetRun(id string) (*models.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return &run, nil
}

func (s *MemoryDatastore) ListRuns(limit int) ([]*models.Run, error) {
	s.mu.RLock()
	out := make([]*models.Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, &r)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryDatastore) Close() error { return nil }
