package database

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nieveai/content-crew/internal/models"
)

type fakeRow struct {
	values []any
	err    error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case *float64:
			*p = r.values[i].(float64)
		case *int64:
			*p = r.values[i].(int64)
		case *time.Time:
			*p = r.values[i].(time.Time)
		case interface{ Scan(any) error }:
			if err := p.Scan(r.values[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

type fakeRows struct {
	rows []*fakeRow
	pos  int
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos <= len(r.rows)
}
func (r *fakeRows) Scan(dest ...any) error { return r.rows[r.pos-1].Scan(dest...) }
func (r *fakeRows) Err() error             { return nil }
func (r *fakeRows) Close()                 {}

type fakeConn struct {
	execs   []string
	args    [][]any
	row     *fakeRow
	rows    *fakeRows
	queries []string
}

func (c *fakeConn) Exec(_ context.Context, sql string, args ...any) error {
	c.execs = append(c.execs, sql)
	c.args = append(c.args, args)
	return nil
}

func (c *fakeConn) QueryRow(_ context.Context, sql string, args ...any) scanner {
	c.queries = append(c.queries, sql)
	return c.row
}

func (c *fakeConn) Query(_ context.Context, sql string, args ...any) (pgRows, error) {
	c.queries = append(c.queries, sql)
	return c.rows, nil
}

func (c *fakeConn) Close(context.Context) error { return nil }

func rowFor(id string, status models.RunStatus, created time.Time) *fakeRow {
	return &fakeRow{values: []any{
		id, "Edge AI", 0.3, "gpt-4o-mini", string(status), "brief", "# Post", "",
		int64(1), int64(2), int64(3), created,
	}}
}

func TestPostgresInitAndAddRun(t *testing.T) {
	conn := &fakeConn{}
	s := &PostgresDatastore{conn: conn}
	require.NoError(t, s.initDB(t.Context()))
	require.Len(t, conn.execs, 2)
	assert.Contains(t, conn.execs[0], "CREATE TABLE IF NOT EXISTS runs")

	run := &models.Run{ID: "r1", Topic: "Edge AI", Status: models.RunCompleted, Content: "# Post"}
	require.NoError(t, s.AddRun(run))
	assert.False(t, run.CreatedAt.IsZero())

	upsert := conn.execs[2]
	assert.Contains(t, upsert, "ON CONFLICT (id) DO UPDATE")
	args := conn.args[2]
	require.Len(t, args, 12)
	assert.Equal(t, "r1", args[0])
	assert.Equal(t, "completed", args[4])
	assert.Equal(t, "# Post", args[6])
}

func TestPostgresGetRun(t *testing.T) {
	created := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	conn := &fakeConn{row: rowFor("r1", models.RunCompleted, created)}
	s := &PostgresDatastore{conn: conn}

	run, err := s.GetRun("r1")
	require.NoError(t, err)
	assert.Equal(t, "Edge AI", run.Topic)
	assert.Equal(t, "brief", run.Research)
	assert.Equal(t, int64(3), run.Usage.TotalTokens)
	assert.Equal(t, created, run.CreatedAt)

	conn.row = &fakeRow{err: pgx.ErrNoRows}
	_, err = s.GetRun("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	conn.row = &fakeRow{err: errors.New("connection reset")}
	_, err = s.GetRun("r1")
	assert.NotErrorIs(t, err, ErrRunNotFound)
}

func TestPostgresListRuns(t *testing.T) {
	now := time.Now().UTC()
	conn := &fakeConn{rows: &fakeRows{rows: []*fakeRow{
		rowFor("b", models.RunCompleted, now),
		rowFor("a", models.RunFailed, now.Add(-time.Hour)),
	}}}
	s := &PostgresDatastore{conn: conn}

	runs, err := s.ListRuns(5)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b", runs[0].ID)
	assert.Equal(t, models.RunFailed, runs[1].Status)
	assert.True(t, strings.HasSuffix(conn.queries[0], "ORDER BY created_at DESC LIMIT $1"))
}
