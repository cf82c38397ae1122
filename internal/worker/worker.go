package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nieveai/content-crew/internal/agents"
	"github.com/nieveai/content-crew/internal/database"
	"github.com/nieveai/content-crew/internal/logging"
	m "github.com/nieveai/content-crew/internal/models"
)

var ErrPoolClosed = errors.New("worker pool is closed")

// Generator runs one crew for a topic.
type Generator interface {
	Generate(ctx context.Context, topic string, temperature float64) (*m.CrewOutput, error)
	ModelID() string
}

// CitationRecorder is told which links a finished post cites.
type CitationRecorder interface {
	RecordCitations(runID, topic string, urls []string) error
}

type Result struct {
	Run *m.Run
	Err error
}

type job struct {
	ctx  context.Context
	run  *m.Run
	done chan Result
}

// Pool bounds the number of crews running at once. Every run is saved to
// the datastore as it moves from pending to running to completed or failed.
type Pool struct {
	gen       Generator
	db        database.Datastore
	citations CitationRecorder
	timeout   time.Duration

	jobs chan *job
	quit chan struct{}
	once sync.Once
	mu   sync.RWMutex
	wg   sync.WaitGroup

	closed bool
}

type PoolOption func(*Pool)

func WithCitationRecorder(r CitationRecorder) PoolOption {
	return func(p *Pool) { p.citations = r }
}

// WithTimeout limits how long a single run may take. Zero means no limit.
func WithTimeout(d time.Duration) PoolOption {
	return func(p *Pool) { p.timeout = d }
}

func NewPool(workers int, gen Generator, db database.Datastore, opts ...PoolOption) *Pool {
	if workers <= 0 {
		workers = 1
	}
	p := &Pool{
		gen:  gen,
		db:   db,
		jobs: make(chan *job),
		quit: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	// Start worker goroutines
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.runWorker(i)
	}
	logging.Logger().Info("Worker pool started", "workers", workers)
	return p
}

// Submit queues topic and blocks until a worker accepts it. The returned
// channel receives exactly one Result.
func (p *Pool) Submit(ctx context.Context, topic string, temperature float64) (<-chan Result, error) {
	run := &m.Run{
		ID:          uuid.New().String(),
		Topic:       topic,
		Temperature: m.ClampTemperature(temperature),
		ModelID:     p.gen.ModelID(),
		Status:      m.RunPending,
		CreatedAt:   time.Now().UTC(),
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrPoolClosed
	}

	if err := p.db.AddRun(run); err != nil {
		return nil, err
	}

	j := &job{ctx: ctx, run: run, done: make(chan Result, 1)}
	select {
	case p.jobs <- j:
		return j.done, nil
	case <-p.quit:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		p.finish(run, nil, ctx.Err())
		return nil, ctx.Err()
	}
}

// Generate submits topic and waits for the finished run. A failed run is
// returned together with its error.
func (p *Pool) Generate(ctx context.Context, topic string, temperature float64) (*m.Run, error) {
	done, err := p.Submit(ctx, topic, temperature)
	if err != nil {
		return nil, err
	}
	select {
	case res := <-done:
		return res.Run, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting work and waits for running crews to finish.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.quit)
		p.mu.Lock()
		p.closed = true
		close(p.jobs)
		p.mu.Unlock()
	})
	p.wg.Wait()
}

func (p *Pool) runWorker(id int) {
	defer p.wg.Done()
	logger := logging.Logger()
	for j := range p.jobs {
		logger.Info("Worker processing run", "worker", id, "run", j.run.ID, "topic", j.run.Topic)
		j.done <- p.process(j)
	}
	logger.Debug("Worker shutting down", "worker", id)
}

func (p *Pool) process(j *job) Result {
	run := j.run
	run.Status = m.RunRunning
	if err := p.db.AddRun(run); err != nil {
		logging.Logger().Warn("Failed to save run", "run", run.ID, "error", err)
	}

	ctx := j.ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	out, err := p.gen.Generate(ctx, run.Topic, run.Temperature)
	return p.finish(run, out, err)
}

func (p *Pool) finish(run *m.Run, out *m.CrewOutput, err error) Result {
	logger := logging.Logger()
	if err != nil {
		run.Status = m.RunFailed
		run.Error = err.Error()
		logger.Error("Run failed", "run", run.ID, "error", err)
	} else {
		run.Status = m.RunCompleted
		run.Content = out.Raw
		run.Usage = out.Usage
		if out.Brief != nil {
			run.Research = out.Brief.Raw
		}
		logger.Info("Run completed", "run", run.ID, "total_tokens", out.Usage.TotalTokens)
	}

	if saveErr := p.db.AddRun(run); saveErr != nil {
		logger.Warn("Failed to save run", "run", run.ID, "error", saveErr)
	}

	if err == nil && p.citations != nil {
		if urls := agents.CitedURLs(run.Content); len(urls) > 0 {
			if cerr := p.citations.RecordCitations(run.ID, run.Topic, urls); cerr != nil {
				logger.Warn("Failed to record citations", "run", run.ID, "error", cerr)
			}
		}
	}

	snapshot := *run
	return Result{Run: &snapshot, Err: err}
}
