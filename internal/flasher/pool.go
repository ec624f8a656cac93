package flasher

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrPoolStopped is returned for jobs submitted to, or still queued in, a stopped pool
var ErrPoolStopped = errors.New("flasher pool is shutting down")

// FlashJob represents a flasher invocation waiting for a worker
type FlashJob struct {
	ctx    context.Context
	Args   []string
	Result chan *FlashResult
}

// FlashResult contains the result of a flash job
type FlashResult struct {
	Outcome ExitOutcome
	Error   error
}

// Pool bounds the number of flashing processes running at the same time.
// It imposes no ordering and no per-device exclusion between jobs.
type Pool struct {
	workers  int
	executor Executor
	jobQueue chan *FlashJob
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.RWMutex
	stopped  bool
	logger   *zap.Logger
}

// NewPool creates a pool of workers in front of executor
func NewPool(workers int, executor Executor, logger *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 4 // default to 4 workers
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workers:  workers,
		executor: executor,
		jobQueue: make(chan *FlashJob, workers*2), // buffer for 2x workers
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
	}
}

// Start launches all worker goroutines
func (p *Pool) Start() {
	p.logger.Info("Starting flasher worker pool",
		zap.Int("workers", p.workers),
		zap.Int("queue_size", cap(p.jobQueue)))

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop rejects new jobs, fails the queued ones and waits for running processes to exit
func (p *Pool) Stop() {
	p.logger.Info("Stopping flasher worker pool")
	p.cancel()

	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.jobQueue)
	}
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("Flasher worker pool stopped")
}

// Run queues the invocation and blocks until a worker has run it. If ctx ends while the
// job is still queued the process is never launched; once launched it runs to completion.
func (p *Pool) Run(ctx context.Context, args []string) (ExitOutcome, error) {
	job := &FlashJob{
		ctx:    ctx,
		Args:   args,
		Result: make(chan *FlashResult, 1),
	}

	if err := p.enqueue(ctx, job); err != nil {
		return ExitOutcome{ExitCode: -1}, err
	}

	result := <-job.Result
	return result.Outcome, result.Error
}

func (p *Pool) enqueue(ctx context.Context, job *FlashJob) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.jobQueue <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrPoolStopped
	}
}

// worker is the main loop for a single worker
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("Flasher worker started", zap.Int("worker_id", id))

	for job := range p.jobQueue {
		p.processJob(id, job)
	}

	p.logger.Debug("Flasher worker stopping (queue closed)", zap.Int("worker_id", id))
}

// processJob handles a single flash job
func (p *Pool) processJob(workerID int, job *FlashJob) {
	defer close(job.Result)

	if p.ctx.Err() != nil {
		job.Result <- &FlashResult{Outcome: ExitOutcome{ExitCode: -1}, Error: ErrPoolStopped}
		return
	}
	if err := job.ctx.Err(); err != nil {
		p.logger.Info("Dropping flash job abandoned while queued",
			zap.Int("worker_id", workerID),
			zap.Error(err))
		job.Result <- &FlashResult{Outcome: ExitOutcome{ExitCode: -1}, Error: err}
		return
	}

	p.logger.Debug("Worker processing job", zap.Int("worker_id", workerID))

	outcome, err := p.executor.Run(context.WithoutCancel(job.ctx), job.Args)
	job.Result <- &FlashResult{Outcome: outcome, Error: err}

	if err != nil {
		p.logger.Debug("Worker completed job with error",
			zap.Int("worker_id", workerID),
			zap.Error(err))
	} else {
		p.logger.Debug("Worker completed job",
			zap.Int("worker_id", workerID),
			zap.Int("exit_code", outcome.ExitCode))
	}
}
