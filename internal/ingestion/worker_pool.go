package ingestion

import (
	"context"
	"log/slog"
	"sync"
)

// Task is a unit of work processed by the worker pool.
type Task func(ctx context.Context) error

// WorkerPool fans prefetch tasks out over a fixed number of workers. Task
// errors are logged, not propagated; one failed page must not stop a warm run.
type WorkerPool struct {
	workerCount int
	taskQueue   chan Task
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	closed      bool
	closeMux    sync.Mutex
	logger      *slog.Logger
}

// NewWorkerPool creates a pool with the specified number of workers, bound to
// the given context.
func NewWorkerPool(ctx context.Context, workerCount int, logger *slog.Logger) *WorkerPool {
	if logger == nil {
		logger = slog.Default()
	}
	poolCtx, cancel := context.WithCancel(ctx)
	return &WorkerPool{
		workerCount: workerCount,
		taskQueue:   make(chan Task, workerCount*2),
		ctx:         poolCtx,
		cancel:      cancel,
		logger:      logger,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
	wp.logger.Info("worker pool started", "workers", wp.workerCount)
}

// Submit adds a task to the queue. Blocks when the queue is full; returns
// without submitting when the pool is shutting down.
func (wp *WorkerPool) Submit(task Task) {
	select {
	case wp.taskQueue <- task:
	case <-wp.ctx.Done():
		wp.logger.Warn("pool shutting down, task not submitted")
	}
}

// Wait blocks until every submitted task has completed.
func (wp *WorkerPool) Wait() {
	wp.closeMux.Lock()
	if !wp.closed {
		close(wp.taskQueue)
		wp.closed = true
	}
	wp.closeMux.Unlock()

	wp.wg.Wait()
}

// Shutdown cancels all workers and waits for completion.
func (wp *WorkerPool) Shutdown() {
	wp.cancel()
	wp.Wait()
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		select {
		case <-wp.ctx.Done():
			return
		default:
		}

		if err := task(wp.ctx); err != nil {
			wp.logger.Warn("task failed", "worker", id, "error", err)
		}
	}
}
