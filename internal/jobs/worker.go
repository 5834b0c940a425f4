package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/coopfin/ledger-api/pkg/logger"
)

// Job is a background task. It receives the worker's context, which is
// cancelled on shutdown.
type Job func(ctx context.Context) error

// Worker runs queued background jobs on a fixed pool of goroutines. The
// scheduler enqueues accrual and rollover runs here so a slow batch never
// blocks the cron loop.
type Worker struct {
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	queue   chan namedJob
	stats   WorkerStats
	statsMu sync.RWMutex
}

type namedJob struct {
	name string
	run  Job
}

// WorkerStats holds statistics about the worker
type WorkerStats struct {
	ActiveJobs    int   `json:"active_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	FailedJobs    int64 `json:"failed_jobs"`
	QueueLength   int   `json:"queue_length"`
}

// NewWorker creates a worker with N concurrent processors
func NewWorker(numWorkers int) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		ctx:    ctx,
		cancel: cancel,
		queue:  make(chan namedJob, 100),
	}

	for i := 0; i < numWorkers; i++ {
		w.wg.Add(1)
		go w.process(i)
	}

	return w
}

// Enqueue adds a named job to the queue. If the queue is full the job runs
// synchronously so nothing scheduled is ever dropped.
func (w *Worker) Enqueue(name string, job Job) {
	select {
	case w.queue <- namedJob{name: name, run: job}:
	default:
		logger.Warn("job queue full, running synchronously", "job", name)
		w.runJob(namedJob{name: name, run: job})
	}
}

func (w *Worker) process(workerID int) {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case job, ok := <-w.queue:
			if !ok {
				return
			}
			w.runJob(job)
		}
	}
}

func (w *Worker) runJob(job namedJob) {
	w.trackJobStart()
	defer w.trackJobEnd()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("job panic", "job", job.name, "panic", r)
			w.trackJobFailure()
		}
	}()

	start := time.Now()
	if err := job.run(w.ctx); err != nil {
		logger.Error("job failed", "job", job.name, "error", err)
		w.trackJobFailure()
		return
	}
	logger.Info("job completed", "job", job.name, "duration", time.Since(start).String())
}

// Shutdown gracefully stops all workers
func (w *Worker) Shutdown() {
	w.cancel()
	close(w.queue)
	w.wg.Wait()
}

// GetStats returns a snapshot of the worker statistics
func (w *Worker) GetStats() WorkerStats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()

	stats := w.stats
	stats.QueueLength = len(w.queue)
	return stats
}

func (w *Worker) trackJobStart() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs++
}

func (w *Worker) trackJobEnd() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs--
	w.stats.CompletedJobs++
}

func (w *Worker) trackJobFailure() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.FailedJobs++
}
