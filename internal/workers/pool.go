package workers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmitchellscott/ditherlab/internal/database"
	"github.com/rmitchellscott/ditherlab/internal/logging"
	"github.com/rmitchellscott/ditherlab/internal/sse"
	"github.com/rmitchellscott/ditherlab/internal/storage"
)

// Task points a worker at one queued render job
type Task struct {
	ID      uuid.UUID
	Context context.Context
}

// TaskResult represents the outcome of a processed task
type TaskResult struct {
	JobID      uuid.UUID
	Success    bool
	Error      error
	DurationMs int64
}

// PoolMetrics tracks worker pool performance
type PoolMetrics struct {
	TotalJobs     int64
	SuccessJobs   int64
	FailedJobs    int64
	ActiveWorkers int32
	QueueLength   int32
}

// RenderPool manages a pool of workers processing render jobs via channels
type RenderPool struct {
	workerCount int
	workers     []*Worker
	taskChan    chan Task
	resultChan  chan TaskResult
	quitChan    chan struct{}
	wg          sync.WaitGroup
	db          *gorm.DB
	jobs        *database.JobService
	runner      *JobRunner
	sseService  *sse.Service
	metrics     *PoolMetrics
	inFlight    sync.Map

	// Running state
	mu      sync.RWMutex
	running bool
}

// Worker represents a single worker goroutine
type Worker struct {
	id           int
	pool         *RenderPool
	taskChan     <-chan Task
	resultChan   chan<- TaskResult
	quitChan     <-chan struct{}
	isProcessing int32 // atomic flag
}

// NewRenderPool creates a new render worker pool
func NewRenderPool(db *gorm.DB, store *storage.ResultStore, workerCount, bufferSize int) *RenderPool {
	if workerCount <= 0 {
		workerCount = 2
	}
	if bufferSize <= 0 {
		bufferSize = 64
	}

	jobs := database.NewJobService(db)
	pool := &RenderPool{
		workerCount: workerCount,
		workers:     make([]*Worker, workerCount),
		taskChan:    make(chan Task, bufferSize),
		resultChan:  make(chan TaskResult, bufferSize),
		quitChan:    make(chan struct{}),
		db:          db,
		jobs:        jobs,
		runner:      NewJobRunner(jobs, store),
		sseService:  sse.GetSSEService(),
		metrics:     &PoolMetrics{},
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = &Worker{
			id:         i,
			pool:       pool,
			taskChan:   pool.taskChan,
			resultChan: pool.resultChan,
			quitChan:   pool.quitChan,
		}
	}

	return pool
}

// Start initializes and starts the worker pool
func (p *RenderPool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	// Jobs stuck in processing from an unclean shutdown go back to the queue.
	if requeued, err := p.jobs.ResetStaleJobs(); err != nil {
		logging.Error("[WORKER_POOL] Failed to reset stale jobs", "error", err)
	} else if requeued > 0 {
		logging.Info("[WORKER_POOL] Re-queued interrupted jobs", "count", requeued)
	}

	logging.Info("[WORKER_POOL] Starting render worker pool", "workers", p.workerCount)

	p.running = true

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.workers[i].start()
	}

	p.wg.Add(1)
	go p.processResults(ctx)

	p.wg.Add(1)
	go p.feedJobs(ctx)

	logging.Info("[WORKER_POOL] Worker pool started successfully")
	return nil
}

// Stop gracefully stops the worker pool
func (p *RenderPool) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil
	}

	logging.Info("[WORKER_POOL] Stopping worker pool...")

	p.running = false
	close(p.quitChan)

	// Close the task channel after a grace period so in-flight tasks finish
	go func() {
		time.Sleep(5 * time.Second)
		close(p.taskChan)
	}()

	p.wg.Wait()
	close(p.resultChan)

	logging.Info("[WORKER_POOL] Worker pool stopped")
	return nil
}

// SubmitJob hands a queued job to the worker pool. Jobs already waiting
// in the channel are not submitted twice.
func (p *RenderPool) SubmitJob(jobID uuid.UUID) bool {
	if _, loaded := p.inFlight.LoadOrStore(jobID, struct{}{}); loaded {
		return true
	}

	select {
	case p.taskChan <- Task{ID: jobID, Context: context.Background()}:
		atomic.AddInt32(&p.metrics.QueueLength, 1)
		return true
	default:
		p.inFlight.Delete(jobID)
		logging.Warn("[WORKER_POOL] Task channel full, leaving job queued", "job_id", jobID)
		return false
	}
}

// GetMetrics returns current worker pool metrics
func (p *RenderPool) GetMetrics() PoolMetrics {
	return PoolMetrics{
		TotalJobs:     atomic.LoadInt64(&p.metrics.TotalJobs),
		SuccessJobs:   atomic.LoadInt64(&p.metrics.SuccessJobs),
		FailedJobs:    atomic.LoadInt64(&p.metrics.FailedJobs),
		ActiveWorkers: atomic.LoadInt32(&p.metrics.ActiveWorkers),
		QueueLength:   int32(len(p.taskChan)),
	}
}

// feedJobs periodically picks up queued jobs the channel missed, such as
// those re-queued at startup or dropped when the channel was full.
func (p *RenderPool) feedJobs(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.quitChan:
			return
		case <-ticker.C:
			if err := p.loadPendingJobs(); err != nil {
				logging.Error("[WORKER_POOL] Failed to load pending jobs", "error", err)
			}
		}
	}
}

// loadPendingJobs submits queued jobs from the database to the workers
func (p *RenderPool) loadPendingJobs() error {
	// Don't overload if the channel is nearly full
	if len(p.taskChan) > cap(p.taskChan)*8/10 {
		logging.Warn("[WORKER_POOL] Task channel near capacity", "queued", len(p.taskChan), "capacity", cap(p.taskChan))
		return nil
	}

	jobs, err := p.jobs.PendingJobs()
	if err != nil {
		return err
	}

	submitted := 0
	for _, job := range jobs {
		if p.SubmitJob(job.ID) {
			submitted++
		}
	}

	if submitted > 0 {
		logging.Debug("[WORKER_POOL] Submitted jobs to workers", "count", submitted)
	}

	return nil
}

// processResults processes task results from workers
func (p *RenderPool) processResults(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.quitChan:
			return
		case result, ok := <-p.resultChan:
			if !ok {
				return
			}

			p.handleResult(result)
		}
	}
}

// handleResult records metrics and broadcasts one task outcome
func (p *RenderPool) handleResult(result TaskResult) {
	if result.Success {
		atomic.AddInt64(&p.metrics.SuccessJobs, 1)

		p.sseService.BroadcastJobUpdate(result.JobID, database.JobStatusCompleted, "", nil)
		logging.Debug("[WORKER_POOL] Render job completed",
			"job_id", result.JobID,
			"duration_s", float64(result.DurationMs)/1000.0)
		return
	}

	atomic.AddInt64(&p.metrics.FailedJobs, 1)

	if err := p.jobs.MarkFailed(result.JobID, result.Error.Error()); err != nil {
		logging.Error("[WORKER_POOL] Failed to record job failure", "job_id", result.JobID, "error", err)
	}

	p.sseService.BroadcastJobUpdate(result.JobID, database.JobStatusFailed, "", result.Error)
	logging.Error("[WORKER_POOL] Render job failed", "job_id", result.JobID, "error", result.Error)
}

// start runs a single worker
func (w *Worker) start() {
	defer w.pool.wg.Done()

	logging.Debug("[WORKER] Starting worker", "id", w.id)
	atomic.AddInt32(&w.pool.metrics.ActiveWorkers, 1)
	defer atomic.AddInt32(&w.pool.metrics.ActiveWorkers, -1)

	for {
		select {
		case <-w.quitChan:
			logging.Debug("[WORKER] Worker stopping", "id", w.id)
			return
		case task, ok := <-w.taskChan:
			if !ok {
				logging.Debug("[WORKER] Task channel closed", "id", w.id)
				return
			}

			w.processTask(task)
		}
	}
}

// processTask processes a single render task
func (w *Worker) processTask(task Task) {
	atomic.StoreInt32(&w.isProcessing, 1)
	defer atomic.StoreInt32(&w.isProcessing, 0)
	defer w.pool.inFlight.Delete(task.ID)

	atomic.AddInt64(&w.pool.metrics.TotalJobs, 1)
	atomic.AddInt32(&w.pool.metrics.QueueLength, -1)

	logging.Debug("[WORKER] Processing job", "worker_id", w.id, "job_id", task.ID)

	if err := w.pool.jobs.MarkProcessing(task.ID); err != nil {
		w.resultChan <- TaskResult{
			JobID:   task.ID,
			Success: false,
			Error:   err,
		}
		return
	}

	w.pool.sseService.BroadcastJobUpdate(task.ID, database.JobStatusProcessing, "", nil)

	job, err := w.pool.runner.Run(task.Context, task.ID)

	result := TaskResult{
		JobID:   task.ID,
		Success: err == nil,
		Error:   err,
	}
	if job != nil {
		result.DurationMs = job.DurationMs
	}

	w.resultChan <- result
}

// IsProcessing returns true if the worker is currently processing a task
func (w *Worker) IsProcessing() bool {
	return atomic.LoadInt32(&w.isProcessing) == 1
}
