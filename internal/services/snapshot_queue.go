package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	types "github.com/yungbote/materials-registry/internal/domain"
	"github.com/yungbote/materials-registry/internal/observability"
	"github.com/yungbote/materials-registry/internal/platform/logger"
)

// SnapshotJob carries a history record built when its material version was
// written. Workers only persist and announce it.
type SnapshotJob struct {
	Record *types.MaterialHistory
}

// SnapshotSubmitter accepts snapshot jobs without blocking the caller for
// longer than its configured wait.
type SnapshotSubmitter interface {
	Submit(job SnapshotJob) bool
}

// SnapshotWriter persists prebuilt history records.
type SnapshotWriter interface {
	AppendRecord(ctx context.Context, rec *types.MaterialHistory) (*types.MaterialHistory, error)
}

type SnapshotQueueConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
	// SubmitWait bounds how long Submit waits for room in a full queue.
	SubmitWait time.Duration
}

func (c SnapshotQueueConfig) withDefaults() SnapshotQueueConfig {
	if c.Workers < 1 {
		c.Workers = 2
	}
	if c.QueueSize < 1 {
		c.QueueSize = 256
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.SubmitWait < 0 {
		c.SubmitWait = 0
	}
	return c
}

// SnapshotQueue runs history snapshots on a fixed worker pool. Failures are
// logged and counted; they never reach the submitter.
type SnapshotQueue struct {
	log     *logger.Logger
	history SnapshotWriter
	metrics *observability.Metrics
	cfg     SnapshotQueueConfig

	jobs chan SnapshotJob
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewSnapshotQueue(baseLog *logger.Logger, history SnapshotWriter, cfg SnapshotQueueConfig, metrics *observability.Metrics) *SnapshotQueue {
	cfg = cfg.withDefaults()
	q := &SnapshotQueue{
		log:     baseLog.With("service", "SnapshotQueue"),
		history: history,
		metrics: metrics,
		cfg:     cfg,
		jobs:    make(chan SnapshotJob, cfg.QueueSize),
	}
	for i := 0; i < cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	return q
}

// Submit enqueues job and reports whether it was accepted. A queue that stays
// full for SubmitWait, or a closed queue, drops the job.
func (q *SnapshotQueue) Submit(job SnapshotJob) bool {
	if job.Record == nil {
		return false
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.drop(job, "closed")
		return false
	}
	select {
	case q.jobs <- job:
		q.metrics.SetSnapshotQueueDepth(len(q.jobs))
		return true
	default:
	}
	if q.cfg.SubmitWait > 0 {
		timer := time.NewTimer(q.cfg.SubmitWait)
		defer timer.Stop()
		select {
		case q.jobs <- job:
			q.metrics.SetSnapshotQueueDepth(len(q.jobs))
			return true
		case <-timer.C:
		}
	}
	q.drop(job, "full")
	return false
}

// drop logs enough of the record to replay it with a backfill.
func (q *SnapshotQueue) drop(job SnapshotJob, why string) {
	q.metrics.IncSnapshotDropped()
	q.log.Error("Snapshot dropped",
		"material_id", job.Record.MaterialID,
		"material_version", job.Record.MaterialVersion,
		"reason", job.Record.Reason,
		"actor_id", job.Record.ActorID,
		"queue", why,
	)
}

// Close stops accepting jobs and waits for queued ones until ctx is done.
func (q *SnapshotQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		q.wg.Wait()
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("snapshot queue drain: %w", ctx.Err())
	}
}

func (q *SnapshotQueue) worker(id int) {
	defer q.wg.Done()
	for job := range q.jobs {
		q.metrics.SetSnapshotQueueDepth(len(q.jobs))
		q.run(id, job)
	}
}

func (q *SnapshotQueue) run(worker int, job SnapshotJob) {
	rec := job.Record
	start := time.Now()
	status := "success"
	defer func() {
		if r := recover(); r != nil {
			status = "panic"
			q.log.Error("Snapshot worker panic", "worker", worker, "material_id", rec.MaterialID, "panic", r)
		}
		q.metrics.ObserveSnapshot(string(rec.Reason), status, time.Since(start))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), q.cfg.Timeout)
	defer cancel()
	written, err := q.history.AppendRecord(ctx, rec)
	if err != nil {
		status = "failure"
		q.log.Error("Snapshot failed",
			"worker", worker,
			"material_id", rec.MaterialID,
			"material_version", rec.MaterialVersion,
			"reason", rec.Reason,
			"actor_id", rec.ActorID,
			"error", err,
		)
		return
	}
	q.log.Debug("Snapshot appended", "material_id", written.MaterialID, "history_id", written.ID, "version", written.MaterialVersion)
}
