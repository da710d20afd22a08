package worker

import (
	"context"
	"errors"
	"time"

	"onmydesk/config"
	"onmydesk/lock"
	"onmydesk/logging"
	"onmydesk/metrics"
)

// PendingSource selects pending jobs. With ids, every pending job among them
// is returned; without, at most limit jobs.
type PendingSource interface {
	PendingJobs(ctx context.Context, ids []int64, limit int) ([]*Job, error)
}

// Summary counts the outcome of one batch.
type Summary struct {
	Found     int
	Processed int
	Failed    int
}

// BatchProcessor runs pending jobs sequentially under a host-wide lock file.
type BatchProcessor struct {
	Jobs        PendingSource
	Runner      *Runner
	LockPath    string
	LockTimeout time.Duration
	BatchSize   int
	Logger      *logging.Logger
	Metrics     *metrics.Metrics
}

// RunPending processes the pending batch. When the lock cannot be obtained
// within LockTimeout it returns lock.ErrTimeout without touching any job.
// Job failures are logged and counted, they never stop the batch.
func (b *BatchProcessor) RunPending(ctx context.Context, ids []int64) (Summary, error) {
	timeout := b.LockTimeout
	if timeout <= 0 {
		timeout = config.DefaultLockTimeout
	}
	release, err := lock.Acquire(ctx, b.LockPath, timeout)
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			b.Metrics.LockTimeout("processor")
		}
		return Summary{}, err
	}
	defer release()

	limit := 0
	if len(ids) == 0 {
		limit = b.BatchSize
		if limit <= 0 {
			limit = config.DefaultBatchSize
		}
	}
	jobs, err := b.Jobs.PendingJobs(ctx, ids, limit)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Found: len(jobs)}
	b.Logger.Writef("Found %d reports to process", len(jobs))
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		b.Logger.Writef("Processing report #%d - %d of %d", job.ID, i+1, len(jobs))
		if err := b.Runner.Run(ctx, job); err != nil {
			sum.Failed++
			b.Logger.Writef("Error processing report #%d: %v", job.ID, err)
			continue
		}
		sum.Processed++
		b.Logger.Writef("Report #%d processed", job.ID)
	}
	b.Metrics.BatchDone("processor", time.Now())
	return sum, nil
}
