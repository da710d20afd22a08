package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"onmydesk/logging"
	"onmydesk/metrics"
	"onmydesk/report"
)

// JobStore persists job state transitions.
type JobStore interface {
	SaveJob(ctx context.Context, job *Job) error
}

// Builder resolves a report key to a runnable report (report.Registry).
type Builder interface {
	Build(key string, params report.Params) (*report.Report, error)
}

// Relocator moves a produced file to its final location and returns the
// location to record. A nil Relocator keeps the paths as they are.
type Relocator interface {
	Relocate(ctx context.Context, path string) (string, error)
}

// Runner executes jobs one at a time and records their state machine:
// pending -> processing -> processed | error.
type Runner struct {
	Store     JobStore
	Reports   Builder
	Relocator Relocator
	Logger    *logging.Logger
	Metrics   *metrics.Metrics

	now func() time.Time
}

func (r *Runner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

// Run processes job. The processing status is persisted before the report is
// resolved; on failure the job is saved in error with no results and the
// cause is returned.
func (r *Runner) Run(ctx context.Context, job *Job) error {
	if job.ID == 0 {
		return ErrNotSaved
	}
	if job.Status.Terminal() {
		return fmt.Errorf("%w: #%d is %s", ErrFinished, job.ID, job.Status)
	}
	start := r.clock()

	job.Status = StatusProcessing
	job.Results = ""
	if err := r.Store.SaveJob(ctx, job); err != nil {
		return fmt.Errorf("save processing status: %w", err)
	}
	r.Logger.Writef("[START] id=%d report=%s owner=%s", job.ID, job.Report, job.CreatedBy)

	paths, err := r.execute(ctx, job)
	if err != nil {
		job.Status = StatusError
		job.Results = ""
		if serr := r.Store.SaveJob(ctx, job); serr != nil {
			err = errors.Join(err, fmt.Errorf("save error status: %w", serr))
		}
		r.Logger.Writef("[FAIL] id=%d %v", job.ID, err)
		r.Metrics.JobFinished(string(StatusError), r.clock().Sub(start))
		return err
	}

	job.SetResults(paths)
	job.Status = StatusProcessed
	if err := r.Store.SaveJob(ctx, job); err != nil {
		r.Logger.Writef("[FAIL] id=%d save results: %v", job.ID, err)
		return fmt.Errorf("save results: %w", err)
	}
	r.Logger.Writef("[COMPLETE] id=%d fichiers=%d results=%s", job.ID, len(paths), job.Results)
	r.Metrics.JobFinished(string(StatusProcessed), r.clock().Sub(start))
	return nil
}

func (r *Runner) execute(ctx context.Context, job *Job) ([]string, error) {
	rep, err := r.Reports.Build(job.Report, job.Params)
	if err != nil {
		return nil, err
	}
	paths, err := rep.Process(ctx)
	if err != nil {
		return nil, err
	}
	if r.Relocator == nil {
		return paths, nil
	}
	out := make([]string, 0, len(paths))
	for i, p := range paths {
		moved, err := r.Relocator.Relocate(ctx, p)
		if err != nil {
			// les fichiers restants ne seront jamais référencés; ceux déjà
			// déplacés restent à leur destination et sont listés dans le log
			for _, rest := range paths[i:] {
				os.Remove(rest)
			}
			if len(out) > 0 {
				r.Logger.Writef("[ORPHAN] id=%d relocated=%s", job.ID, strings.Join(out, ResultsSeparator))
			}
			return nil, fmt.Errorf("relocate %s: %w", p, err)
		}
		out = append(out, moved)
	}
	return out, nil
}
