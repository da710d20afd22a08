package scheduler

import (
	"context"
	"errors"
	"time"

	"onmydesk/config"
	"onmydesk/lock"
	"onmydesk/logging"
	"onmydesk/metrics"
	"onmydesk/report"
	"onmydesk/worker"
)

// Schedule is a recurring report definition.
type Schedule struct {
	ID          int64
	Report      string
	Params      report.Params
	Periodicity Periodicity
	CreatedBy   string
	InsertDate  time.Time
	UpdateDate  time.Time
}

// Store reads schedules and persists the jobs they create.
type Store interface {
	SchedulesByPeriodicity(ctx context.Context, periodicities []Periodicity) ([]Schedule, error)
	SaveJob(ctx context.Context, job *worker.Job) error
}

// JobRunner executes a saved job (worker.Runner).
type JobRunner interface {
	Run(ctx context.Context, job *worker.Job) error
}

// Summary counts the outcome of one scheduler run.
type Summary struct {
	Found     int
	Processed int
	Failed    int
}

// Scheduler creates and runs the jobs of the schedules due on a date, under
// its own lock file.
type Scheduler struct {
	Store       Store
	Runner      JobRunner
	LockPath    string
	LockTimeout time.Duration
	Logger      *logging.Logger
	Metrics     *metrics.Metrics
}

// DueToday returns the schedules whose periodicity is due on ref.
func (s *Scheduler) DueToday(ctx context.Context, ref time.Time) ([]Schedule, error) {
	return s.Store.SchedulesByPeriodicity(ctx, Due(ref))
}

// Run processes the schedules due on ref. Each one gets a new job carrying
// reference_date=ref, run right away. Failures are logged per schedule.
func (s *Scheduler) Run(ctx context.Context, ref time.Time) (Summary, error) {
	timeout := s.LockTimeout
	if timeout <= 0 {
		timeout = config.DefaultLockTimeout
	}
	release, err := lock.Acquire(ctx, s.LockPath, timeout)
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			s.Metrics.LockTimeout("scheduler")
		}
		return Summary{}, err
	}
	defer release()

	s.Logger.Write("Starting scheduler process")
	s.Logger.Writef("Using date %s as reference to get schedulers", ref.Format(report.DateLayout))

	items, err := s.DueToday(ctx, ref)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Found: len(items)}
	s.Logger.Writef("Found %d schedulers to process", len(items))

	for i, sc := range items {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		s.Logger.Writef("Processing scheduler #%d - %d of %d", sc.ID, i+1, len(items))
		if err := s.process(ctx, sc, ref); err != nil {
			sum.Failed++
			s.Logger.Writef("Error processing scheduler #%d: %v", sc.ID, err)
			continue
		}
		sum.Processed++
		s.Logger.Writef("Scheduler #%d processed", sc.ID)
	}
	s.Metrics.BatchDone("scheduler", time.Now())
	return sum, nil
}

func (s *Scheduler) process(ctx context.Context, sc Schedule, ref time.Time) error {
	params := report.Params{}
	for k, v := range sc.Params {
		params[k] = v
	}
	params[report.ReferenceDateParam] = ref.Format(report.DateLayout)

	job := worker.NewJob(sc.Report, params, sc.CreatedBy)
	if err := s.Store.SaveJob(ctx, job); err != nil {
		return err
	}
	return s.Runner.Run(ctx, job)
}
