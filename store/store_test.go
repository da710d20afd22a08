package store

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"
	"time"

	"onmydesk/report"
	"onmydesk/scheduler"
	"onmydesk/worker"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	s, err := New(context.Background(), db, "sqlite")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	s.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s
}

func TestSaveAndGetJob(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	j := worker.NewJob("sales.daily", report.Params{"day": "D-1"}, "alice")

	if err := s.SaveJob(ctx, j); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}
	if j.ID == 0 {
		t.Fatal("Expected id set on insert")
	}
	got, err := s.GetJob(ctx, j.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.Report != "sales.daily" || got.Status != worker.StatusPending || got.CreatedBy != "alice" {
		t.Errorf("Unexpected job %+v", got)
	}
	if !reflect.DeepEqual(got.Params, report.Params{"day": "D-1"}) {
		t.Errorf("Expected params round trip, got %v", got.Params)
	}
	if !got.InsertDate.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("Unexpected insert date %v", got.InsertDate)
	}

	s.now = func() time.Time { return time.Date(2024, 1, 2, 4, 0, 0, 0, time.UTC) }
	j.Status = worker.StatusProcessed
	j.SetResults([]string{"/tmp/a.tsv", "/tmp/b.xlsx"})
	if err := s.SaveJob(ctx, j); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	got, _ = s.GetJob(ctx, j.ID)
	if got.Status != worker.StatusProcessed || len(got.ResultsList()) != 2 {
		t.Errorf("Expected processed with 2 results, got %+v", got)
	}
	if got.UpdateDate.Hour() != 4 || got.InsertDate.Hour() != 3 {
		t.Errorf("Expected only update_date refreshed, got %v / %v", got.InsertDate, got.UpdateDate)
	}

	if _, err := s.GetJob(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func seedJobs(t *testing.T, s *Store, n int) []*worker.Job {
	t.Helper()
	var jobs []*worker.Job
	for i := 0; i < n; i++ {
		j := worker.NewJob("r", nil, "bob")
		if err := s.SaveJob(context.Background(), j); err != nil {
			t.Fatal(err)
		}
		jobs = append(jobs, j)
	}
	return jobs
}

func TestPendingJobsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	jobs := seedJobs(t, s, 12)
	jobs[0].Status = worker.StatusError
	s.SaveJob(ctx, jobs[0])

	got, err := s.PendingJobs(ctx, nil, 10)
	if err != nil {
		t.Fatalf("PendingJobs failed: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("Expected 10 jobs, got %d", len(got))
	}
	if got[0].ID != jobs[1].ID {
		t.Errorf("Expected oldest pending first, got #%d", got[0].ID)
	}
	all, _ := s.PendingJobs(ctx, nil, 0)
	if len(all) != 11 {
		t.Errorf("Expected 11 pending jobs without limit, got %d", len(all))
	}
}

func TestPendingJobsByIds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	jobs := seedJobs(t, s, 15)
	jobs[3].Status = worker.StatusProcessing
	s.SaveJob(ctx, jobs[3])

	var ids []int64
	for _, j := range jobs[2:14] {
		ids = append(ids, j.ID)
	}
	got, err := s.PendingJobs(ctx, ids, 10)
	if err != nil {
		t.Fatalf("PendingJobs failed: %v", err)
	}
	if len(got) != 11 {
		t.Errorf("Expected every pending id (11) regardless of the cap, got %d", len(got))
	}
	for _, j := range got {
		if j.ID == jobs[3].ID {
			t.Error("Expected non-pending job excluded")
		}
	}
}

func TestListJobsByOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedJobs(t, s, 2)
	s.SaveJob(ctx, worker.NewJob("r", nil, "alice"))

	mine, err := s.ListJobs(ctx, "alice", 0)
	if err != nil || len(mine) != 1 {
		t.Errorf("Expected one job for alice, got %d (%v)", len(mine), err)
	}
	all, _ := s.ListJobs(ctx, "", 2)
	if len(all) != 2 || all[0].CreatedBy != "alice" {
		t.Errorf("Expected newest first with limit, got %+v", all)
	}
}

func TestSchedules(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, sc := range []*scheduler.Schedule{
		{Report: "a", Periodicity: scheduler.Daily},
		{Report: "b", Periodicity: scheduler.Mondays, Params: report.Params{"region": "north"}, CreatedBy: "alice"},
		{Report: "c", Periodicity: scheduler.Weekends},
	} {
		if err := s.SaveSchedule(ctx, sc); err != nil {
			t.Fatalf("SaveSchedule failed: %v", err)
		}
	}
	if err := s.SaveSchedule(ctx, &scheduler.Schedule{Report: "d", Periodicity: "monthly"}); !errors.Is(err, scheduler.ErrInvalidPeriodicity) {
		t.Errorf("Expected ErrInvalidPeriodicity, got %v", err)
	}

	monday := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := s.SchedulesByPeriodicity(ctx, scheduler.Due(monday))
	if err != nil {
		t.Fatalf("SchedulesByPeriodicity failed: %v", err)
	}
	if len(got) != 2 || got[0].Report != "a" || got[1].Report != "b" {
		t.Fatalf("Expected a and b on monday, got %+v", got)
	}
	if got[1].Params["region"] != "north" || got[1].CreatedBy != "alice" {
		t.Errorf("Unexpected schedule %+v", got[1])
	}

	all, _ := s.ListSchedules(ctx)
	if len(all) != 3 {
		t.Errorf("Expected 3 schedules, got %d", len(all))
	}
}

func TestSchedulerRunsThroughStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.SaveSchedule(ctx, &scheduler.Schedule{Report: "a", Periodicity: scheduler.Daily, CreatedBy: "alice"})

	var _ scheduler.Store = s
	var _ worker.JobStore = s
	var _ worker.PendingSource = s

	j := worker.NewJob("a", report.Params{report.ReferenceDateParam: "2024-01-01"}, "alice")
	if err := s.SaveJob(ctx, j); err != nil {
		t.Fatal(err)
	}
	pending, _ := s.PendingJobs(ctx, []int64{j.ID}, 0)
	if len(pending) != 1 || pending[0].Params[report.ReferenceDateParam] != "2024-01-01" {
		t.Errorf("Expected the scheduled job pending with its reference date, got %+v", pending)
	}
}

func TestDialects(t *testing.T) {
	pg, _ := dialectFor("pgx")
	if got := pg.rebind("SELECT * FROM reports WHERE status = ? AND id = ANY(?)"); got != "SELECT * FROM reports WHERE status = $1 AND id = ANY($2)" {
		t.Errorf("Unexpected rebind %q", got)
	}
	my, _ := dialectFor("mysql")
	cond, args := my.inInt64("id", []int64{1, 2, 3})
	if cond != "id IN (?,?,?)" || len(args) != 3 {
		t.Errorf("Unexpected IN condition %q %v", cond, args)
	}
	pq, _ := dialectFor("postgres")
	if cond, args := pq.inString("periodicity", []string{"daily"}); cond != "periodicity = ANY(?)" || len(args) != 1 {
		t.Errorf("Unexpected postgres condition %q %v", cond, args)
	}
	if _, err := dialectFor("oracle"); err == nil {
		t.Error("Expected error for unsupported driver")
	}
}
