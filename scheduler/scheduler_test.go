package scheduler

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"onmydesk/lock"
	"onmydesk/logging"
	"onmydesk/report"
	"onmydesk/worker"
)

type fakeStore struct {
	schedules []Schedule
	saved     []*worker.Job
	nextID    int64
}

func (f *fakeStore) SchedulesByPeriodicity(ctx context.Context, ps []Periodicity) ([]Schedule, error) {
	due := map[Periodicity]bool{}
	for _, p := range ps {
		due[p] = true
	}
	var out []Schedule
	for _, s := range f.schedules {
		if due[s.Periodicity] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) SaveJob(ctx context.Context, j *worker.Job) error {
	if j.ID == 0 {
		f.nextID++
		j.ID = f.nextID
		f.saved = append(f.saved, j)
	}
	return nil
}

type fakeRunner struct {
	ran  []*worker.Job
	fail map[string]bool
}

func (f *fakeRunner) Run(ctx context.Context, j *worker.Job) error {
	f.ran = append(f.ran, j)
	if f.fail[j.Report] {
		return errors.New("boom")
	}
	return nil
}

var (
	monday   = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	saturday = time.Date(2024, 1, 6, 8, 0, 0, 0, time.UTC)
)

func sampleSchedules() []Schedule {
	return []Schedule{
		{ID: 1, Report: "sales.daily", Periodicity: Daily},
		{ID: 2, Report: "sales.weekly", Periodicity: Mondays, CreatedBy: "alice", Params: report.Params{"region": "north"}},
		{ID: 3, Report: "ops.weekend", Periodicity: Weekends},
		{ID: 4, Report: "ops.weekdays", Periodicity: Weekdays},
	}
}

func ids(items []Schedule) []int64 {
	var out []int64
	for _, s := range items {
		out = append(out, s.ID)
	}
	return out
}

func TestDueToday(t *testing.T) {
	s := &Scheduler{Store: &fakeStore{schedules: sampleSchedules()}}
	tests := []struct {
		ref  time.Time
		want []int64
	}{
		{monday, []int64{1, 2, 4}},
		{monday.AddDate(0, 0, 1), []int64{1, 4}},
		{saturday, []int64{1, 3}},
		{saturday.AddDate(0, 0, 1), []int64{1, 3}},
	}
	for _, tt := range tests {
		got, err := s.DueToday(context.Background(), tt.ref)
		if err != nil {
			t.Fatalf("DueToday failed: %v", err)
		}
		if g := ids(got); len(g) != len(tt.want) || !equalIDs(g, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.ref.Weekday(), tt.want, g)
		}
	}
}

func equalIDs(a, b []int64) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMondayOnlyScheduleDueOnlyOnMonday(t *testing.T) {
	for d := 0; d < 7; d++ {
		ref := monday.AddDate(0, 0, d)
		due := false
		for _, p := range Due(ref) {
			if p == Mondays {
				due = true
			}
		}
		if due != (ref.Weekday() == time.Monday) {
			t.Errorf("%s: mondays due=%v", ref.Weekday(), due)
		}
	}
}

func TestEveryWeekdayHasDaily(t *testing.T) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		ps := PeriodicitiesByWeekday[wd]
		if len(ps) == 0 || ps[0] != Daily {
			t.Errorf("%s: expected daily first, got %v", wd, ps)
		}
	}
}

func TestParsePeriodicity(t *testing.T) {
	if p, err := ParsePeriodicity("fridays"); err != nil || p != Fridays {
		t.Errorf("Expected fridays, got %q (%v)", p, err)
	}
	if _, err := ParsePeriodicity("monthly"); !errors.Is(err, ErrInvalidPeriodicity) {
		t.Errorf("Expected ErrInvalidPeriodicity, got %v", err)
	}
	if got := len(Periodicities()); got != 10 {
		t.Errorf("Expected 10 periodicities, got %d", got)
	}
}

func TestRunCreatesAndRunsJobs(t *testing.T) {
	var buf bytes.Buffer
	store := &fakeStore{schedules: sampleSchedules()}
	runner := &fakeRunner{fail: map[string]bool{"sales.daily": true}}
	s := &Scheduler{
		Store:       store,
		Runner:      runner,
		LockPath:    filepath.Join(t.TempDir(), "scheduler.lock"),
		LockTimeout: time.Second,
		Logger:      logging.New(&buf),
	}

	sum, err := s.Run(context.Background(), monday)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sum != (Summary{Found: 3, Processed: 2, Failed: 1}) {
		t.Errorf("Unexpected summary %+v", sum)
	}
	if len(runner.ran) != 3 {
		t.Fatalf("Expected 3 jobs run, got %d", len(runner.ran))
	}
	weekly := runner.ran[1]
	if weekly.Report != "sales.weekly" || weekly.CreatedBy != "alice" || weekly.Status != worker.StatusPending || weekly.ID == 0 {
		t.Errorf("Unexpected job %+v", weekly)
	}
	if weekly.Params["region"] != "north" || weekly.Params[report.ReferenceDateParam] != "2024-01-01" {
		t.Errorf("Expected schedule params plus reference date, got %v", weekly.Params)
	}
	if _, ok := store.schedules[1].Params[report.ReferenceDateParam]; ok {
		t.Error("Expected schedule params left untouched")
	}
	out := buf.String()
	for _, want := range []string{
		"Using date 2024-01-01 as reference",
		"Found 3 schedulers to process",
		"Error processing scheduler #1: boom",
		"Scheduler #2 processed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestRunSkipsWhenLockHeld(t *testing.T) {
	store := &fakeStore{schedules: sampleSchedules()}
	s := &Scheduler{
		Store:       store,
		Runner:      &fakeRunner{},
		LockPath:    filepath.Join(t.TempDir(), "scheduler.lock"),
		LockTimeout: 200 * time.Millisecond,
	}
	release, err := lock.Acquire(context.Background(), s.LockPath, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	if _, err := s.Run(context.Background(), monday); !errors.Is(err, lock.ErrTimeout) {
		t.Fatalf("Expected lock.ErrTimeout, got %v", err)
	}
	if len(store.saved) != 0 {
		t.Errorf("Expected no job created, got %d", len(store.saved))
	}
}
