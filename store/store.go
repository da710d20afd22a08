// Package store persists jobs and schedules in a SQL database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"onmydesk/config"
	"onmydesk/report"
	"onmydesk/scheduler"
	"onmydesk/worker"
)

var ErrNotFound = errors.New("store: not found")

const timeLayout = "2006-01-02 15:04:05"

const (
	jobColumns      = "id, report, params, results, status, insert_date, update_date, created_by"
	scheduleColumns = "id, report, params, periodicity, created_by, insert_date, update_date"
)

// Store reads and writes the reports and schedulers tables.
type Store struct {
	db  *sql.DB
	d   dialect
	now func() time.Time
}

// Open connects to the configured database and creates the tables. The
// driver must be registered (package dataset registers the supported ones).
func Open(ctx context.Context, cfg config.Database) (*Store, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if cfg.Driver == "sqlite" || cfg.Driver == "sqlite3" {
		// un seul écrivain à la fois
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}
	s, err := New(ctx, db, cfg.Driver)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and runs the idempotent migrations.
func New(ctx context.Context, db *sql.DB, driver string) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, d: d, now: time.Now}
	for _, stmt := range d.schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) stamp() string {
	return s.now().UTC().Format(timeLayout)
}

// insert runs an INSERT and returns the new id.
func (s *Store) insert(ctx context.Context, query string, args ...any) (int64, error) {
	if s.d.returning {
		var id int64
		err := s.db.QueryRowContext(ctx, s.d.rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	res, err := s.db.ExecContext(ctx, s.d.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// SaveJob inserts a new job (ID 0, the id is set on return) or updates an
// existing one. update_date is refreshed on every save.
func (s *Store) SaveJob(ctx context.Context, j *worker.Job) error {
	params, err := encodeParams(j.Params)
	if err != nil {
		return err
	}
	if j.Status == "" {
		j.Status = worker.StatusPending
	}
	now := s.stamp()
	if j.ID == 0 {
		id, err := s.insert(ctx,
			`INSERT INTO reports (report, params, results, status, insert_date, update_date, created_by) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			j.Report, params, j.Results, string(j.Status), now, now, j.CreatedBy)
		if err != nil {
			return fmt.Errorf("insert job: %w", err)
		}
		j.ID = id
		j.InsertDate = parseTime(now)
		j.UpdateDate = j.InsertDate
		return nil
	}
	_, err = s.db.ExecContext(ctx, s.d.rebind(
		`UPDATE reports SET report = ?, params = ?, results = ?, status = ?, update_date = ?, created_by = ? WHERE id = ?`),
		j.Report, params, j.Results, string(j.Status), now, j.CreatedBy, j.ID)
	if err != nil {
		return fmt.Errorf("update job #%d: %w", j.ID, err)
	}
	j.UpdateDate = parseTime(now)
	return nil
}

func (s *Store) GetJob(ctx context.Context, id int64) (*worker.Job, error) {
	row := s.db.QueryRowContext(ctx, s.d.rebind(`SELECT `+jobColumns+` FROM reports WHERE id = ?`), id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: job #%d", ErrNotFound, id)
	}
	return j, err
}

// PendingJobs returns pending jobs by id. With ids only those are considered
// and no limit applies; otherwise at most limit jobs (0 = no limit).
func (s *Store) PendingJobs(ctx context.Context, ids []int64, limit int) ([]*worker.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM reports WHERE status = ?`
	args := []any{string(worker.StatusPending)}
	if len(ids) > 0 {
		cond, in := s.d.inInt64("id", ids)
		query += " AND " + cond
		args = append(args, in...)
		limit = 0
	}
	query += " ORDER BY id"
	if limit > 0 {
		query += " LIMIT " + strconv.Itoa(limit)
	}
	return s.queryJobs(ctx, query, args...)
}

// ListJobs returns the latest jobs, restricted to owner when not empty.
func (s *Store) ListJobs(ctx context.Context, owner string, limit int) ([]*worker.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM reports`
	var args []any
	if owner != "" {
		query += " WHERE created_by = ?"
		args = append(args, owner)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT " + strconv.Itoa(limit)
	}
	return s.queryJobs(ctx, query, args...)
}

func (s *Store) queryJobs(ctx context.Context, query string, args ...any) ([]*worker.Job, error) {
	rows, err := s.db.QueryContext(ctx, s.d.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*worker.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(sc scanner) (*worker.Job, error) {
	var (
		j                  worker.Job
		params, status     string
		inserted, modified string
	)
	if err := sc.Scan(&j.ID, &j.Report, &params, &j.Results, &status, &inserted, &modified, &j.CreatedBy); err != nil {
		return nil, err
	}
	p, err := decodeParams(params)
	if err != nil {
		return nil, fmt.Errorf("job #%d: %w", j.ID, err)
	}
	j.Params = p
	j.Status = worker.Status(status)
	j.InsertDate = parseTime(inserted)
	j.UpdateDate = parseTime(modified)
	return &j, nil
}

// SaveSchedule inserts or updates a schedule after checking its periodicity.
func (s *Store) SaveSchedule(ctx context.Context, sc *scheduler.Schedule) error {
	if err := sc.Periodicity.Validate(); err != nil {
		return err
	}
	params, err := encodeParams(sc.Params)
	if err != nil {
		return err
	}
	now := s.stamp()
	if sc.ID == 0 {
		id, err := s.insert(ctx,
			`INSERT INTO schedulers (report, params, periodicity, created_by, insert_date, update_date) VALUES (?, ?, ?, ?, ?, ?)`,
			sc.Report, params, string(sc.Periodicity), sc.CreatedBy, now, now)
		if err != nil {
			return fmt.Errorf("insert schedule: %w", err)
		}
		sc.ID = id
		sc.InsertDate = parseTime(now)
		sc.UpdateDate = sc.InsertDate
		return nil
	}
	_, err = s.db.ExecContext(ctx, s.d.rebind(
		`UPDATE schedulers SET report = ?, params = ?, periodicity = ?, created_by = ?, update_date = ? WHERE id = ?`),
		sc.Report, params, string(sc.Periodicity), sc.CreatedBy, now, sc.ID)
	if err != nil {
		return fmt.Errorf("update schedule #%d: %w", sc.ID, err)
	}
	sc.UpdateDate = parseTime(now)
	return nil
}

// SchedulesByPeriodicity returns the schedules tagged with any of ps, by id.
func (s *Store) SchedulesByPeriodicity(ctx context.Context, ps []scheduler.Periodicity) ([]scheduler.Schedule, error) {
	if len(ps) == 0 {
		return nil, nil
	}
	tags := make([]string, len(ps))
	for i, p := range ps {
		tags[i] = string(p)
	}
	cond, args := s.d.inString("periodicity", tags)
	return s.querySchedules(ctx, `SELECT `+scheduleColumns+` FROM schedulers WHERE `+cond+` ORDER BY id`, args...)
}

func (s *Store) ListSchedules(ctx context.Context) ([]scheduler.Schedule, error) {
	return s.querySchedules(ctx, `SELECT `+scheduleColumns+` FROM schedulers ORDER BY id`)
}

func (s *Store) querySchedules(ctx context.Context, query string, args ...any) ([]scheduler.Schedule, error) {
	rows, err := s.db.QueryContext(ctx, s.d.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []scheduler.Schedule
	for rows.Next() {
		var (
			sc                  scheduler.Schedule
			params, periodicity string
			inserted, modified  string
		)
		if err := rows.Scan(&sc.ID, &sc.Report, &params, &periodicity, &sc.CreatedBy, &inserted, &modified); err != nil {
			return nil, err
		}
		p, err := decodeParams(params)
		if err != nil {
			return nil, fmt.Errorf("schedule #%d: %w", sc.ID, err)
		}
		sc.Params = p
		sc.Periodicity = scheduler.Periodicity(periodicity)
		sc.InsertDate = parseTime(inserted)
		sc.UpdateDate = parseTime(modified)
		out = append(out, sc)
	}
	return out, rows.Err()
}

func encodeParams(p report.Params) (string, error) {
	if p == nil {
		p = report.Params{}
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode params: %w", err)
	}
	return string(b), nil
}

func decodeParams(s string) (report.Params, error) {
	p := report.Params{}
	if s == "" {
		return p, nil
	}
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	return p, nil
}

func parseTime(s string) time.Time {
	t, _ := time.ParseInLocation(timeLayout, s, time.UTC)
	return t
}
