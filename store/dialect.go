package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// dialect covers what differs between the supported drivers: id columns,
// placeholders, how inserted ids come back and how lists are bound.
type dialect struct {
	driver    string
	idColumn  string
	dollar    bool // $1, $2... instead of ?
	returning bool // INSERT ... RETURNING id
	indexes   bool // CREATE INDEX IF NOT EXISTS
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return dialect{driver: driver, idColumn: "INTEGER PRIMARY KEY AUTOINCREMENT", indexes: true}, nil
	case "mysql":
		return dialect{driver: driver, idColumn: "BIGINT AUTO_INCREMENT PRIMARY KEY"}, nil
	case "postgres", "pgx":
		return dialect{driver: driver, idColumn: "BIGSERIAL PRIMARY KEY", dollar: true, returning: true, indexes: true}, nil
	}
	return dialect{}, fmt.Errorf("store: unsupported driver %q", driver)
}

// rebind rewrites ? placeholders for drivers using numbered ones.
func (d dialect) rebind(query string) string {
	if !d.dollar {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// inInt64 returns a "column IN (...)" condition and its arguments. Postgres
// drivers bind the whole list as one array parameter.
func (d dialect) inInt64(column string, values []int64) (string, []any) {
	switch d.driver {
	case "postgres":
		return column + " = ANY(?)", []any{pq.Array(values)}
	case "pgx":
		return column + " = ANY(?)", []any{values}
	}
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return column + " IN (" + placeholders(len(values)) + ")", args
}

func (d dialect) inString(column string, values []string) (string, []any) {
	switch d.driver {
	case "postgres":
		return column + " = ANY(?)", []any{pq.Array(values)}
	case "pgx":
		return column + " = ANY(?)", []any{values}
	}
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return column + " IN (" + placeholders(len(values)) + ")", args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func (d dialect) schema() []string {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reports (
	id ` + d.idColumn + `,
	report VARCHAR(255) NOT NULL,
	params TEXT NOT NULL,
	results TEXT NOT NULL,
	status VARCHAR(20) NOT NULL,
	insert_date VARCHAR(32) NOT NULL,
	update_date VARCHAR(32) NOT NULL,
	created_by VARCHAR(255) NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS schedulers (
	id ` + d.idColumn + `,
	report VARCHAR(255) NOT NULL,
	params TEXT NOT NULL,
	periodicity VARCHAR(20) NOT NULL,
	created_by VARCHAR(255) NOT NULL,
	insert_date VARCHAR(32) NOT NULL,
	update_date VARCHAR(32) NOT NULL
)`,
	}
	if d.indexes {
		stmts = append(stmts,
			`CREATE INDEX IF NOT EXISTS reports_status_idx ON reports (status)`,
			`CREATE INDEX IF NOT EXISTS schedulers_periodicity_idx ON schedulers (periodicity)`,
		)
	}
	return stmts
}
