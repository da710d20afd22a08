package dataset

import (
	"context"
	"database/sql"
	"iter"
)

// SQLDataset runs a raw query on a named connection. Query and Params are
// handed to the driver as a parameterized statement, never interpolated:
//
//	NewSQL(pool, "SELECT * FROM users WHERE age > ?", []any{18}, "")
type SQLDataset struct {
	Query  string
	Params []any
	Alias  string

	conns    Connections
	conn     *sql.Conn
	iterated bool
}

func NewSQL(conns Connections, query string, params []any, alias string) *SQLDataset {
	return &SQLDataset{Query: query, Params: params, Alias: alias, conns: conns}
}

// Open reserves a connection from the alias' pool for the whole session.
func (d *SQLDataset) Open(ctx context.Context) error {
	if d.conn != nil {
		return ErrAlreadyOpen
	}
	db, err := d.conns.DB(d.Alias)
	if err != nil {
		return err
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	d.conn = conn
	d.iterated = false
	return nil
}

// Iterate executes the query and fetches rows one at a time.
func (d *SQLDataset) Iterate(ctx context.Context) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		if d.conn == nil {
			yield(Row{}, ErrNotOpen)
			return
		}
		if d.iterated {
			yield(Row{}, ErrAlreadyIterated)
			return
		}
		d.iterated = true

		rows, err := d.conn.QueryContext(ctx, d.Query, d.Params...)
		if err != nil {
			yield(Row{}, err)
			return
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			yield(Row{}, err)
			return
		}
		for rows.Next() {
			values := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				yield(Row{}, err)
				return
			}
			for i, v := range values {
				// drivers reuse their []byte buffers between rows
				if b, ok := v.([]byte); ok {
					values[i] = string(b)
				}
			}
			if !yield(Row{Columns: cols, Values: values}, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Row{}, err)
		}
	}
}

// Close gives the connection back to the pool. Safe to call twice.
func (d *SQLDataset) Close() error {
	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}
