// Package dataset wraps data sources behind a lazy, forward-only row sequence.
package dataset

import (
	"context"
	"errors"
	"iter"
)

var (
	ErrNotOpen         = errors.New("dataset: not open")
	ErrAlreadyOpen     = errors.New("dataset: already open")
	ErrAlreadyIterated = errors.New("dataset: rows already consumed in this session")
)

// Dataset is a row source bound to a query. Iterate is only valid between
// Open and Close, and yields each row once per session.
type Dataset interface {
	Open(ctx context.Context) error
	Iterate(ctx context.Context) iter.Seq2[Row, error]
	Close() error
}

// Static is an in-memory dataset, used for fixed content and in tests.
type Static struct {
	rows     []Row
	open     bool
	iterated bool
}

func NewStatic(rows ...Row) *Static {
	return &Static{rows: rows}
}

func (s *Static) Open(ctx context.Context) error {
	if s.open {
		return ErrAlreadyOpen
	}
	s.open, s.iterated = true, false
	return nil
}

func (s *Static) Iterate(ctx context.Context) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		if !s.open {
			yield(Row{}, ErrNotOpen)
			return
		}
		if s.iterated {
			yield(Row{}, ErrAlreadyIterated)
			return
		}
		s.iterated = true
		for _, r := range s.rows {
			if err := ctx.Err(); err != nil {
				yield(Row{}, err)
				return
			}
			if !yield(r.Clone(), nil) {
				return
			}
		}
	}
}

func (s *Static) Close() error {
	s.open = false
	return nil
}
