// Package report binds a dataset to its output writers and drives a run.
package report

import (
	"context"
	"errors"
	"fmt"
	"os"

	"onmydesk/dataset"
	"onmydesk/output"
)

var (
	ErrNoDataset = errors.New("report: no dataset")
	ErrNoOutputs = errors.New("report: no outputs")
)

// RowCleaner transforms a row before it reaches the writers.
type RowCleaner func(dataset.Row) (dataset.Row, error)

func identity(row dataset.Row) (dataset.Row, error) { return row, nil }

// Report is one runnable report: a dataset, its writers, a static header and
// footer, and a row cleaner (identity when nil).
type Report struct {
	Name       string
	Dataset    dataset.Dataset
	Outputs    []output.Writer
	Header     []any
	Footer     []any
	RowCleaner RowCleaner

	// OutputFilepaths is set by a successful Process.
	OutputFilepaths []string
}

// Process runs the whole dataset through every writer and returns the produced
// files in writer order. Each call re-runs the query and creates new files.
// On failure every opened resource is released and partial files are removed.
func (r *Report) Process(ctx context.Context) (paths []string, err error) {
	if r.Dataset == nil {
		return nil, ErrNoDataset
	}
	if len(r.Outputs) == 0 {
		return nil, ErrNoOutputs
	}
	if r.Name != "" {
		for _, w := range r.Outputs {
			if n, ok := w.(output.Namer); ok {
				n.SetName(r.Name)
			}
		}
	}

	if err := r.Dataset.Open(ctx); err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() {
		if cerr := r.Dataset.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close dataset: %w", cerr))
		}
		if err != nil {
			for _, p := range paths {
				os.Remove(p)
			}
			paths = nil
			return
		}
		r.OutputFilepaths = paths
	}()

	return r.write(ctx)
}

// write opens all writers, streams header, rows and footer, and always closes
// what it opened. paths lists the files of every opened writer, even on error.
func (r *Report) write(ctx context.Context) (paths []string, err error) {
	opened := make([]output.Writer, 0, len(r.Outputs))
	defer func() {
		for _, w := range opened {
			if cerr := w.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("close %s: %w", w.Path(), cerr))
			}
			paths = append(paths, w.Path())
		}
	}()

	for _, w := range r.Outputs {
		if err := w.Open(); err != nil {
			return nil, fmt.Errorf("open output: %w", err)
		}
		opened = append(opened, w)
	}

	if len(r.Header) > 0 {
		for _, w := range opened {
			if err := w.Header(r.Header); err != nil {
				return nil, fmt.Errorf("write header: %w", err)
			}
		}
	}

	clean := r.RowCleaner
	if clean == nil {
		clean = identity
	}
	for row, err := range r.Dataset.Iterate(ctx) {
		if err != nil {
			return nil, err
		}
		row, err = clean(row)
		if err != nil {
			return nil, fmt.Errorf("clean row: %w", err)
		}
		for _, w := range opened {
			if err := w.Row(row.Values); err != nil {
				return nil, fmt.Errorf("write row: %w", err)
			}
		}
	}

	if len(r.Footer) > 0 {
		for _, w := range opened {
			if err := w.Footer(r.Footer); err != nil {
				return nil, fmt.Errorf("write footer: %w", err)
			}
		}
	}
	return nil, nil
}
