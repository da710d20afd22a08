// Package output serializes a header/rows/footer stream into report files.
package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"onmydesk/utils"
)

var (
	ErrNotOpen     = errors.New("output: writer not open")
	ErrAlreadyOpen = errors.New("output: writer already open")
)

// Writer materializes one file. Open creates <dir>/<32 hex>.<ext> and sets
// Path; Close finalizes the file and must be called even after a failed emit.
type Writer interface {
	Open() error
	Header(values []any) error
	Row(values []any) error
	Footer(values []any) error
	Close() error
	Path() string
}

// Namer is implemented by writers that can use the report name (sheet title).
type Namer interface {
	SetName(name string)
}

// New returns the writer registered for a format name: csv, tsv or xlsx.
func New(format, dir string) (Writer, error) {
	switch format {
	case "csv":
		w := NewCSV()
		w.Dir = dir
		return w, nil
	case "tsv":
		w := NewTSV()
		w.Dir = dir
		return w, nil
	case "xlsx":
		w := NewXLSX()
		w.Dir = dir
		return w, nil
	}
	return nil, fmt.Errorf("output: unknown format %q", format)
}

// target holds the file naming shared by all writers.
type target struct {
	// Dir defaults to os.TempDir().
	Dir string
	// NewID defaults to utils.NewFileID.
	NewID func() string

	ext  string
	path string
}

func (t *target) Path() string { return t.path }

// create generates a fresh file name and creates the file exclusively.
func (t *target) create() (*os.File, error) {
	dir := t.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	newID := t.NewID
	if newID == nil {
		newID = utils.NewFileID
	}
	path := filepath.Join(dir, newID()+"."+t.ext)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	t.path = path
	return f, nil
}
