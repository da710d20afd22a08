package output

import (
	"bufio"
	"encoding/csv"
	"errors"
	"os"
	"strings"
)

// Delimited writes one line per row, values joined by Comma. With Quote the
// CSV quoting rules apply; without, values are joined as they are.
type Delimited struct {
	target
	Comma rune
	Quote bool

	f   *os.File
	w   *csv.Writer
	raw *bufio.Writer
}

// NewCSV returns a comma separated writer (.csv).
func NewCSV() *Delimited {
	return &Delimited{target: target{ext: "csv"}, Comma: ',', Quote: true}
}

// NewTSV returns a tab separated writer (.tsv).
func NewTSV() *Delimited {
	return &Delimited{target: target{ext: "tsv"}, Comma: '\t'}
}

func (d *Delimited) Open() error {
	if d.f != nil {
		return ErrAlreadyOpen
	}
	f, err := d.create()
	if err != nil {
		return err
	}
	d.f = f
	if d.Quote {
		d.w = csv.NewWriter(f)
		d.w.Comma = d.Comma
	} else {
		d.raw = bufio.NewWriter(f)
	}
	return nil
}

func (d *Delimited) Header(values []any) error { return d.write(values) }
func (d *Delimited) Row(values []any) error    { return d.write(values) }
func (d *Delimited) Footer(values []any) error { return d.write(values) }

func (d *Delimited) write(values []any) error {
	if d.f == nil {
		return ErrNotOpen
	}
	if d.w != nil {
		return d.w.Write(formatAll(values))
	}
	_, err := d.raw.WriteString(strings.Join(formatAll(values), string(d.Comma)) + "\n")
	return err
}

// Close flushes the buffered lines and closes the file.
func (d *Delimited) Close() error {
	if d.f == nil {
		return nil
	}
	var err error
	if d.w != nil {
		d.w.Flush()
		err = d.w.Error()
	} else {
		err = d.raw.Flush()
	}
	cerr := d.f.Close()
	d.f, d.w, d.raw = nil, nil, nil
	return errors.Join(err, cerr)
}
