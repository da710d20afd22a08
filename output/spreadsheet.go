package output

import (
	"errors"
	"math"
	"os"
	"unicode/utf8"

	"github.com/tealeg/xlsx/v3"
)

// MinColumnWidth is Excel's default column width, in characters.
const MinColumnWidth = 8.43

const maxSheetName = 31

// fallbackSheetName is used when the report name is not a valid sheet title.
var fallbackSheetName = "Report"

// Spreadsheet writes an .xlsx workbook with a single sheet. Cells keep their
// native types; column widths follow the longest rendered value.
type Spreadsheet struct {
	target
	SheetName string

	file      *xlsx.File
	sheet     *xlsx.Sheet
	widths    []float64
	hasHeader bool
	rows      int

	headerStyle *xlsx.Style
	footerStyle *xlsx.Style
}

// NewXLSX returns a spreadsheet writer (.xlsx).
func NewXLSX() *Spreadsheet {
	return &Spreadsheet{target: target{ext: "xlsx"}, SheetName: "Report"}
}

func (s *Spreadsheet) SetName(name string) {
	if name == "" {
		return
	}
	if utf8.RuneCountInString(name) > maxSheetName {
		name = string([]rune(name)[:maxSheetName])
	}
	s.SheetName = name
}

func (s *Spreadsheet) Open() error {
	if s.file != nil {
		return ErrAlreadyOpen
	}
	f, err := s.create()
	if err != nil {
		return err
	}
	// the workbook is written on Close, the empty file reserves the name
	if err := f.Close(); err != nil {
		os.Remove(s.path)
		return err
	}
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(s.SheetName)
	if err != nil {
		// invalid characters in the report name
		sheet, err = file.AddSheet(fallbackSheetName)
		if err != nil {
			os.Remove(s.path)
			return err
		}
	}
	s.file, s.sheet = file, sheet
	s.widths, s.rows, s.hasHeader = nil, 0, false
	s.headerStyle = boldStyle("FFD9D9D9")
	s.footerStyle = boldStyle("FFDDEBF7")
	return nil
}

func boldStyle(fill string) *xlsx.Style {
	style := xlsx.NewStyle()
	style.Font.Bold = true
	style.Fill = *xlsx.NewFill("solid", fill, fill)
	style.ApplyFont = true
	style.ApplyFill = true
	return style
}

// Header writes a styled row; when it is the first row it gets frozen on Close.
func (s *Spreadsheet) Header(values []any) error {
	if s.sheet == nil {
		return ErrNotOpen
	}
	if s.rows == 0 {
		s.hasHeader = true
	}
	s.addRow(values, s.headerStyle)
	return nil
}

func (s *Spreadsheet) Row(values []any) error {
	if s.sheet == nil {
		return ErrNotOpen
	}
	s.addRow(values, nil)
	return nil
}

func (s *Spreadsheet) Footer(values []any) error {
	if s.sheet == nil {
		return ErrNotOpen
	}
	s.addRow(values, s.footerStyle)
	return nil
}

func (s *Spreadsheet) addRow(values []any, style *xlsx.Style) {
	row := s.sheet.AddRow()
	for i, v := range values {
		cell := row.AddCell()
		setCell(cell, v)
		if style != nil {
			cell.SetStyle(style)
		}
		s.measure(i, FormatValue(v))
	}
	s.rows++
}

func setCell(cell *xlsx.Cell, v any) {
	switch n := v.(type) {
	case bool:
		cell.SetBool(n)
	case uint:
		setUint(cell, uint64(n))
	case uint8:
		cell.SetInt(int(n))
	case uint16:
		cell.SetInt(int(n))
	case uint32:
		cell.SetInt64(int64(n))
	case uint64:
		setUint(cell, n)
	default:
		cell.SetValue(v)
	}
}

func setUint(cell *xlsx.Cell, n uint64) {
	if n > math.MaxInt64 {
		cell.SetString(FormatValue(n))
		return
	}
	cell.SetInt64(int64(n))
}

func (s *Spreadsheet) measure(col int, text string) {
	for len(s.widths) <= col {
		s.widths = append(s.widths, MinColumnWidth)
	}
	w := float64(utf8.RuneCountInString(text)) + 1
	if w > s.widths[col] {
		s.widths[col] = w
	}
}

// ColumnWidths returns the widths computed so far, one per column index.
func (s *Spreadsheet) ColumnWidths() []float64 {
	out := make([]float64, len(s.widths))
	copy(out, s.widths)
	return out
}

// Close applies column widths, freezes the header row if one was written
// and saves the workbook.
func (s *Spreadsheet) Close() error {
	if s.file == nil {
		return nil
	}
	file, sheet := s.file, s.sheet
	s.file, s.sheet = nil, nil

	for i, w := range s.widths {
		sheet.SetColWidth(i+1, i+1, w)
	}
	if s.hasHeader {
		sheet.SheetViews = []xlsx.SheetView{{
			Pane: &xlsx.Pane{
				XSplit:      0,
				YSplit:      1,
				TopLeftCell: "A2",
				ActivePane:  "bottomLeft",
				State:       "frozen",
			},
		}}
	}
	err := file.Save(s.path)
	if err != nil {
		return errors.Join(err, os.Remove(s.path))
	}
	return nil
}
