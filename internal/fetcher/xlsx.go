// Package fetcher downloads season workbooks and reads their sheets.
package fetcher

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// SheetOptions selects which worksheet to read.
type SheetOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// Sheet is a worksheet read as text. Header is the first row; Rows holds the rest.
// Rows may be shorter than Header when trailing cells are blank.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// ReadSheet opens an XLSX workbook and returns the selected sheet's cells as strings.
func ReadSheet(path string, opts SheetOptions) (*Sheet, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open %s", path)
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	out := &Sheet{Name: sheet.Name}
	for i, row := range sheet.Rows {
		if row == nil {
			continue
		}
		cells := rowToStrings(row)
		if i == 0 {
			out.Header = cells
			continue
		}
		if blankRow(cells) {
			continue
		}
		out.Rows = append(out.Rows, cells)
	}

	if out.Header == nil {
		return nil, eris.Errorf("xlsx: sheet %q has no header row", sheet.Name)
	}

	return out, nil
}

func getSheet(f *xlsx.File, opts SheetOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex < 0 || opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		if cell == nil {
			continue
		}
		cells[j] = cellText(cell)
	}
	return cells
}

// cellText returns the stored value of a cell. Numeric cells are read raw so
// that a display format such as "0.00" cannot round coordinates or counts.
func cellText(cell *xlsx.Cell) string {
	if cell.Type() != xlsx.CellTypeNumeric {
		return cell.String()
	}
	v, err := cell.Float()
	if err != nil {
		return cell.Value
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
