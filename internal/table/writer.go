package table

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Write encodes t in the given format, header first.
func Write(w io.Writer, t *Table, format Format) error {
	switch format {
	case FormatCSV, FormatTSV:
		return WriteDelimited(w, t, format.delimiter())
	case FormatXLSX:
		return WriteXLSX(w, t)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// WriteDelimited writes comma or tab separated text. Missing cells are
// written as empty fields.
func WriteDelimited(w io.Writer, t *Table, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma

	if err := cw.Write(t.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Records()); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// WriteXLSX writes a single-sheet workbook. Numeric cells are stored as
// numbers and missing cells are left blank.
func WriteXLSX(w io.Writer, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	header := make([]interface{}, t.NumCols())
	for i, name := range t.Names() {
		header[i] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for r := 0; r < t.NumRows(); r++ {
		row := make([]interface{}, t.NumCols())
		for c, col := range t.Columns {
			cell := col.Cells[r]
			switch {
			case cell.Missing:
				row[c] = nil
			case col.Kind == KindNumeric:
				row[c] = cell.Num
			default:
				row[c] = cell.Text
			}
		}
		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return fmt.Errorf("row %d: %w", r+2, err)
		}
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			return fmt.Errorf("write row %d: %w", r+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
