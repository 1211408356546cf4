package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Read parses a whole file in the given format. The first row is the header.
func Read(r io.Reader, format Format, source string) (*Table, error) {
	switch format {
	case FormatCSV, FormatTSV:
		return ReadDelimited(r, format.delimiter(), source)
	case FormatXLSX:
		return ReadXLSX(r, source)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// ReadDelimited parses comma or tab separated text.
//
// Blank lines are skipped. Quotes must be well formed; a stray quote or a
// row with more fields than the header yields a ParseError.
func ReadDelimited(r io.Reader, comma rune, source string) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}

	cr := csv.NewReader(bytes.NewReader(cleanEncoding(data)))
	cr.Comma = comma
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		pe := &ParseError{Source: source, Err: err}
		var csvErr *csv.ParseError
		if errors.As(err, &csvErr) {
			pe.Line = csvErr.Line
			pe.Err = csvErr.Err
		}
		return nil, pe
	}
	if len(records) == 0 {
		return nil, &EmptyInputError{Source: source}
	}

	return New(source, records[0], records[1:])
}

// ReadXLSX parses the first worksheet of a workbook.
func ReadXLSX(r io.Reader, source string) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &EmptyInputError{Source: source}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}

	// GetRows keeps empty rows inside the used range; drop them the same way
	// the CSV reader skips blank lines.
	var records [][]string
	for _, row := range rows {
		if len(row) > 0 {
			records = append(records, row)
		}
	}
	if len(records) == 0 {
		return nil, &EmptyInputError{Source: source}
	}

	return New(source, records[0], records[1:])
}
