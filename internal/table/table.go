// Package table holds the in-memory tabular model used by the cleaning
// pipeline, along with readers and writers for delimited text and XLSX
// workbooks.
//
// Every cell carries an explicit Missing flag. A numeric zero or an empty
// string is valid data and is never confused with a missing value.
package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the inferred type of a column.
type Kind int

const (
	// KindNumeric columns hold values that all parse as numbers.
	KindNumeric Kind = iota
	// KindText columns hold free-form text.
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// missingTokens are the raw values treated as missing on input.
// Matching is exact; " NA" is text, not missing.
var missingTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsMissingToken reports whether a raw input value denotes a missing cell.
func IsMissingToken(s string) bool {
	_, ok := missingTokens[s]
	return ok
}

// Cell is a single table value.
//
// For numeric cells Num holds the value and Text the token it was read from
// (or its formatted form once filled). For text cells only Text is used.
type Cell struct {
	Missing bool
	Text    string
	Num     float64
}

// Missing returns a missing cell.
func Missing() Cell {
	return Cell{Missing: true}
}

// Text returns a text cell.
func Text(s string) Cell {
	return Cell{Text: s}
}

// Number returns a numeric cell formatted with the shortest representation.
func Number(v float64) Cell {
	return Cell{Num: v, Text: FormatNumber(v)}
}

// FormatNumber renders v the way filled numeric cells are written out.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Column is a named, typed sequence of cells.
type Column struct {
	Name  string
	Kind  Kind
	Cells []Cell
}

// MissingCount returns how many cells in the column are missing.
func (c *Column) MissingCount() int {
	n := 0
	for _, cell := range c.Cells {
		if cell.Missing {
			n++
		}
	}
	return n
}

// Table is an ordered set of columns with rows aligned by position.
type Table struct {
	Columns []*Column
}

// New builds a table from a header and raw records, inferring column kinds.
//
// Records shorter than the header are padded with missing cells. A record
// longer than the header is a ParseError; line numbers count the header as
// line 1.
func New(source string, header []string, records [][]string) (*Table, error) {
	if len(header) == 0 {
		return nil, &EmptyInputError{Source: source}
	}

	width := len(header)
	raw := make([][]string, width)
	for c := range raw {
		raw[c] = make([]string, len(records))
	}

	for r, rec := range records {
		if len(rec) > width {
			return nil, &ParseError{
				Source: source,
				Line:   r + 2,
				Err:    fmt.Errorf("expected %d fields, saw %d", width, len(rec)),
			}
		}
		for c := 0; c < width; c++ {
			if c < len(rec) {
				raw[c][r] = rec[c]
			}
		}
	}

	names := uniqueNames(header)
	t := &Table{Columns: make([]*Column, width)}
	for c := range raw {
		kind, cells := inferColumn(raw[c])
		t.Columns[c] = &Column{Name: names[c], Kind: kind, Cells: cells}
	}
	return t, nil
}

// inferColumn parses raw values and decides the column kind. A column is
// numeric when every present value parses as a float; a column with no
// present values is numeric too.
//
// In a numeric column any spelling that parses to NaN is missing, and a value
// out of float64 range keeps the column numeric as ±Inf.
func inferColumn(raw []string) (Kind, []Cell) {
	cells := make([]Cell, len(raw))
	numeric := true
	for i, s := range raw {
		if IsMissingToken(s) {
			cells[i] = Missing()
			continue
		}
		cells[i] = Text(s)
		if !numeric {
			continue
		}
		trimmed := strings.TrimSpace(s)
		v, err := strconv.ParseFloat(trimmed, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			numeric = false
			continue
		}
		if math.IsNaN(v) {
			cells[i] = Missing()
			continue
		}
		cells[i] = Cell{Num: v, Text: trimmed}
	}

	if !numeric {
		// Restore the raw text of everything that is not a missing token,
		// including NaN spellings marked missing before the first non-number.
		for i, s := range raw {
			if !IsMissingToken(s) {
				cells[i] = Text(s)
			}
		}
		return KindText, cells
	}
	return KindNumeric, cells
}

// uniqueNames fills blank header names and suffixes repeats with ".1", ".2"
// so every column can be addressed by name.
func uniqueNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := h
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if _, dup := seen[name]; dup {
			base := name
			n := seen[base]
			for {
				n++
				name = fmt.Sprintf("%s.%d", base, n)
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[base] = n
		}
		seen[name] = 0
		names[i] = name
	}
	return names
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Cells)
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.Columns)
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// KeepRows retains only the rows at the given ascending indexes.
func (t *Table) KeepRows(rows []int) {
	for _, col := range t.Columns {
		kept := make([]Cell, len(rows))
		for i, r := range rows {
			kept[i] = col.Cells[r]
		}
		col.Cells = kept
	}
}

// MissingCounts returns the total number of missing cells and the count per
// column name.
func (t *Table) MissingCounts() (int, map[string]int) {
	total := 0
	byColumn := make(map[string]int, len(t.Columns))
	for _, col := range t.Columns {
		n := col.MissingCount()
		byColumn[col.Name] = n
		total += n
	}
	return total, byColumn
}

// Records renders the table body as strings. Missing cells become "".
func (t *Table) Records() [][]string {
	rows := t.NumRows()
	out := make([][]string, rows)
	for r := 0; r < rows; r++ {
		rec := make([]string, len(t.Columns))
		for c, col := range t.Columns {
			if !col.Cells[r].Missing {
				rec[c] = col.Cells[r].Text
			}
		}
		out[r] = rec
	}
	return out
}
