package core

// pipeline.go implements the cleaning pass itself.
//
// Clean runs a fixed sequence over one table:
//
//  1. snapshot row and missing-value counts
//  2. drop exact duplicate rows (first occurrence wins)
//  3. split columns into numeric and categorical
//  4. fill numeric gaps (mean, median, mode, or leave)
//  5. fill categorical gaps (mode, or "Not Available")
//  6. trim and lowercase categorical text
//  7. snapshot counts again
//
// The order is fixed. Filling happens before normalization, so the
// placeholder lands in the output as "not available".

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/JonMunkholm/tidycsv/internal/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Options holds the strategy selections exactly as the user submitted them.
type Options struct {
	NumericStrategy     string
	CategoricalStrategy string
}

// Clean transforms t in place and reports what changed. The only error is
// an *table.EmptyInputError for a table without columns.
func Clean(t *table.Table, opts Options) (Summary, error) {
	if t == nil || t.NumCols() == 0 {
		return Summary{}, &table.EmptyInputError{}
	}

	rowsBefore := t.NumRows()
	missingBefore, byColumnBefore := t.MissingCounts()

	removed := dropDuplicates(t)

	numericCols, categoricalCols := classify(t)

	var warnings []string
	numeric, ok := ParseNumericStrategy(opts.NumericStrategy)
	if !ok && opts.NumericStrategy != "" {
		warnings = append(warnings, fmt.Sprintf(
			"numeric strategy %q not recognized; numeric missing values left in place", opts.NumericStrategy))
	}
	categorical, ok := ParseCategoricalStrategy(opts.CategoricalStrategy)
	if !ok && opts.CategoricalStrategy != "" {
		warnings = append(warnings, fmt.Sprintf(
			"categorical strategy %q not recognized; filled with %q", opts.CategoricalStrategy, NotAvailable))
	}

	filled := 0
	for _, col := range numericCols {
		n, warning := fillNumeric(col, numeric)
		filled += n
		if warning != "" {
			warnings = append(warnings, warning)
		}
	}
	for _, col := range categoricalCols {
		n, warning := fillCategorical(col, categorical)
		filled += n
		if warning != "" {
			warnings = append(warnings, warning)
		}
	}

	normalizeText(categoricalCols)

	missingAfter, byColumnAfter := t.MissingCounts()

	return Summary{
		RowsBefore:            rowsBefore,
		RowsAfter:             t.NumRows(),
		DuplicatesRemoved:     removed,
		MissingBefore:         missingBefore,
		MissingAfter:          missingAfter,
		ValuesFilled:          filled,
		NumericStrategy:       opts.NumericStrategy,
		CategoricalStrategy:   opts.CategoricalStrategy,
		NumericApplied:        numeric.String(),
		CategoricalApplied:    categorical.String(),
		Columns:               t.Names(),
		NumericColumns:        columnNames(numericCols),
		CategoricalColumns:    columnNames(categoricalCols),
		MissingByColumnBefore: byColumnBefore,
		MissingByColumnAfter:  byColumnAfter,
		Warnings:              warnings,
	}, nil
}

// dropDuplicates removes rows equal to an earlier row across every column
// and returns how many were removed. Missing equals missing; numeric cells
// compare by value, so "1" and "1.0" match.
func dropDuplicates(t *table.Table) int {
	rows := t.NumRows()
	seen := make(map[string]struct{}, rows)
	keep := make([]int, 0, rows)

	var key strings.Builder
	for r := 0; r < rows; r++ {
		key.Reset()
		for _, col := range t.Columns {
			writeCellKey(&key, col.Kind, col.Cells[r])
		}
		k := key.String()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, r)
	}

	if len(keep) < rows {
		t.KeepRows(keep)
	}
	return rows - len(keep)
}

// writeCellKey appends an unambiguous encoding of one cell.
func writeCellKey(b *strings.Builder, kind table.Kind, c table.Cell) {
	switch {
	case c.Missing:
		b.WriteString("-;")
	case kind == table.KindNumeric:
		v := c.Num
		if v == 0 {
			v = 0 // -0 and 0 are the same value
		}
		b.WriteString("n")
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		b.WriteByte(';')
	default:
		b.WriteString("s")
		b.WriteString(strconv.Itoa(len(c.Text)))
		b.WriteByte(':')
		b.WriteString(c.Text)
	}
}

// classify partitions columns by inferred kind, keeping table order.
func classify(t *table.Table) (numeric, categorical []*table.Column) {
	for _, col := range t.Columns {
		if col.Kind == table.KindNumeric {
			numeric = append(numeric, col)
		} else {
			categorical = append(categorical, col)
		}
	}
	return numeric, categorical
}

// fillNumeric fills missing cells of one numeric column. A column with no
// present values is left untouched and reported in the warning.
func fillNumeric(col *table.Column, strategy NumericStrategy) (int, string) {
	if strategy == NumericNone {
		return 0, ""
	}
	missing := col.MissingCount()
	if missing == 0 {
		return 0, ""
	}

	present := make([]float64, 0, len(col.Cells)-missing)
	for _, c := range col.Cells {
		if !c.Missing {
			present = append(present, c.Num)
		}
	}

	var (
		value float64
		ok    bool
	)
	switch strategy {
	case NumericMean:
		value, ok = mean(present)
	case NumericMedian:
		value, ok = median(present)
	case NumericMode:
		value, ok = mode(present)
	}
	if !ok {
		return 0, fmt.Sprintf("column %q has no values to compute a %s from; %d missing values left in place",
			col.Name, strategy, missing)
	}
	if math.IsNaN(value) {
		return 0, fmt.Sprintf("column %q has an undefined %s; %d missing values left in place",
			col.Name, strategy, missing)
	}

	fill := table.Number(value)
	for i := range col.Cells {
		if col.Cells[i].Missing {
			col.Cells[i] = fill
		}
	}
	return missing, ""
}

// fillCategorical fills missing cells of one text column.
func fillCategorical(col *table.Column, strategy CategoricalStrategy) (int, string) {
	missing := col.MissingCount()
	if missing == 0 {
		return 0, ""
	}

	fill := NotAvailable
	if strategy == CategoricalMode {
		present := make([]string, 0, len(col.Cells)-missing)
		for _, c := range col.Cells {
			if !c.Missing {
				present = append(present, c.Text)
			}
		}
		value, ok := mode(present)
		if !ok {
			return 0, fmt.Sprintf("column %q has no values to compute a mode from; %d missing values left in place",
				col.Name, missing)
		}
		fill = value
	}

	for i := range col.Cells {
		if col.Cells[i].Missing {
			col.Cells[i] = table.Text(fill)
		}
	}
	return missing, ""
}

// normalizeText trims surrounding whitespace and lowercases every present
// value in the given columns.
func normalizeText(cols []*table.Column) {
	lower := cases.Lower(language.Und)
	for _, col := range cols {
		for i, c := range col.Cells {
			if c.Missing {
				continue
			}
			col.Cells[i].Text = lower.String(strings.TrimSpace(c.Text))
		}
	}
}

func columnNames(cols []*table.Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
