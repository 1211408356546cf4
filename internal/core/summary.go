package core

// Summary reports what a cleaning run changed. It is built once at the end
// of Clean and not modified afterwards.
type Summary struct {
	RowsBefore        int `json:"rows_before" yaml:"rows_before"`
	RowsAfter         int `json:"rows_after" yaml:"rows_after"`
	DuplicatesRemoved int `json:"duplicates_removed" yaml:"duplicates_removed"`
	MissingBefore     int `json:"missing_before" yaml:"missing_before"`
	MissingAfter      int `json:"missing_after" yaml:"missing_after"`
	ValuesFilled      int `json:"values_filled" yaml:"values_filled"`

	// Raw selections as submitted, and the strategies they resolved to.
	NumericStrategy     string `json:"numeric_strategy" yaml:"numeric_strategy"`
	CategoricalStrategy string `json:"categorical_strategy" yaml:"categorical_strategy"`
	NumericApplied      string `json:"numeric_applied" yaml:"numeric_applied"`
	CategoricalApplied  string `json:"categorical_applied" yaml:"categorical_applied"`

	Columns            []string `json:"columns" yaml:"columns"`
	NumericColumns     []string `json:"numeric_columns" yaml:"numeric_columns"`
	CategoricalColumns []string `json:"categorical_columns" yaml:"categorical_columns"`

	MissingByColumnBefore map[string]int `json:"missing_by_column_before" yaml:"missing_by_column_before"`
	MissingByColumnAfter  map[string]int `json:"missing_by_column_after" yaml:"missing_by_column_after"`

	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// ColumnMissing is one row of the per-column missing-value report.
type ColumnMissing struct {
	Name   string
	Before int
	After  int
}

// MissingByColumn lists per-column missing counts in table order.
func (s Summary) MissingByColumn() []ColumnMissing {
	out := make([]ColumnMissing, 0, len(s.Columns))
	for _, name := range s.Columns {
		out = append(out, ColumnMissing{
			Name:   name,
			Before: s.MissingByColumnBefore[name],
			After:  s.MissingByColumnAfter[name],
		})
	}
	return out
}
