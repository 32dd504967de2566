package dataset

import (
	"fmt"
	"strings"
)

// ColumnType is the storage type of a column.
type ColumnType string

const (
	// Text columns hold strings.
	Text ColumnType = "text"
	// Numeric columns hold float64 values.
	Numeric ColumnType = "numeric"
)

// Column describes one field of a table.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Table is an in-memory tabular dataset ready to be published.
// Cells are string, float64 or nil (null).
type Table struct {
	// Name is the logical dataset name (used for logs and archives).
	Name string
	// Columns is the ordered column set.
	Columns []Column
	// Key lists the columns forming the primary key. It may be empty.
	Key []string
	// Rows holds the cells in column order.
	Rows [][]any
}

// SchemaError reports required columns absent from an input.
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s", e.Source, strings.Join(e.Missing, ", "))
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the position of a column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Validate checks column uniqueness, key membership and row widths.
func (t *Table) Validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("dataset %s has no columns", t.Name)
	}
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == "" {
			return fmt.Errorf("dataset %s has an unnamed column", t.Name)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("dataset %s has duplicate column %q", t.Name, c.Name)
		}
		seen[c.Name] = struct{}{}
	}

	var missing []string
	for _, k := range t.Key {
		if _, ok := seen[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Source: t.Name + " key", Missing: missing}
	}

	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("dataset %s row %d has %d cells, want %d", t.Name, i+1, len(row), len(t.Columns))
		}
	}
	return nil
}

// DocumentID joins the key cells of a row. Tables without a key return "".
func (t *Table) DocumentID(row []any) string {
	if len(t.Key) == 0 {
		return ""
	}
	parts := make([]string, 0, len(t.Key))
	for _, k := range t.Key {
		idx := t.ColumnIndex(k)
		if idx < 0 {
			return ""
		}
		parts = append(parts, fmt.Sprint(row[idx]))
	}
	return strings.Join(parts, "-")
}

// Document converts a row to a field map.
func (t *Table) Document(row []any) map[string]any {
	doc := make(map[string]any, len(t.Columns))
	for i, c := range t.Columns {
		doc[c.Name] = row[i]
	}
	return doc
}
