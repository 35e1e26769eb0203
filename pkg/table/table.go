// Package table provides a minimal column-named table for reshaped results.
//
// A Table always carries its column names, even when it has no rows, so
// consumers can rely on column presence without checking the row count.
package table

import (
	"encoding/json"
	"slices"
)

// Table is an ordered list of rows of type R under a fixed set of column names.
type Table[R any] struct {
	columns []string
	rows    []R
}

// New creates a table with the given columns and rows.
// A nil rows slice yields an empty table.
func New[R any](columns []string, rows []R) *Table[R] {
	if rows == nil {
		rows = []R{}
	}
	return &Table[R]{
		columns: slices.Clone(columns),
		rows:    rows,
	}
}

// Columns returns a copy of the column names.
func (t *Table[R]) Columns() []string {
	return slices.Clone(t.columns)
}

// Rows returns the rows. The slice is never nil.
func (t *Table[R]) Rows() []R {
	return t.rows
}

// Len returns the number of rows.
func (t *Table[R]) Len() int {
	return len(t.rows)
}

// Empty reports whether the table has no rows.
func (t *Table[R]) Empty() bool {
	return len(t.rows) == 0
}

// SortFunc sorts the rows in place with cmp.
func (t *Table[R]) SortFunc(cmp func(a, b R) int) {
	slices.SortStableFunc(t.rows, cmp)
}

type wireTable[R any] struct {
	Columns []string `json:"columns"`
	Rows    []R      `json:"rows"`
}

// MarshalJSON encodes the table as {"columns": [...], "rows": [...]}.
func (t *Table[R]) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireTable[R]{Columns: t.columns, Rows: t.rows})
}

// UnmarshalJSON decodes the format produced by MarshalJSON.
func (t *Table[R]) UnmarshalJSON(data []byte) error {
	var w wireTable[R]
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*t = *New(w.Columns, w.Rows)
	return nil
}
