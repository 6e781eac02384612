// Package frame holds the typed table handed to presentation layers and the
// coercer that types its columns from the schema registry.
package frame

import (
	"github.com/HolgerKurtz/meta-ads-insights/internal/model"
)

// Kind is the representation a column's values currently have.
type Kind int

const (
	// Untyped columns hold the raw normalized values.
	Untyped Kind = iota
	Integer
	Float
	DateTime
	Categorical
	String
)

var kindNames = [...]string{
	Untyped:     "untyped",
	Integer:     "int",
	Float:       "float",
	DateTime:    "datetime",
	Categorical: "category",
	String:      "str",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "untyped"
	}
	return kindNames[k]
}

// MarshalText renders the kind with the registry vocabulary.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Column is one named column of a Table.
//
// Values hold int64 for Integer, float64 or nil for Float, time.Time or nil
// for DateTime, string for String, and the level string or nil for
// Categorical. Untyped columns hold whatever the normalizer produced.
type Column struct {
	Name   string
	Kind   Kind
	Values []any

	// Levels and Codes are set for Categorical columns only. Levels are the
	// sorted distinct values; Codes index into Levels, with -1 for missing.
	Levels []string
	Codes  []int
}

// Table is a column-oriented view of normalized rows.
type Table struct {
	Columns []*Column
	rows    int
}

// NewTable builds an untyped table from rows. Columns appear in the order
// they are first seen; cells a row lacks are nil.
func NewTable(rows []*model.Row) *Table {
	t := &Table{rows: len(rows)}
	index := make(map[string]*Column)
	for i, r := range rows {
		if r == nil {
			continue
		}
		for p := r.Oldest(); p != nil; p = p.Next() {
			col, ok := index[p.Key]
			if !ok {
				col = &Column{Name: p.Key, Values: make([]any, len(rows))}
				index[p.Key] = col
				t.Columns = append(t.Columns, col)
			}
			col.Values[i] = p.Value
		}
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return t.rows
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return t.rows == 0
}

// Column returns the named column, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Records converts the table back to rows, one ordered map per row.
func (t *Table) Records() []*model.Row {
	out := make([]*model.Row, t.rows)
	for i := range out {
		r := model.NewRow()
		for _, c := range t.Columns {
			r.Set(c.Name, c.Values[i])
		}
		out[i] = r
	}
	return out
}

// Describe returns the name, kind and category levels of every column.
func (t *Table) Describe() []model.ColumnInfo {
	out := make([]model.ColumnInfo, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = model.ColumnInfo{Name: c.Name, Type: c.Kind.String(), Levels: c.Levels}
	}
	return out
}
