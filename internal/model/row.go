package model

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Row is one insights record. Keys keep the order they had in the API
// response so tables show columns the way the API returned them.
//
// Values are JSON-decoded: strings, float64, bool, nil, []any for action
// breakdowns and map[string]any for nested objects.
type Row = orderedmap.OrderedMap[string, any]

// NewRow returns an empty row.
func NewRow() *Row {
	return orderedmap.New[string, any]()
}

// RowOf builds a row from alternating key/value arguments. It panics on an
// odd argument count or a non-string key; it exists for fixtures and tests.
func RowOf(kv ...any) *Row {
	if len(kv)%2 != 0 {
		panic("model.RowOf: odd number of arguments")
	}
	r := NewRow()
	for i := 0; i < len(kv); i += 2 {
		r.Set(kv[i].(string), kv[i+1])
	}
	return r
}

// Keys returns the row's keys in order.
func Keys(r *Row) []string {
	keys := make([]string, 0, r.Len())
	for p := r.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// CloneRow returns a shallow copy of r. Nested lists and maps are shared.
func CloneRow(r *Row) *Row {
	out := orderedmap.New[string, any](r.Len())
	for p := r.Oldest(); p != nil; p = p.Next() {
		out.Set(p.Key, p.Value)
	}
	return out
}
