package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Column is one output column. Key identifies the column, Title is what users see.
type Column struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// Row maps column key to value. A missing value is the empty string.
type Row map[string]string

// Table is an ordered set of columns and rows
type Table struct {
	Columns []Column
	Rows    []Row
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Headers returns one unique header per column. The first column with a
// given title keeps it, later ones become "Title (key)".
func (t *Table) Headers() []string {
	headers := make([]string, len(t.Columns))
	seen := make(map[string]bool, len(t.Columns))
	for i, c := range t.Columns {
		h := c.Title
		if h == "" {
			h = c.Key
		}
		if seen[h] {
			h = fmt.Sprintf("%s (%s)", h, c.Key)
		}
		seen[h] = true
		headers[i] = h
	}
	return headers
}

// Record returns the row's values in column order
func (t *Table) Record(r Row) []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = r[c.Key]
	}
	return out
}

// Records returns every row in column order
func (t *Table) Records() [][]string {
	out := make([][]string, 0, t.Len())
	for _, r := range t.Rows {
		out = append(out, t.Record(r))
	}
	return out
}

// OrderedRows returns the rows as JSON objects keyed by header, in column order
func (t *Table) OrderedRows() []OrderedRow {
	headers := t.Headers()
	out := make([]OrderedRow, 0, t.Len())
	for _, r := range t.Rows {
		out = append(out, OrderedRow{Keys: headers, Values: t.Record(r)})
	}
	return out
}

// OrderedRow is a row that marshals its keys in a fixed order
type OrderedRow struct {
	Keys   []string
	Values []string
}

// MarshalJSON implements json.Marshaler
func (o OrderedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		v := ""
		if i < len(o.Values) {
			v = o.Values[i]
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
