// Package rows holds the flat, ordered rows produced by normalization and
// consumed by enrichment and export.
package rows

import "sort"

// Row is an ordered set of columns. A nil value is the missing marker: the
// column exists but the source record had nothing for it.
type Row struct {
	keys   []string
	values map[string]interface{}
}

// New returns an empty row
func New() *Row {
	return &Row{values: make(map[string]interface{})}
}

// FromMap builds a row from m with keys in sorted order
func FromMap(m map[string]interface{}) *Row {
	r := New()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r.Set(k, m[k])
	}
	return r
}

// Set assigns key, appending it to the column order if new
func (r *Row) Set(key string, value interface{}) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value for key. ok is false only when the column does not
// exist; a present missing value returns (nil, true).
func (r *Row) Get(key string) (interface{}, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key holds a non-missing value
func (r *Row) Has(key string) bool {
	v, ok := r.values[key]
	return ok && v != nil
}

// Keys returns the columns in insertion order
func (r *Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of columns
func (r *Row) Len() int {
	return len(r.keys)
}

// Clone returns a shallow copy; nested values are shared
func (r *Row) Clone() *Row {
	out := &Row{
		keys:   make([]string, len(r.keys)),
		values: make(map[string]interface{}, len(r.values)),
	}
	copy(out.keys, r.keys)
	for k, v := range r.values {
		out.values[k] = v
	}
	return out
}

// Map returns the row as a plain map
func (r *Row) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Columns returns the union of row keys in first-seen order
func Columns(rs []*Row) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range rs {
		for _, k := range r.keys {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	return cols
}

// Filter returns the rows for which keep is true, preserving order
func Filter(rs []*Row, keep func(*Row) bool) []*Row {
	out := make([]*Row, 0, len(rs))
	for _, r := range rs {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
