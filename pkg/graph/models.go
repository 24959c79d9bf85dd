package graph

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	errs "graphharvest/pkg/errors"
)

// ErrNoNextPage is returned by FetchNextPage when the connection has no
// next link.
var ErrNoNextPage = errors.New("connection has no next page")

// Record is one decoded Graph object. Numbers are kept as json.Number so
// large ids survive decoding. The typed accessors report missing or
// mistyped paths through their bool result instead of panicking.
type Record map[string]interface{}

// Lookup walks nested objects along path
func (r Record) Lookup(path ...string) (interface{}, bool) {
	if len(path) == 0 {
		return nil, false
	}
	var cur interface{} = map[string]interface{}(r)
	for _, key := range path {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// Str returns the value at path as a string. Numbers are formatted in
// their decimal form.
func (r Record) Str(path ...string) (string, bool) {
	v, ok := r.Lookup(path...)
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	default:
		return "", false
	}
}

// Int returns the value at path as an integer
func (r Record) Int(path ...string) (int64, bool) {
	v, ok := r.Lookup(path...)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return int64(f), true
		}
		return 0, false
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// Time returns the value at path as a UTC time
func (r Record) Time(path ...string) (time.Time, bool) {
	v, ok := r.Lookup(path...)
	if !ok {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), true
	case string:
		parsed, err := ParseTimestamp(t)
		return parsed, err == nil
	default:
		return time.Time{}, false
	}
}

// Clone returns a deep copy of r
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return cloneValue(map[string]interface{}(r)).(map[string]interface{})
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case Record:
		return Record(cloneValue(map[string]interface{}(t)).(map[string]interface{}))
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case Record:
		return m, true
	default:
		return nil, false
	}
}

var timestampLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses Graph timestamps such as 2020-01-01T00:00:00+0000.
// Values without an offset are taken as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// Cursors holds the opaque cursor pair of a page
type Cursors struct {
	Before string `json:"before,omitempty"`
	After  string `json:"after,omitempty"`
}

// Paging is the paging block of a connection response
type Paging struct {
	Cursors  *Cursors `json:"cursors,omitempty"`
	Next     string   `json:"next,omitempty"`
	Previous string   `json:"previous,omitempty"`
}

// APIError is the Graph error object
type APIError struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode"`
	FBTraceID    string `json:"fbtrace_id"`
}

// Err converts the Graph error object into the typed error
func (e *APIError) Err(status int) *errs.Error {
	return errs.FromGraph(e.Code, e.ErrorSubcode, status, e.Message, e.FBTraceID)
}

// Connection is one page of a paginated edge. It is either an error page
// (Error set, Data unusable) or a data page (Data possibly empty, Paging
// possibly carrying a next link).
type Connection struct {
	Data   []Record  `json:"data"`
	Paging *Paging   `json:"paging,omitempty"`
	Error  *APIError `json:"error,omitempty"`

	status int
}

// HasNext reports whether another page can be requested
func (c *Connection) HasNext() bool {
	return c != nil && c.Error == nil && c.Paging != nil && c.Paging.Next != ""
}

// InBandError returns the error object carried in the page body, if any
func (c *Connection) InBandError() error {
	if c == nil || c.Error == nil {
		return nil
	}
	return c.Error.Err(c.status)
}

// errorEnvelope is the body of a failed object or connection request
type errorEnvelope struct {
	Error *APIError `json:"error"`
}
