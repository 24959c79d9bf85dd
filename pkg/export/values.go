package export

import (
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// TimeLayout is used wherever a timestamp is written as text
const TimeLayout = "2006-01-02 15:04:05"

// naive drops the zone, keeping the UTC wall clock
func naive(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), u.Nanosecond(), time.UTC)
}

// text renders a cell for delimited output. Missing values are empty.
func text(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return naive(t).Format(TimeLayout)
	case json.Number:
		return t.String()
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

// scalar converts a cell to a typed value for spreadsheet and SQL output.
// Numbers become int64 or float64, nested values become JSON text.
func scalar(v interface{}) interface{} {
	switch t := v.(type) {
	case nil, string, bool, int64, float64:
		return t
	case int:
		return int64(t)
	case time.Time:
		return naive(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return text(t)
	}
}
