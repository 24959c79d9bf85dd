package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"graphharvest/pkg/rows"
)

// writeCSV writes a header of every column seen followed by one record per
// row. Columns a row lacks are left empty.
func writeCSV(w io.Writer, rs []*rows.Row) error {
	cols := rows.Columns(rs)
	cw := csv.NewWriter(w)

	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	record := make([]string, len(cols))
	for _, r := range rs {
		for i, c := range cols {
			v, _ := r.Get(c)
			record[i] = text(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// writeJSONL writes each row as one JSON object with keys in column order
func writeJSONL(w io.Writer, rs []*rows.Row) error {
	bw := bufio.NewWriter(w)
	for _, r := range rs {
		line, err := marshalRow(r)
		if err != nil {
			return err
		}
		bw.Write(line)
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write jsonl: %w", err)
	}
	return nil
}

func marshalRow(r *rows.Row) ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range r.Keys() {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("failed to encode column %q: %w", k, err)
		}
		buf = append(buf, key...)
		buf = append(buf, ':')

		v, _ := r.Get(k)
		if t, ok := v.(time.Time); ok {
			v = naive(t).Format(TimeLayout)
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode column %q: %w", k, err)
		}
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}
