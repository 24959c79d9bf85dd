package export

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"graphharvest/pkg/rows"
)

func sampleRows() []*rows.Row {
	a := rows.New()
	a.Set("id", "1_2")
	a.Set("message", "zażółć, \"quoted\"")
	a.Set("created_time", time.Date(2020, 1, 15, 10, 30, 0, 0, time.UTC))
	a.Set("likes_count", int64(3))
	a.Set("from", map[string]interface{}{"id": "1"})
	a.Set("reactions_count", nil)

	b := rows.New()
	b.Set("id", "1_3")
	b.Set("created_time", time.Date(2020, 1, 16, 8, 0, 0, 0, time.FixedZone("+02", 7200)))
	b.Set("likes_count", json.Number("12"))
	b.Set("story", "shared a link")
	return []*rows.Row{a, b}
}

func TestParseDestination(t *testing.T) {
	tests := []struct {
		path        string
		format      Format
		compression Compression
	}{
		{"", FormatNone, CompressionNone},
		{"  ", FormatNone, CompressionNone},
		{"out.xlsx", FormatXLSX, CompressionNone},
		{"out.CSV", FormatCSV, CompressionNone},
		{"out.txt", FormatCSV, CompressionNone},
		{"dir/out.csv.gz", FormatCSV, CompressionGzip},
		{"out.jsonl", FormatJSONL, CompressionNone},
		{"out.jsonl.zst", FormatJSONL, CompressionZstd},
		{"posts.db", FormatSQLite, CompressionNone},
		{"posts.sqlite", FormatSQLite, CompressionNone},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			d := ParseDestination(tt.path)
			assert.Equal(t, tt.format, d.Format)
			assert.Equal(t, tt.compression, d.Compression)
		})
	}
}

func TestSaveNoneWritesNothing(t *testing.T) {
	require.NoError(t, Save(context.Background(), sampleRows(), "", Options{}))
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestSaveCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.csv")
	require.NoError(t, Save(context.Background(), sampleRows(), path, Options{}))

	records := readCSV(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"id", "message", "created_time", "likes_count", "from", "reactions_count", "story"}, records[0])
	assert.Equal(t, []string{"1_2", "zażółć, \"quoted\"", "2020-01-15 10:30:00", "3", `{"id":"1"}`, "", ""}, records[1])
	assert.Equal(t, []string{"1_3", "", "2020-01-16 06:00:00", "12", "", "", "shared a link"}, records[2])

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestSaveRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.csv")
	require.NoError(t, os.WriteFile(path, []byte("keep"), 0644))

	err := Save(context.Background(), sampleRows(), path, Options{})
	assert.ErrorIs(t, err, ErrExists)

	data, _ := os.ReadFile(path)
	assert.Equal(t, "keep", string(data))

	require.NoError(t, Save(context.Background(), sampleRows(), path, Options{Overwrite: true}))
	assert.Len(t, readCSV(t, path), 3)
}

func TestSaveCSVGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.csv.gz")
	require.NoError(t, Save(context.Background(), sampleRows(), path, Options{}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	records, err := csv.NewReader(gz).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestSaveJSONLZstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.jsonl.zst")
	require.NoError(t, Save(context.Background(), sampleRows(), path, Options{}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	zr, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer zr.Close()

	var lines []string
	sc := bufio.NewScanner(zr)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	require.Len(t, lines, 2)

	assert.True(t, strings.HasPrefix(lines[0], `{"id":"1_2","message":`))
	assert.Contains(t, lines[0], `"created_time":"2020-01-15 10:30:00"`)
	assert.Contains(t, lines[0], `"reactions_count":null`)
	assert.Contains(t, lines[1], `"likes_count":12`)
}

func TestSaveXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.xlsx")
	require.NoError(t, Save(context.Background(), sampleRows(), path, Options{SheetName: "posts"}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows("posts")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "id", got[0][0])
	assert.Equal(t, "1_2", got[1][0])
	assert.Equal(t, "3", got[1][3])

	raw, err := f.GetCellValue("posts", "D3", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "12", raw)
}

func TestSaveXLSXRejectsCompression(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.xlsx.gz")
	assert.Error(t, Save(context.Background(), sampleRows(), path, Options{}))
}

func TestSaveSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.db")
	require.NoError(t, Save(context.Background(), sampleRows(), path, Options{TableName: "posts"}))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&count))
	assert.Equal(t, 2, count)

	var likes int64
	var created string
	var reactions sql.NullInt64
	require.NoError(t, db.QueryRow(`SELECT likes_count, created_time, reactions_count FROM posts WHERE id = ?`, "1_2").
		Scan(&likes, &created, &reactions))
	assert.Equal(t, int64(3), likes)
	assert.Equal(t, "2020-01-15 10:30:00", created)
	assert.False(t, reactions.Valid)

	var sum int64
	require.NoError(t, db.QueryRow(`SELECT SUM(likes_count) FROM posts`).Scan(&sum))
	assert.Equal(t, int64(15), sum)
}

func TestSaveEmptyRows(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "empty.csv")
	require.NoError(t, Save(context.Background(), nil, csvPath, Options{}))
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "\n", string(data))

	dbPath := filepath.Join(dir, "empty.db")
	require.NoError(t, Save(context.Background(), nil, dbPath, Options{}))
}

func TestEncodeClosesCompressionOnError(t *testing.T) {
	bad := rows.New()
	bad.Set("id", "1_2")
	bad.Set("payload", make(chan int))

	var buf bytes.Buffer
	dest := Destination{Format: FormatJSONL, Compression: CompressionGzip}
	err := encode(&buf, dest, Options{}, []*rows.Row{bad})
	require.Error(t, err)

	// A closed gzip stream is complete even though no row was written.
	gz, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Empty(t, data)
}
