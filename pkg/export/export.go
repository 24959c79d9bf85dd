// Package export writes finished row sets to disk. The destination format
// follows the file extension:
//
//	""                  nothing is written
//	.xlsx               spreadsheet, timestamps written without timezone
//	.jsonl              one JSON object per row
//	.db, .sqlite        a single SQLite table
//	.csv or other       UTF-8 delimited text
//
// Text formats (csv, jsonl) may carry an extra .gz or .zst suffix to be
// compressed on the fly. Every file is written to a temporary sibling first
// and renamed into place once complete.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"graphharvest/pkg/rows"
)

// Format is a destination format
type Format string

const (
	FormatNone   Format = "none"
	FormatCSV    Format = "csv"
	FormatXLSX   Format = "xlsx"
	FormatJSONL  Format = "jsonl"
	FormatSQLite Format = "sqlite"
)

// Compression is a stream compression applied to text formats
type Compression string

const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// ErrExists is returned when the destination exists and Overwrite is off
var ErrExists = errors.New("destination already exists")

// Options controls how rows are written
type Options struct {
	// SheetName is the worksheet used for .xlsx output
	SheetName string

	// TableName is the table created for SQLite output
	TableName string

	// Overwrite replaces an existing destination
	Overwrite bool
}

// Destination is a parsed output path
type Destination struct {
	Path        string
	Format      Format
	Compression Compression
}

// ParseDestination derives the format and compression from path
func ParseDestination(path string) Destination {
	if strings.TrimSpace(path) == "" {
		return Destination{Format: FormatNone}
	}

	d := Destination{Path: path}
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".gz"):
		d.Compression = CompressionGzip
		name = strings.TrimSuffix(name, ".gz")
	case strings.HasSuffix(name, ".zst"):
		d.Compression = CompressionZstd
		name = strings.TrimSuffix(name, ".zst")
	}

	switch filepath.Ext(name) {
	case ".xlsx":
		d.Format = FormatXLSX
	case ".jsonl", ".ndjson":
		d.Format = FormatJSONL
	case ".db", ".sqlite", ".sqlite3":
		d.Format = FormatSQLite
	default:
		d.Format = FormatCSV
	}
	return d
}

// Save writes rs to path in the format its extension names. An empty path
// writes nothing.
func Save(ctx context.Context, rs []*rows.Row, path string, opts Options) error {
	dest := ParseDestination(path)
	if dest.Format == FormatNone {
		return nil
	}
	if dest.Compression != CompressionNone && (dest.Format == FormatXLSX || dest.Format == FormatSQLite) {
		return fmt.Errorf("%s output cannot be stream compressed", dest.Format)
	}
	if opts.SheetName == "" {
		opts.SheetName = "Sheet1"
	}
	if opts.TableName == "" {
		opts.TableName = "records"
	}

	if !opts.Overwrite {
		if _, err := os.Stat(dest.Path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, dest.Path)
		}
	}

	dir := filepath.Dir(dest.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if dest.Format == FormatSQLite {
		return writeAtomicPath(dest.Path, func(tmp string) error {
			return writeSQLite(ctx, tmp, opts.TableName, rs)
		})
	}

	return writeAtomic(dest.Path, func(w io.Writer) error {
		return encode(w, dest, opts, rs)
	})
}

// encode writes rs to w, wrapping it in the destination compression
func encode(w io.Writer, dest Destination, opts Options, rs []*rows.Row) error {
	var closer io.Closer
	switch dest.Compression {
	case CompressionGzip:
		gz := gzip.NewWriter(w)
		w, closer = gz, gz
	case CompressionZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("failed to create zstd writer: %w", err)
		}
		w, closer = zw, zw
	}

	var err error
	switch dest.Format {
	case FormatXLSX:
		err = writeXLSX(w, opts.SheetName, rs)
	case FormatJSONL:
		err = writeJSONL(w, rs)
	default:
		err = writeCSV(w, rs)
	}
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return err
	}

	if closer != nil {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("failed to finish compressed stream: %w", err)
		}
	}
	return nil
}

// writeAtomic streams into a temporary file next to path and renames it
// into place once write and close succeed.
func writeAtomic(path string, write func(io.Writer) error) error {
	return writeAtomicPath(path, func(tmp string) error {
		out, err := os.Create(tmp)
		if err != nil {
			return fmt.Errorf("failed to create temporary file: %w", err)
		}

		err = write(out)
		closeErr := out.Close()
		if err != nil {
			return err
		}
		if closeErr != nil {
			return fmt.Errorf("failed to close file: %w", closeErr)
		}
		return nil
	})
}

// writeAtomicPath hands write a temporary path next to path
func writeAtomicPath(path string, write func(tmp string) error) error {
	tmp := path + ".tmp"
	os.Remove(tmp)

	if err := write(tmp); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
