// Package export writes a table as CSV, TSV, JSON or Parquet.
//
// Every cell is written as its text rendering. Column types are kept as
// metadata where the format allows it: a "columns" header in JSON, field
// metadata in Parquet.
package export

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"path/filepath"
	"strings"

	"github.com/maruel/taxref/internal/rowindex"
)

// Table is the read side of a table, as implemented by *rowindex.RowIndex.
type Table interface {
	Columns() []rowindex.Column
	RowCount() int
	Rows() iter.Seq2[int, *rowindex.Row]
}

// Format is an output file format.
type Format string

// Supported formats.
const (
	CSV     Format = "csv"
	TSV     Format = "tsv"
	JSON    Format = "json"
	Parquet Format = "parquet"
)

// Formats lists the supported formats.
var Formats = []Format{CSV, TSV, JSON, Parquet}

// ErrUnknownFormat is returned for a format that is not supported.
var ErrUnknownFormat = errors.New("unknown format")

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case CSV, TSV, JSON, Parquet:
		return f, nil
	case "txt", "tab":
		return TSV, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownFormat, s)
	}
}

// FormatFromPath guesses the format from the file extension. It returns
// false when the extension is not recognized.
func FormatFromPath(path string) (Format, bool) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", false
	}
	f, err := ParseFormat(ext)
	return f, err == nil
}

// Write writes t to w in format f.
func Write(f Format, w io.Writer, t Table) error {
	switch f {
	case CSV:
		return WriteDelimited(w, t, ',')
	case TSV:
		return WriteDelimited(w, t, '\t')
	case JSON:
		return WriteJSON(w, t)
	case Parquet:
		return WriteParquet(w, t)
	default:
		return fmt.Errorf("%w %q", ErrUnknownFormat, string(f))
	}
}

func header(t Table) []string {
	cols := t.Columns()
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

// record renders the cells of r, padding to n columns.
func record(r *rowindex.Row, n int, buf []string) []string {
	buf = buf[:0]
	for i := range n {
		buf = append(buf, r.Value(i).String())
	}
	return buf
}
