// Package darwincsv builds a rowindex.RowIndex from Darwin Core style
// delimited files.
//
// Columns whose header is a known name header (scientificName, genus,
// family, ...) are typed as names; the rest are text unless configured as
// primary keys. When the file has no canonicalName column one is derived,
// either from scientificName or from its genus and epithet columns.
package darwincsv

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maruel/taxref/internal/name"
	"github.com/maruel/taxref/internal/rowindex"
)

// DefaultNameHeaders lists the lowercase headers typed as names.
var DefaultNameHeaders = []string{
	"canonicalname",
	"canonical_name",
	"scientificname",
	"scientific_name",
	"scientific name",
	"name",
	"acceptednameusage",
	"acceptedname",
	"accepted_name",
	"family",
	"genus",
}

// Options control ingestion. The zero value is usable.
type Options struct {
	// File is reported in errors.
	File string
	// Interner defaults to name.Default().
	Interner *name.Interner
	// NameHeaders defaults to DefaultNameHeaders. Compared case-insensitively.
	NameHeaders []string
	// PrimaryKeyHeaders lists headers typed as primary key. The first match
	// wins; later matches are text. Empty by default.
	PrimaryKeyHeaders []string
}

func (o *Options) interner() *name.Interner {
	if o == nil || o.Interner == nil {
		return name.Default()
	}
	return o.Interner
}

func (o *Options) file() string {
	if o == nil {
		return ""
	}
	return o.File
}

func lowerSet(headers []string) map[string]struct{} {
	m := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		m[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}
	return m
}

// Columns returns the column catalog for headers: types are chosen from the
// header text, and duplicate headers get a _01, _02, ... suffix.
func Columns(headers []string, opts *Options) []rowindex.Column {
	nameHeaders := DefaultNameHeaders
	var keyHeaders []string
	if opts != nil {
		if opts.NameHeaders != nil {
			nameHeaders = opts.NameHeaders
		}
		keyHeaders = opts.PrimaryKeyHeaders
	}
	names := lowerSet(nameHeaders)
	keys := lowerSet(keyHeaders)

	cols := make([]rowindex.Column, 0, len(headers))
	seen := make(map[string]struct{}, len(headers))
	hasKey := false
	for i, h := range headers {
		h = strings.TrimSpace(h)
		lower := strings.ToLower(h)
		typ := rowindex.TypeText
		if _, ok := names[lower]; ok {
			typ = rowindex.TypeName
		} else if _, ok := keys[lower]; ok && !hasKey {
			typ = rowindex.TypePrimaryKey
			hasKey = true
		}
		base := h
		if base == "" {
			base = fmt.Sprintf("column_%02d", i+1)
		}
		colName := base
		for n := 1; ; n++ {
			if _, dup := seen[strings.ToLower(colName)]; !dup {
				break
			}
			colName = fmt.Sprintf("%s_%02d", base, n)
		}
		seen[strings.ToLower(colName)] = struct{}{}
		cols = append(cols, rowindex.Column{Name: colName, Type: typ})
	}
	return cols
}

// Ingest builds a table from headers and rows of fields.
//
// Every row must have one field per header, otherwise a
// *rowindex.RowArityError naming the file and the 1-based data row is
// returned and no table is built. A canonicalName column is derived when
// possible, see the package documentation.
func Ingest(headers []string, rows [][]string, opts *Options) (*rowindex.RowIndex, error) {
	start := time.Now()
	cols := Columns(headers, opts)
	for i, rec := range rows {
		if len(rec) != len(cols) {
			return nil, &rowindex.RowArityError{File: opts.file(), Row: i + 1, Want: len(cols), Got: len(rec)}
		}
	}
	in := opts.interner()
	t, err := rowindex.New(in, cols)
	if err != nil {
		return nil, err
	}
	values := make([][]rowindex.Value, len(rows))
	for i, rec := range rows {
		vals := make([]rowindex.Value, len(rec))
		for c, field := range rec {
			vals[c] = cellValue(field, cols[c].Type, in)
		}
		values[i] = vals
	}
	if err := t.AddRows(values); err != nil {
		return nil, err
	}
	slog.Debug("Loaded rows", "file", opts.file(), "rows", len(rows), "columns", len(cols), "dur", time.Since(start))

	start = time.Now()
	derived, err := deriveCanonicalName(t)
	if err != nil {
		return nil, fmt.Errorf("deriving canonical name: %w", err)
	}
	if derived != "" {
		slog.Debug("Derived canonical name", "file", opts.file(), "from", derived, "dur", time.Since(start))
	}
	return t, nil
}

func cellValue(field string, typ rowindex.ColumnType, in *name.Interner) rowindex.Value {
	switch typ {
	case rowindex.TypeName:
		return rowindex.NameValue(in.Of(field))
	case rowindex.TypePrimaryKey:
		return rowindex.PrimaryKey(field)
	case rowindex.TypeText:
		return rowindex.Text(field)
	default:
		return rowindex.Text(field)
	}
}
