package darwincsv

import (
	"strings"

	"github.com/maruel/taxref/internal/rowindex"
)

// CanonicalColumn is the name of the derived canonical name column.
const CanonicalColumn = "canonicalname"

// deriveCanonicalName adds a canonicalname column when the table lacks one.
//
// It returns a short description of the source columns, or "" when nothing
// was derived.
func deriveCanonicalName(t *rowindex.RowIndex) (string, error) {
	if t.HasColumn(CanonicalColumn) {
		return "", nil
	}
	in := t.Interner()

	if sci, col, err := t.Lookup("scientificname"); err == nil && col.Type == rowindex.TypeName {
		err := t.CreateColumn(CanonicalColumn, sci+1, rowindex.TypeName, func(r *rowindex.Row) rowindex.Value {
			v := r.Value(sci)
			n := v.Name()
			if n == nil {
				n = in.Of(v.String())
			}
			return rowindex.NameValue(in.Of(n.ScientificName()))
		})
		if err != nil {
			return "", err
		}
		return col.Name, nil
	}

	genus := t.ColumnIndex("genus")
	epithet := t.ColumnIndex("specificepithet")
	if epithet < 0 {
		epithet = t.ColumnIndex("species")
	}
	if genus < 0 || epithet < 0 {
		return "", nil
	}
	sub := t.ColumnIndex("subspecies")
	if sub < 0 {
		sub = t.ColumnIndex("infraspecificepithet")
	}
	parts := []int{genus, epithet}
	if sub >= 0 {
		parts = append(parts, sub)
	}
	names := make([]string, len(parts))
	for i, c := range parts {
		names[i], _ = t.ColumnName(c)
	}
	insertAt := max(epithet, sub) + 1
	err := t.CreateColumn(CanonicalColumn, insertAt, rowindex.TypeName, func(r *rowindex.Row) rowindex.Value {
		words := make([]string, 0, len(parts))
		for _, c := range parts {
			if s := strings.TrimSpace(r.Value(c).String()); s != "" {
				words = append(words, s)
			}
		}
		return rowindex.NameValue(in.Of(strings.Join(words, " ")))
	})
	if err != nil {
		return "", err
	}
	return strings.Join(names, "+"), nil
}
