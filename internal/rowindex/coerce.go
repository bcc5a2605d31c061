// Value conversion between column types.

package rowindex

import (
	"github.com/maruel/taxref/internal/name"
)

// Conversions are defined per column type pair:
//
//	text        → name         name interned from the text
//	text        → primary_key  key is the text
//	name        → text         text is the name string
//	primary_key → text         text is the key
//	name        ↔ primary_key  unsupported
//
// Converting a single cell always goes through its text rendering, so a cell
// whose kind differs from its column's type (a name stored in a text column
// by SetValue) converts like the column does.

// CanConvert reports whether a column of type from may become type to.
func CanConvert(from, to ColumnType) bool {
	switch {
	case from == to:
		return true
	case from == TypeName && to == TypePrimaryKey, from == TypePrimaryKey && to == TypeName:
		return false
	default:
		return true
	}
}

// Coerce converts v to the variant matching column type to. Values already of
// that kind are returned unchanged.
func Coerce(v Value, to ColumnType, in *name.Interner) Value {
	if v.kind == to {
		return v
	}
	switch to {
	case TypeName:
		return NameValue(in.Of(v.String()))
	case TypePrimaryKey:
		return PrimaryKey(v.String())
	case TypeText:
		return Text(v.String())
	default:
		return v
	}
}

// promote applies the implicit conversion done when a value is stored in a
// column: text in a name column becomes a name, anything in the primary key
// column becomes a key, and keys never live outside the primary key column.
// A name stored in a text column stays a name.
func promote(v Value, col ColumnType, in *name.Interner) Value {
	switch {
	case col == TypePrimaryKey:
		return Coerce(v, TypePrimaryKey, in)
	case v.kind == TypePrimaryKey:
		return Coerce(v, col, in)
	case v.kind == TypeText && col == TypeName:
		return Coerce(v, TypeName, in)
	default:
		return v
	}
}
