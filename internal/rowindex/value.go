// Cell values and column types.

package rowindex

import (
	"fmt"
	"strings"

	"github.com/maruel/taxref/internal/name"
)

// ColumnType is the type tag of a column and the kind of a Value.
type ColumnType int

const (
	// TypeText holds free text.
	TypeText ColumnType = iota
	// TypeName holds scientific names, indexed by case-insensitive key.
	TypeName
	// TypePrimaryKey holds case-sensitive keys. At most one column per table.
	TypePrimaryKey
)

func (c ColumnType) String() string {
	switch c {
	case TypeText:
		return "text"
	case TypeName:
		return "name"
	case TypePrimaryKey:
		return "primary_key"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(c))
	}
}

// ParseColumnType parses the String form of a ColumnType.
func ParseColumnType(s string) (ColumnType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return TypeText, nil
	case "name":
		return TypeName, nil
	case "primary_key", "primarykey", "pk":
		return TypePrimaryKey, nil
	default:
		return 0, fmt.Errorf("unknown column type %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c ColumnType) MarshalText() ([]byte, error) {
	switch c {
	case TypeText, TypeName, TypePrimaryKey:
		return []byte(c.String()), nil
	default:
		return nil, fmt.Errorf("unknown column type %d", int(c))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ColumnType) UnmarshalText(b []byte) error {
	v, err := ParseColumnType(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Value is one cell. It is exactly one of Text, Name or PrimaryKey, as
// reported by Kind. The zero Value is Text("").
type Value struct {
	kind ColumnType
	s    string
	n    *name.Name
}

// Text returns a text value.
func Text(s string) Value {
	return Value{kind: TypeText, s: s}
}

// NameValue returns a name value. A nil name is stored as text "".
func NameValue(n *name.Name) Value {
	if n == nil {
		return Value{}
	}
	return Value{kind: TypeName, n: n}
}

// PrimaryKey returns a primary key value.
func PrimaryKey(s string) Value {
	return Value{kind: TypePrimaryKey, s: s}
}

// Kind returns which variant v holds.
func (v Value) Kind() ColumnType {
	return v.kind
}

// Name returns the name held by v, or nil if v is not a name.
func (v Value) Name() *name.Name {
	return v.n
}

// String renders v as text. It is the rendering used by every export.
func (v Value) String() string {
	switch v.kind {
	case TypeName:
		return v.n.String()
	case TypeText, TypePrimaryKey:
		return v.s
	default:
		return v.s
	}
}

// IsBlank reports whether v renders as an empty string.
func (v Value) IsBlank() bool {
	return v.String() == ""
}

// Equal reports whether both values are the same variant with equal content.
// Names compare case-insensitively, text and keys exactly.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == TypeName {
		return v.n.Equal(o.n)
	}
	return v.s == o.s
}

func (v Value) GoString() string {
	return fmt.Sprintf("%s(%q)", v.kind, v.String())
}
