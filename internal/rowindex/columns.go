// Column catalog: ordered column metadata with case-insensitive lookup.

package rowindex

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var errColumnNameRequired = errors.New("column name is required")

// Column describes one column of a table.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// LowercaseName returns the name used for lookups.
func (c Column) LowercaseName() string {
	return strings.ToLower(c.Name)
}

// Validate checks that the column is well-formed.
func (c Column) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errColumnNameRequired
	}
	switch c.Type {
	case TypeText, TypeName, TypePrimaryKey:
		return nil
	default:
		return fmt.Errorf("column %q: unknown type %d", c.Name, int(c.Type))
	}
}

// catalog is the ordered list of columns of a table. Lowercase names are
// unique.
type catalog struct {
	cols    []Column
	byLower map[string]int
}

func newCatalog(cols []Column) (catalog, error) {
	c := catalog{byLower: make(map[string]int, len(cols))}
	for _, col := range cols {
		if err := c.insert(len(c.cols), col); err != nil {
			return catalog{}, err
		}
	}
	return c, nil
}

func (c *catalog) len() int {
	return len(c.cols)
}

// index returns the position of the column, or -1.
func (c *catalog) index(name string) int {
	if i, ok := c.byLower[strings.ToLower(name)]; ok {
		return i
	}
	return -1
}

// lookup is index with a NoSuchColumnError.
func (c *catalog) lookup(name string) (int, error) {
	i := c.index(name)
	if i < 0 {
		return -1, &NoSuchColumnError{Column: name}
	}
	return i, nil
}

func (c *catalog) insert(at int, col Column) error {
	if err := col.Validate(); err != nil {
		return err
	}
	if at < 0 || at > len(c.cols) {
		return fmt.Errorf("%w: insert at %d of %d", ErrInvalidColumn, at, len(c.cols))
	}
	if _, ok := c.byLower[col.LowercaseName()]; ok {
		return &DuplicateColumnError{Column: col.Name}
	}
	c.cols = slices.Insert(c.cols, at, col)
	c.reindex()
	return nil
}

func (c *catalog) setType(i int, t ColumnType) {
	c.cols[i].Type = t
}

func (c *catalog) reindex() {
	clear(c.byLower)
	for i, col := range c.cols {
		c.byLower[col.LowercaseName()] = i
	}
}

// primaryKey returns the position of the primary key column, or -1.
func (c *catalog) primaryKey() int {
	return slices.IndexFunc(c.cols, func(col Column) bool { return col.Type == TypePrimaryKey })
}

func (c *catalog) clone() []Column {
	return slices.Clone(c.cols)
}
