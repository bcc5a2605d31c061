package rowindex

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"

	"github.com/maruel/ksid"
	"github.com/maruel/taxref/internal/name"
)

// Row is one published row. It is never modified; mutations publish a new
// Row with the same ID.
type Row struct {
	id     ksid.ID
	values []Value
}

// ID returns the identity of the row, stable across mutations.
func (r *Row) ID() ksid.ID {
	return r.id
}

// Len returns the number of values.
func (r *Row) Len() int {
	return len(r.values)
}

// Value returns the value of column i, or the zero Value if out of range.
func (r *Row) Value(i int) Value {
	if i < 0 || i >= len(r.values) {
		return Value{}
	}
	return r.values[i]
}

// Values returns a copy of all values.
func (r *Row) Values() []Value {
	return slices.Clone(r.values)
}

// DeriveFunc computes the value of a new column from an existing row.
type DeriveFunc func(row *Row) Value

// RowIndex is a column-typed table indexed by name and primary key.
type RowIndex struct {
	notifier

	mu      sync.RWMutex
	in      *name.Interner
	cat     catalog
	rows    []*Row
	pos     map[ksid.ID]int
	idx     indexes
	version uint64
}

// New returns an empty table with the given columns.
//
// A nil interner means [name.Default].
func New(in *name.Interner, columns []Column) (*RowIndex, error) {
	if in == nil {
		in = name.Default()
	}
	cat, err := newCatalog(columns)
	if err != nil {
		return nil, err
	}
	if n := countPrimaryKeys(columns); n > 1 {
		return nil, fmt.Errorf("%d primary key columns, at most one allowed", n)
	}
	return &RowIndex{
		in:  in,
		cat: cat,
		pos: make(map[ksid.ID]int),
		idx: newIndexes(),
	}, nil
}

func countPrimaryKeys(columns []Column) int {
	n := 0
	for _, c := range columns {
		if c.Type == TypePrimaryKey {
			n++
		}
	}
	return n
}

// Interner returns the interner used when text is promoted to names.
func (t *RowIndex) Interner() *name.Interner {
	return t.in
}

// ColumnCount returns the number of columns.
func (t *RowIndex) ColumnCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cat.len()
}

// RowCount returns the number of rows.
func (t *RowIndex) RowCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Columns returns a copy of the column catalog.
func (t *RowIndex) Columns() []Column {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cat.clone()
}

// ColumnName returns the name of column i.
func (t *RowIndex) ColumnName(i int) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i < 0 || i >= t.cat.len() {
		return "", fmt.Errorf("%w: %d", ErrInvalidColumn, i)
	}
	return t.cat.cols[i].Name, nil
}

// ColumnType returns the type of column i.
func (t *RowIndex) ColumnType(i int) (ColumnType, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i < 0 || i >= t.cat.len() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidColumn, i)
	}
	return t.cat.cols[i].Type, nil
}

// ColumnIndex returns the position of the named column, ignoring case, or -1.
func (t *RowIndex) ColumnIndex(colName string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cat.index(colName)
}

// HasColumn reports whether the named column exists, ignoring case.
func (t *RowIndex) HasColumn(colName string) bool {
	return t.ColumnIndex(colName) >= 0
}

// Lookup returns the position and definition of the named column.
func (t *RowIndex) Lookup(colName string) (int, Column, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, err := t.cat.lookup(colName)
	if err != nil {
		return -1, Column{}, err
	}
	return i, t.cat.cols[i], nil
}

// PrimaryKeyColumn returns the position of the primary key column, or -1.
func (t *RowIndex) PrimaryKeyColumn() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cat.primaryKey()
}

// ValueAt returns the value at (row, col).
func (t *RowIndex) ValueAt(row, col int) (Value, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if err := t.checkCell(row, col); err != nil {
		return Value{}, err
	}
	return t.rows[row].values[col], nil
}

// Row returns row i.
func (t *RowIndex) Row(i int) (*Row, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i < 0 || i >= len(t.rows) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRow, i)
	}
	return t.rows[i], nil
}

// Rows iterates over a snapshot of the rows with their positions.
func (t *RowIndex) Rows() iter.Seq2[int, *Row] {
	return func(yield func(int, *Row) bool) {
		t.mu.RLock()
		rows := slices.Clone(t.rows)
		t.mu.RUnlock()
		for i, r := range rows {
			if !yield(i, r) {
				return
			}
		}
	}
}

// Version returns a counter incremented by every mutation.
func (t *RowIndex) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

// NameCount returns the number of distinct names indexed.
func (t *RowIndex) NameCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.idx.names.len()
}

func (t *RowIndex) String() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cols := make([]string, 0, t.cat.len())
	for _, c := range t.cat.cols {
		cols = append(cols, c.Name+":"+c.Type.String())
	}
	return fmt.Sprintf("RowIndex(%d rows; %s)", len(t.rows), strings.Join(cols, ", "))
}

// HasName reports whether any row holds n. Nil and blank names are never
// present.
func (t *RowIndex) HasName(n *name.Name) bool {
	if n.IsBlank() {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.idx.names.has(n.Key())
}

// HasNameString is HasName for a raw name string.
func (t *RowIndex) HasNameString(s string) bool {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.idx.names.has(key)
}

// RowsForName returns the rows holding n in table order.
func (t *RowIndex) RowsForName(n *name.Name) []*Row {
	if n.IsBlank() {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.resolve(t.idx.names.ids(n.Key()))
}

// RowsForPrimaryKey returns the rows whose primary key is k, in table order.
func (t *RowIndex) RowsForPrimaryKey(k string) []*Row {
	if k == "" {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.resolve(t.idx.keys.ids(k))
}

func (t *RowIndex) resolve(ids []ksid.ID) []*Row {
	if len(ids) == 0 {
		return nil
	}
	pos := make([]int, 0, len(ids))
	for _, id := range ids {
		pos = append(pos, t.pos[id])
	}
	slices.Sort(pos)
	out := make([]*Row, len(pos))
	for i, p := range pos {
		out[i] = t.rows[p]
	}
	return out
}

func (t *RowIndex) checkCell(row, col int) error {
	if row < 0 || row >= len(t.rows) {
		return fmt.Errorf("%w: %d", ErrInvalidRow, row)
	}
	if col < 0 || col >= t.cat.len() {
		return fmt.Errorf("%w: %d", ErrInvalidColumn, col)
	}
	return nil
}

// blank returns the empty value of a column type.
func blank(typ ColumnType, in *name.Interner) Value {
	return Coerce(Text(""), typ, in)
}

// AddColumn appends a column. Existing rows get a blank value. A new
// primary key column demotes the previous one to text.
func (t *RowIndex) AddColumn(colName string, typ ColumnType) error {
	t.mu.Lock()
	if err := t.cat.insert(t.cat.len(), Column{Name: colName, Type: typ}); err != nil {
		t.mu.Unlock()
		return err
	}
	if typ == TypePrimaryKey {
		t.demotePrimaryKey(t.cat.len() - 1)
	}
	v := blank(typ, t.in)
	for i, r := range t.rows {
		t.rows[i] = &Row{id: r.id, values: append(slices.Clip(r.values), v)}
	}
	t.version++
	t.mu.Unlock()
	t.emit(headerChanged(), dataChanged())
	return nil
}

// AddRow appends a row. values must have one entry per column; on error the
// table is unchanged.
func (t *RowIndex) AddRow(values []Value) (*Row, error) {
	t.mu.Lock()
	if len(values) != t.cat.len() {
		t.mu.Unlock()
		return nil, &RowArityError{Want: t.cat.len(), Got: len(values)}
	}
	r := t.appendRow(values)
	i := len(t.rows) - 1
	t.version++
	t.mu.Unlock()
	t.emit(rowsInserted(i, i))
	return r, nil
}

// AddRows appends many rows at once with a single notification. Every row is
// checked before any is added.
func (t *RowIndex) AddRows(rows [][]Value) error {
	if len(rows) == 0 {
		return nil
	}
	t.mu.Lock()
	for i, values := range rows {
		if len(values) != t.cat.len() {
			t.mu.Unlock()
			return &RowArityError{Row: i + 1, Want: t.cat.len(), Got: len(values)}
		}
	}
	first := len(t.rows)
	t.rows = slices.Grow(t.rows, len(rows))
	for _, values := range rows {
		t.appendRow(values)
	}
	last := len(t.rows) - 1
	t.version++
	t.mu.Unlock()
	t.emit(rowsInserted(first, last))
	return nil
}

func (t *RowIndex) appendRow(values []Value) *Row {
	r := &Row{id: ksid.NewID(), values: make([]Value, len(values))}
	for c, v := range values {
		v = promote(v, t.cat.cols[c].Type, t.in)
		r.values[c] = v
		t.idx.add(v, r.id)
	}
	t.pos[r.id] = len(t.rows)
	t.rows = append(t.rows, r)
	return r
}

// SetValue replaces one cell.
//
// Text stored in a name column is promoted to a name, and anything stored in
// the primary key column becomes a key.
func (t *RowIndex) SetValue(row, col int, v Value) error {
	t.mu.Lock()
	if err := t.checkCell(row, col); err != nil {
		t.mu.Unlock()
		return err
	}
	old := t.rows[row]
	v = promote(v, t.cat.cols[col].Type, t.in)
	t.idx.remove(old.values[col], old.id)
	values := slices.Clone(old.values)
	values[col] = v
	t.rows[row] = &Row{id: old.id, values: values}
	t.idx.add(v, old.id)
	t.version++
	t.mu.Unlock()
	t.emit(cellUpdated(row, col))
	return nil
}

// CreateColumn inserts a column at position insertAt, filling it with
// derive(row) for every row. A nil derive fills blank values. A new primary
// key column demotes the previous one to text.
//
// derive runs on a snapshot without holding the table lock, so it may read
// this table. The new row set replaces the old one in a single step. If the
// table was modified meanwhile, ErrConcurrentModification is returned and
// nothing changes.
func (t *RowIndex) CreateColumn(colName string, insertAt int, typ ColumnType, derive DeriveFunc) error {
	t.mu.RLock()
	col := Column{Name: colName, Type: typ}
	err := col.Validate()
	switch {
	case err != nil:
	case t.cat.index(colName) >= 0:
		err = &DuplicateColumnError{Column: colName}
	case insertAt < 0 || insertAt > t.cat.len():
		err = fmt.Errorf("%w: insert at %d of %d", ErrInvalidColumn, insertAt, t.cat.len())
	}
	snapshot := slices.Clone(t.rows)
	version := t.version
	t.mu.RUnlock()
	if err != nil {
		return err
	}

	derived := make([]Value, len(snapshot))
	for i, r := range snapshot {
		if derive == nil {
			derived[i] = blank(typ, t.in)
		} else {
			derived[i] = promote(derive(r), typ, t.in)
		}
	}

	t.mu.Lock()
	if t.version != version {
		t.mu.Unlock()
		return fmt.Errorf("create column %q: %w", colName, ErrConcurrentModification)
	}
	if typ == TypePrimaryKey {
		// Before the insert, so column positions still match the rows.
		t.demotePrimaryKey(-1)
	}
	if err := t.cat.insert(insertAt, col); err != nil {
		t.mu.Unlock()
		return err
	}
	rows := make([]*Row, len(t.rows))
	for i, r := range t.rows {
		values := make([]Value, 0, len(r.values)+1)
		values = append(values, r.values[:insertAt]...)
		values = append(values, derived[i])
		values = append(values, r.values[insertAt:]...)
		rows[i] = &Row{id: r.id, values: values}
		t.idx.add(derived[i], r.id)
	}
	t.rows = rows
	t.version++
	t.mu.Unlock()
	t.emit(headerChanged(), dataChanged())
	return nil
}

// ChangeColumnType converts every cell of the named column.
//
// Text converts to and from both names and primary keys; names and primary
// keys do not convert into each other. The conversion is checked before any
// cell changes. Making a column the primary key demotes the previous primary
// key column to text. Changing to the current type does nothing.
func (t *RowIndex) ChangeColumnType(colName string, to ColumnType) error {
	t.mu.Lock()
	c, err := t.cat.lookup(colName)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	from := t.cat.cols[c].Type
	if from == to {
		t.mu.Unlock()
		return nil
	}
	if !CanConvert(from, to) {
		t.mu.Unlock()
		return &UnsupportedConversionError{Column: t.cat.cols[c].Name, From: from, To: to}
	}
	if to == TypePrimaryKey {
		t.demotePrimaryKey(c)
	}
	t.convertColumn(c, to)
	t.version++
	t.mu.Unlock()
	t.emit(headerChanged(), dataChanged())
	return nil
}

// demotePrimaryKey converts every primary key column other than keep to text
// and clears the key index. It must be called with the write lock held.
func (t *RowIndex) demotePrimaryKey(keep int) {
	for c, col := range t.cat.cols {
		if c != keep && col.Type == TypePrimaryKey {
			t.idx.keys.reset()
			t.convertColumn(c, TypeText)
		}
	}
}

// convertColumn must be called with the write lock held.
func (t *RowIndex) convertColumn(c int, to ColumnType) {
	for i, r := range t.rows {
		old := r.values[c]
		v := Coerce(old, to, t.in)
		if v == old {
			continue
		}
		t.idx.remove(old, r.id)
		values := slices.Clone(r.values)
		values[c] = v
		t.rows[i] = &Row{id: r.id, values: values}
		t.idx.add(v, r.id)
	}
	t.cat.setType(c, to)
}
