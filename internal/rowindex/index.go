// Secondary indexes from cell keys to rows.

package rowindex

import (
	"github.com/maruel/ksid"
)

// keyIndex maps a key to the set of rows holding it.
//
// A row is counted once per cell holding the key, so removing one of two
// equal cells of a row keeps the row in the index. The owning RowIndex
// serializes access.
type keyIndex struct {
	byKey map[string]map[ksid.ID]int
}

func newKeyIndex() keyIndex {
	return keyIndex{byKey: make(map[string]map[ksid.ID]int)}
}

func (idx *keyIndex) add(key string, id ksid.ID) {
	rows := idx.byKey[key]
	if rows == nil {
		rows = make(map[ksid.ID]int)
		idx.byKey[key] = rows
	}
	rows[id]++
}

func (idx *keyIndex) remove(key string, id ksid.ID) {
	rows := idx.byKey[key]
	if rows == nil {
		return
	}
	if rows[id] <= 1 {
		delete(rows, id)
	} else {
		rows[id]--
	}
	if len(rows) == 0 {
		delete(idx.byKey, key)
	}
}

func (idx *keyIndex) has(key string) bool {
	return len(idx.byKey[key]) != 0
}

// ids returns the rows holding key, in no particular order.
func (idx *keyIndex) ids(key string) []ksid.ID {
	rows := idx.byKey[key]
	if len(rows) == 0 {
		return nil
	}
	out := make([]ksid.ID, 0, len(rows))
	for id := range rows {
		out = append(out, id)
	}
	return out
}

func (idx *keyIndex) len() int {
	return len(idx.byKey)
}

func (idx *keyIndex) reset() {
	clear(idx.byKey)
}

// indexes holds the name and primary key indexes of a table.
type indexes struct {
	names keyIndex
	keys  keyIndex
}

func newIndexes() indexes {
	return indexes{names: newKeyIndex(), keys: newKeyIndex()}
}

// add indexes one cell. Blank names and keys are not indexed.
func (x *indexes) add(v Value, id ksid.ID) {
	switch v.kind {
	case TypeName:
		if !v.n.IsBlank() {
			x.names.add(v.n.Key(), id)
		}
	case TypePrimaryKey:
		if v.s != "" {
			x.keys.add(v.s, id)
		}
	case TypeText:
	}
}

func (x *indexes) remove(v Value, id ksid.ID) {
	switch v.kind {
	case TypeName:
		if !v.n.IsBlank() {
			x.names.remove(v.n.Key(), id)
		}
	case TypePrimaryKey:
		if v.s != "" {
			x.keys.remove(v.s, id)
		}
	case TypeText:
	}
}
