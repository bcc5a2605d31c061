// Package unroll flattens a parent-key hierarchy into one column per rank.
//
// Darwin Core checklists usually link each taxon to its parent through a
// key column such as parentNameUsageID. Unroll follows that chain from
// every row through the primary key index and writes the name found at each
// rank into an "rc:<rank>" column of the starting row, so that a species
// row ends up with rc:genus, rc:family, ... filled in.
package unroll

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maruel/ksid"
	"github.com/maruel/taxref/internal/rowindex"
)

// ErrNoPrimaryKey is returned when the table has no primary key column.
var ErrNoPrimaryKey = errors.New("table has no primary key column")

// Options select the columns used to unroll.
type Options struct {
	// KeyColumn holds the primary key of the parent row. Required.
	KeyColumn string
	// RankColumn names the rank of each row. Defaults to "taxonRank".
	RankColumn string
	// ValueColumn holds the value copied at each rank. Defaults to
	// "scientificName".
	ValueColumn string
	// Prefix of created columns. Defaults to "rc:".
	Prefix string
}

func (o *Options) defaults() {
	if o.RankColumn == "" {
		o.RankColumn = "taxonRank"
	}
	if o.ValueColumn == "" {
		o.ValueColumn = "scientificName"
	}
	if o.Prefix == "" {
		o.Prefix = "rc:"
	}
}

// StatusColumn returns the name of the column holding per-row status.
func (o *Options) StatusColumn() string {
	p := o.Prefix
	if p == "" {
		p = "rc:"
	}
	return p + "status"
}

// Result counts what Unroll did.
type Result struct {
	Rows     int      `json:"rows"`
	Columns  []string `json:"columns"`
	Stopped  int      `json:"stopped"`
	Multiple int      `json:"multiple"`
	Cycles   int      `json:"cycles"`
}

// Unroll follows the parent chain of every row of t and fills one column per
// rank. Notifications are silenced for the duration and flushed at the end.
//
// The status column records why a chain ended early: a row without rank,
// a parent key not found, a key matching several rows, or a cycle.
func Unroll(t *rowindex.RowIndex, opts Options) (Result, error) {
	opts.defaults()
	var res Result
	pk := t.PrimaryKeyColumn()
	if pk < 0 {
		return res, ErrNoPrimaryKey
	}
	keyCol, _, err := t.Lookup(opts.KeyColumn)
	if err != nil {
		return res, fmt.Errorf("key column: %w", err)
	}
	rankCol, _, err := t.Lookup(opts.RankColumn)
	if err != nil {
		return res, fmt.Errorf("rank column: %w", err)
	}
	valueCol, valueDef, err := t.Lookup(opts.ValueColumn)
	if err != nil {
		return res, fmt.Errorf("value column: %w", err)
	}

	rankType := valueDef.Type
	if rankType == rowindex.TypePrimaryKey {
		rankType = rowindex.TypeText
	}

	start := time.Now()
	t.Silence()
	defer t.Unsilence()

	statusCol, err := ensureColumn(t, opts.StatusColumn(), rowindex.TypeText, &res)
	if err != nil {
		return res, err
	}
	n := t.RowCount()
	for i := range n {
		status, err := unrollRow(t, i, pk, keyCol, rankCol, valueCol, rankType, &opts, &res)
		if err != nil {
			return res, fmt.Errorf("row %d: %w", i, err)
		}
		if err := t.SetValue(i, statusCol, rowindex.Text(status)); err != nil {
			return res, err
		}
		res.Rows++
	}
	slog.Debug("Unrolled", "rows", res.Rows, "columns", len(res.Columns), "stopped", res.Stopped, "multiple", res.Multiple, "cycles", res.Cycles, "dur", time.Since(start))
	return res, nil
}

func unrollRow(t *rowindex.RowIndex, i, pk, keyCol, rankCol, valueCol int, valueType rowindex.ColumnType, opts *Options, res *Result) (string, error) {
	cur, err := t.Row(i)
	if err != nil {
		return "", err
	}
	visited := map[ksid.ID]struct{}{cur.ID(): {}}
	for {
		id := cur.Value(pk).String()
		rank := strings.TrimSpace(cur.Value(rankCol).String())
		if rank == "" {
			res.Stopped++
			return fmt.Sprintf("Stopped at #%s: no column name", id), nil
		}
		col, err := ensureColumn(t, opts.Prefix+rank, valueType, res)
		if err != nil {
			return "", err
		}
		v := cur.Value(valueCol)
		if v.IsBlank() {
			v = rowindex.Text(id)
		}
		if err := t.SetValue(i, col, v); err != nil {
			return "", err
		}

		parent := strings.TrimSpace(cur.Value(keyCol).String())
		if parent == "" {
			return "", nil
		}
		rows := t.RowsForPrimaryKey(parent)
		switch {
		case len(rows) == 0:
			res.Stopped++
			return fmt.Sprintf("Stopped at #%s: not found", parent), nil
		case len(rows) > 1:
			res.Multiple++
			return "Multiple values found for #" + parent, nil
		case rows[0].ID() == cur.ID():
			return "", nil
		}
		if _, ok := visited[rows[0].ID()]; ok {
			res.Cycles++
			return "Cycle at #" + parent, nil
		}
		cur = rows[0]
		visited[cur.ID()] = struct{}{}
	}
}

// ensureColumn returns the position of the named column, appending it when
// missing.
func ensureColumn(t *rowindex.RowIndex, colName string, typ rowindex.ColumnType, res *Result) (int, error) {
	if c := t.ColumnIndex(colName); c >= 0 {
		return c, nil
	}
	if err := t.CreateColumn(colName, t.ColumnCount(), typ, nil); err != nil {
		return -1, err
	}
	res.Columns = append(res.Columns, colName)
	return t.ColumnIndex(colName), nil
}
