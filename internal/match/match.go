// Package match scores the names of one table against another.
//
// For every distinct name in a name column of the "from" table, the score is
// [FullMatch] when the "against" table holds the name, [GenusMatch] when it
// only holds the genus, and [NoMatch] otherwise.
package match

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/maruel/taxref/internal/name"
	"github.com/maruel/taxref/internal/rowindex"
)

// ErrNotNameColumn is returned when scoring a column that is not name-typed.
var ErrNotNameColumn = errors.New("not a name column")

// Score is the match quality of one name.
type Score int

const (
	// NoMatch means neither the name nor its genus was found.
	NoMatch Score = 0
	// GenusMatch means only the genus was found.
	GenusMatch Score = 80
	// FullMatch means the name was found.
	FullMatch Score = 100
)

func (s Score) String() string {
	switch s {
	case FullMatch:
		return "full"
	case GenusMatch:
		return "genus"
	case NoMatch:
		return "none"
	default:
		return fmt.Sprintf("Score(%d)", int(s))
	}
}

// ScoreName scores n against a table.
func ScoreName(against *rowindex.RowIndex, n *name.Name) Score {
	switch {
	case n.IsBlank():
		return NoMatch
	case against.HasName(n):
		return FullMatch
	case against.HasName(n.Genus()):
		return GenusMatch
	default:
		return NoMatch
	}
}

// ColumnMatch holds the score of every distinct name of one column.
type ColumnMatch struct {
	column string
	scores map[string]Score
	names  []*name.Name
}

// Column returns the name of the scored column.
func (c *ColumnMatch) Column() string {
	return c.column
}

// Len returns the number of distinct names scored.
func (c *ColumnMatch) Len() int {
	return len(c.names)
}

// ScoreName returns the score of n, and false if n is not in the column.
func (c *ColumnMatch) ScoreName(n *name.Name) (Score, bool) {
	if n == nil {
		return NoMatch, false
	}
	s, ok := c.scores[n.Key()]
	return s, ok
}

// Score returns the score of a cell value. Non-name values are not scored.
func (c *ColumnMatch) Score(v rowindex.Value) (Score, bool) {
	if v.Kind() != rowindex.TypeName {
		return NoMatch, false
	}
	return c.ScoreName(v.Name())
}

// All iterates over the distinct names in first-seen order with their score.
func (c *ColumnMatch) All() iter.Seq2[*name.Name, Score] {
	return func(yield func(*name.Name, Score) bool) {
		for _, n := range c.names {
			if !yield(n, c.scores[n.Key()]) {
				return
			}
		}
	}
}

func computeColumnMatch(from, against *rowindex.RowIndex, col int, colName string) *ColumnMatch {
	m := &ColumnMatch{column: colName, scores: make(map[string]Score)}
	for _, r := range from.Rows() {
		n := r.Value(col).Name()
		if n.IsBlank() {
			continue
		}
		if _, ok := m.scores[n.Key()]; ok {
			continue
		}
		m.scores[n.Key()] = ScoreName(against, n)
		m.names = append(m.names, n)
	}
	return m
}

type cached struct {
	m           *ColumnMatch
	fromVersion uint64
	against     uint64
}

// RowIndexMatch scores the name columns of a table against another table.
//
// Column matches are computed on first request and cached until either
// table changes. It is safe for concurrent use.
type RowIndexMatch struct {
	from    *rowindex.RowIndex
	against *rowindex.RowIndex

	mu    sync.Mutex
	cache map[string]cached
}

// New returns a matcher of from against against.
func New(from, against *rowindex.RowIndex) *RowIndexMatch {
	return &RowIndexMatch{from: from, against: against, cache: make(map[string]cached)}
}

// From returns the table being scored.
func (m *RowIndexMatch) From() *rowindex.RowIndex {
	return m.from
}

// Against returns the reference table.
func (m *RowIndexMatch) Against() *rowindex.RowIndex {
	return m.against
}

// GetColumnMatch returns the scores of the named column of the from table.
//
// It fails with a *rowindex.NoSuchColumnError for an unknown column and
// ErrNotNameColumn for a column that is not name-typed.
func (m *RowIndexMatch) GetColumnMatch(colName string) (*ColumnMatch, error) {
	col, c, err := m.from.Lookup(colName)
	if err != nil {
		return nil, err
	}
	if c.Type != rowindex.TypeName {
		return nil, fmt.Errorf("column %q: %w", c.Name, ErrNotNameColumn)
	}
	key := strings.ToLower(c.Name)
	fv, av := m.from.Version(), m.against.Version()

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.cache[key]; ok && e.fromVersion == fv && e.against == av {
		return e.m, nil
	}
	start := time.Now()
	cm := computeColumnMatch(m.from, m.against, col, c.Name)
	m.cache[key] = cached{m: cm, fromVersion: fv, against: av}
	slog.Debug("Computed column match", "column", c.Name, "names", cm.Len(), "dur", time.Since(start))
	return cm, nil
}

// NameColumns returns the name-typed columns of the from table.
func (m *RowIndexMatch) NameColumns() []string {
	var out []string
	for _, c := range m.from.Columns() {
		if c.Type == rowindex.TypeName {
			out = append(out, c.Name)
		}
	}
	return out
}
