package match

import (
	"fmt"

	"github.com/maruel/taxref/internal/rowindex"
)

// Cell values written by Join when no single against value applies.
const (
	JoinNotMatched = "(not matched)"
	JoinMultiple   = "(multiple)"
	JoinNull       = "(null)"
)

// JoinColumnName returns the name of the column created by Join.
func JoinColumnName(fromCol, againstCol string) string {
	return fmt.Sprintf("matched_%s_to_%s", fromCol, againstCol)
}

// Join copies againstCol of the against table into the from table, next to
// the name column fromCol, for rows whose name matches exactly one against
// row. It returns the name of the new text column.
func (m *RowIndexMatch) Join(fromCol, againstCol string) (string, error) {
	fc, fcol, err := m.from.Lookup(fromCol)
	if err != nil {
		return "", err
	}
	if fcol.Type != rowindex.TypeName {
		return "", fmt.Errorf("column %q: %w", fcol.Name, ErrNotNameColumn)
	}
	ac, acol, err := m.against.Lookup(againstCol)
	if err != nil {
		return "", err
	}
	newName := JoinColumnName(fcol.Name, acol.Name)
	err = m.from.CreateColumn(newName, fc+1, rowindex.TypeText, func(r *rowindex.Row) rowindex.Value {
		rows := m.against.RowsForName(r.Value(fc).Name())
		switch len(rows) {
		case 0:
			return rowindex.Text(JoinNotMatched)
		case 1:
			if v := rows[0].Value(ac); !v.IsBlank() {
				return rowindex.Text(v.String())
			}
			return rowindex.Text(JoinNull)
		default:
			return rowindex.Text(JoinMultiple)
		}
	})
	if err != nil {
		return "", err
	}
	return newName, nil
}

// ScoreColumnName returns the name of the column created by AddScoreColumn.
func ScoreColumnName(col string) string {
	return col + "_match"
}

// AddScoreColumn inserts a text column after the name column col holding the
// score of each row: "full", "genus", "none", or "" for blank names. It
// returns the name of the new column.
func (m *RowIndexMatch) AddScoreColumn(col string) (string, error) {
	cm, err := m.GetColumnMatch(col)
	if err != nil {
		return "", err
	}
	c, def, err := m.from.Lookup(col)
	if err != nil {
		return "", err
	}
	newName := ScoreColumnName(def.Name)
	err = m.from.CreateColumn(newName, c+1, rowindex.TypeText, func(r *rowindex.Row) rowindex.Value {
		s, ok := cm.Score(r.Value(c))
		if !ok {
			return rowindex.Text("")
		}
		return rowindex.Text(s.String())
	})
	if err != nil {
		return "", err
	}
	return newName, nil
}
