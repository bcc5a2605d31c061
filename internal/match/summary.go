package match

import (
	"fmt"
)

// Counts tallies matches by score.
type Counts struct {
	Full  int `json:"full" jsonschema:"description=Entries found in the reference"`
	Genus int `json:"genus" jsonschema:"description=Entries whose genus only was found"`
	None  int `json:"none" jsonschema:"description=Entries not found"`
	Blank int `json:"blank" jsonschema:"description=Blank entries, never matched"`
}

// Total returns the number of entries counted.
func (c Counts) Total() int {
	return c.Full + c.Genus + c.None + c.Blank
}

// Matched returns the number of full and genus matches.
func (c Counts) Matched() int {
	return c.Full + c.Genus
}

func (c *Counts) add(s Score) {
	switch s {
	case FullMatch:
		c.Full++
	case GenusMatch:
		c.Genus++
	case NoMatch:
		c.None++
	default:
		c.None++
	}
}

// Summary describes the matches of one column.
type Summary struct {
	Column   string `json:"column" jsonschema:"description=Name column of the source table"`
	Distinct Counts `json:"distinct" jsonschema:"description=Distinct names by score"`
	Rows     Counts `json:"rows" jsonschema:"description=Rows by score of their name"`
}

func (s Summary) String() string {
	total := s.Rows.Total() - s.Rows.Blank
	pct := 0.0
	if total > 0 {
		pct = 100 * float64(s.Rows.Matched()) / float64(total)
	}
	return fmt.Sprintf("%s: %d of %d rows matched (%.1f%%): %d full, %d genus, %d none, %d blank",
		s.Column, s.Rows.Matched(), total, pct, s.Rows.Full, s.Rows.Genus, s.Rows.None, s.Rows.Blank)
}

// Summarize counts the matches of the named column, per distinct name and
// per row.
func (m *RowIndexMatch) Summarize(colName string) (Summary, error) {
	cm, err := m.GetColumnMatch(colName)
	if err != nil {
		return Summary{}, err
	}
	col, c, err := m.from.Lookup(colName)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{Column: c.Name}
	for _, score := range cm.All() {
		s.Distinct.add(score)
	}
	for _, r := range m.from.Rows() {
		v := r.Value(col)
		if v.IsBlank() {
			s.Rows.Blank++
			continue
		}
		score, _ := cm.Score(v)
		s.Rows.add(score)
	}
	return s, nil
}

// SummarizeAll summarizes every name column of the from table.
func (m *RowIndexMatch) SummarizeAll() ([]Summary, error) {
	var out []Summary
	for _, c := range m.NameColumns() {
		s, err := m.Summarize(c)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

