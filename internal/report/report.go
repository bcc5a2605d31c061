// Package report describes the outcome of matching a table against a
// reference, as JSON.
package report

import (
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/maruel/taxref/internal/darwincsv"
	"github.com/maruel/taxref/internal/match"
	"github.com/maruel/taxref/internal/rowindex"
	"github.com/maruel/taxref/internal/unroll"
)

// Table describes one loaded file.
type Table struct {
	Path        string   `json:"path" jsonschema:"description=File the table was loaded from"`
	Delimiter   string   `json:"delimiter" jsonschema:"description=Field separator detected or implied by the extension"`
	Rows        int      `json:"rows" jsonschema:"description=Number of data rows"`
	Columns     int      `json:"columns" jsonschema:"description=Number of columns including derived ones"`
	NameColumns []string `json:"name_columns,omitempty" jsonschema:"description=Columns typed as scientific names"`
	Names       int      `json:"names" jsonschema:"description=Distinct non-blank names indexed"`
}

// Report is the match report.
type Report struct {
	Generated string          `json:"generated" jsonschema:"description=Report creation timestamp (RFC3339)"`
	Source    Table           `json:"source" jsonschema:"description=Table being checked"`
	Reference Table           `json:"reference" jsonschema:"description=Reference checklist"`
	Summaries []match.Summary `json:"summaries" jsonschema:"description=Match counts per name column of the source"`
	Joined    []string        `json:"joined,omitempty" jsonschema:"description=Columns copied from the reference"`
	Unroll    *unroll.Result  `json:"unroll,omitempty" jsonschema:"description=Hierarchy unrolling of the reference"`
}

func describe(d *darwincsv.DarwinCSV) Table {
	t := Table{
		Path:      d.Path,
		Delimiter: darwincsv.DelimiterName(d.Delimiter),
		Rows:      d.Index.RowCount(),
		Columns:   d.Index.ColumnCount(),
		Names:     d.Index.NameCount(),
	}
	for _, c := range d.Index.Columns() {
		if c.Type == rowindex.TypeName {
			t.NameColumns = append(t.NameColumns, c.Name)
		}
	}
	return t
}

// Build summarizes every name column of m's from table. src and ref are the
// files m was built from.
func Build(src, ref *darwincsv.DarwinCSV, m *match.RowIndexMatch) (*Report, error) {
	if src.Index != m.From() || ref.Index != m.Against() {
		return nil, errors.New("report: tables do not belong to the match")
	}
	s, err := m.SummarizeAll()
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = []match.Summary{}
	}
	return &Report{
		Generated: time.Now().UTC().Format(time.RFC3339),
		Source:    describe(src),
		Reference: describe(ref),
		Summaries: s,
	}, nil
}

// Write writes r as indented JSON.
func Write(w io.Writer, r *Report) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(r)
}

// Schema returns the JSON Schema of Report.
func Schema() ([]byte, error) {
	r := jsonschema.Reflector{DoNotReference: true}
	s := r.Reflect(&Report{})
	s.Title = "taxref match report"
	return json.MarshalIndent(s, "", "  ")
}
