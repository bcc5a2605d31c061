package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/maruel/taxref/internal/rowindex"
)

type jsonRow struct {
	ID     string   `json:"_id"`
	Values []string `json:"values"`
}

// WriteJSON writes t as a single JSON object:
//
//	{"columns":[{"name":"scientificName","type":"name"}],"rows":[{"_id":"...","values":["Panthera leo"]}]}
//
// Rows are streamed; the whole document is never held in memory.
func WriteJSON(w io.Writer, t Table) error {
	bw := bufio.NewWriter(w)
	cols := t.Columns()
	if cols == nil {
		cols = []rowindex.Column{}
	}
	b, err := json.Marshal(cols)
	if err != nil {
		return fmt.Errorf("failed to encode columns: %w", err)
	}
	_, _ = bw.WriteString(`{"columns":`)
	_, _ = bw.Write(b)
	_, _ = bw.WriteString(`,"rows":[`)
	buf := make([]string, 0, len(cols))
	first := true
	for i, r := range t.Rows() {
		buf = record(r, len(cols), buf)
		b, err := json.Marshal(jsonRow{ID: r.ID().String(), Values: buf})
		if err != nil {
			return fmt.Errorf("failed to encode row %d: %w", i, err)
		}
		if !first {
			_ = bw.WriteByte(',')
		}
		first = false
		_, _ = bw.Write(b)
	}
	_, _ = bw.WriteString("]}\n")
	return bw.Flush()
}
