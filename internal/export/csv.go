package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
)

// WriteDelimited writes t as a delimited text file with a header row.
func WriteDelimited(w io.Writer, t Table, sep rune) error {
	bw := bufio.NewWriter(w)
	cw := csv.NewWriter(bw)
	cw.Comma = sep
	h := header(t)
	if err := cw.Write(h); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	buf := make([]string, 0, len(h))
	for i, r := range t.Rows() {
		buf = record(r, len(h), buf)
		if err := cw.Write(buf); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Flush()
}
