package darwincsv

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/maruel/taxref/internal/rowindex"
	"golang.org/x/time/rate"
)

// separators are tried in this order; earlier ones win ties.
var separators = []rune{',', '\t', ';', '|'}

// DetectDelimiter guesses the field separator from a header line by counting
// the candidates. It returns ',' when none appears.
func DetectDelimiter(header string) rune {
	best, bestCount := ',', 0
	for _, sep := range separators {
		if n := strings.Count(header, string(sep)); n > bestCount {
			best, bestCount = sep, n
		}
	}
	return best
}

// DelimiterName returns a human readable name for a separator.
func DelimiterName(sep rune) string {
	switch sep {
	case ',':
		return "comma"
	case '\t':
		return "tab"
	case ';':
		return "semicolon"
	case '|':
		return "pipe"
	default:
		return fmt.Sprintf("%q", sep)
	}
}

// delimiterForPath returns the separator implied by the extension, or false
// when it must be detected.
func delimiterForPath(path string) (rune, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ',', true
	case ".tsv", ".tab":
		return '\t', true
	default:
		return 0, false
	}
}

// DarwinCSV is a loaded delimited file.
type DarwinCSV struct {
	Path      string
	Delimiter rune
	Index     *rowindex.RowIndex
}

func (d *DarwinCSV) String() string {
	return fmt.Sprintf("%s-delimited file %q with %d rows and %d columns",
		DelimiterName(d.Delimiter), filepath.Base(d.Path), d.Index.RowCount(), d.Index.ColumnCount())
}

// ReadFile loads a delimited file. The separator comes from the extension
// (.csv, .tsv, .tab) or is detected from the header line.
func ReadFile(ctx context.Context, path string, opts *Options) (*DarwinCSV, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is provided by the user on purpose
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	br := bufio.NewReaderSize(f, 64*1024)
	sep, ok := delimiterForPath(path)
	if !ok {
		// Peek returns what it could read along with an error at EOF.
		head, _ := br.Peek(64 * 1024)
		line, _, _ := strings.Cut(string(head), "\n")
		sep = DetectDelimiter(line)
	}
	o := Options{}
	if opts != nil {
		o = *opts
	}
	if o.File == "" {
		o.File = path
	}
	t, err := Read(ctx, br, sep, &o)
	if err != nil {
		return nil, err
	}
	return &DarwinCSV{Path: path, Delimiter: sep, Index: t}, nil
}

// Read parses delimited text from r and ingests it. The first record is the
// header.
func Read(ctx context.Context, r io.Reader, sep rune, opts *Options) (*rowindex.RowIndex, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	headers, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: no header row", opts.file())
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opts.file(), err)
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}

	progress := rate.Sometimes{Interval: 2 * time.Second}
	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", opts.file(), err)
		}
		rows = append(rows, rec)
		if len(rows)%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			progress.Do(func() {
				slog.InfoContext(ctx, "Reading", "file", opts.file(), "rows", len(rows))
			})
		}
	}
	return Ingest(headers, rows, opts)
}
