package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/maruel/taxref/internal/config"
	"github.com/maruel/taxref/internal/darwincsv"
	"github.com/maruel/taxref/internal/export"
	"github.com/maruel/taxref/internal/match"
	"github.com/maruel/taxref/internal/name"
	"github.com/maruel/taxref/internal/refdata"
	"github.com/maruel/taxref/internal/report"
	"github.com/maruel/taxref/internal/unroll"
	"golang.org/x/sync/errgroup"
)

// itisReference is the -against value selecting the ITIS download.
const itisReference = "itis"

type options struct {
	in         string
	against    string
	column     string
	joins      []string
	unrollKey  string
	out        string
	format     string
	report     string
	configPath string
	cfg        *config.Config
	client     *http.Client
}

// referencePath returns the local path of the reference, downloading it
// when needed.
func (o *options) referencePath(ctx context.Context) (string, error) {
	if !strings.EqualFold(o.against, itisReference) {
		return o.against, nil
	}
	if p, ok := refdata.Cached(o.cfg.Reference.URL, o.cfg.Reference.CacheDir); ok {
		slog.InfoContext(ctx, "Using cached reference", "path", p)
		return p, nil
	}
	return refdata.Fetch(ctx, o.client, o.cfg.Reference.URL, o.cfg.Reference.CacheDir)
}

// watched returns the files whose modification triggers a new run.
func (o *options) watched() []string {
	paths := []string{o.in}
	if !strings.EqualFold(o.against, itisReference) {
		paths = append(paths, o.against)
	} else if p, ok := refdata.Cached(o.cfg.Reference.URL, o.cfg.Reference.CacheDir); ok {
		paths = append(paths, p)
	}
	if o.configPath != "" {
		paths = append(paths, o.configPath)
	}
	return paths
}

// outputFormat returns the export format of o.out: -format when set, then
// the extension, then the configuration.
func (o *options) outputFormat() (export.Format, error) {
	if o.format != "" {
		return export.ParseFormat(o.format)
	}
	if f, ok := export.FormatFromPath(o.out); ok && o.out != "-" {
		return f, nil
	}
	return export.ParseFormat(o.cfg.Output.Format)
}

// load reads the input and the reference in parallel.
//
// Each file gets its own interner: the first spelling of a name decides how
// it parses, so a shared interner would make the result depend on which
// load wins the race. Matching compares lowercase keys, which do not depend
// on the interner.
func load(ctx context.Context, o *options, refPath string) (*darwincsv.DarwinCSV, *darwincsv.DarwinCSV, error) {
	var src, ref *darwincsv.DarwinCSV
	eg, ectx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		opts := o.cfg.IngestOptions(o.in)
		opts.Interner = name.NewInterner()
		var err error
		src, err = darwincsv.ReadFile(ectx, o.in, opts)
		return err
	})
	eg.Go(func() error {
		opts := o.cfg.IngestOptions(refPath)
		opts.Interner = name.NewInterner()
		var err error
		ref, err = darwincsv.ReadFile(ectx, refPath, opts)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	return src, ref, nil
}

// run loads both tables, matches them and writes the requested outputs.
func run(ctx context.Context, o *options) error {
	start := time.Now()
	refPath, err := o.referencePath(ctx)
	if err != nil {
		return err
	}

	src, ref, err := load(ctx, o, refPath)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Loaded", "input", src.String(), "reference", ref.String(), "dur", time.Since(start).Round(time.Millisecond))

	var unrolled *unroll.Result
	if o.unrollKey != "" {
		res, err := unroll.Unroll(ref.Index, unroll.Options{
			KeyColumn:   o.unrollKey,
			RankColumn:  o.cfg.Unroll.RankColumn,
			ValueColumn: o.cfg.Unroll.ValueColumn,
		})
		if err != nil {
			return fmt.Errorf("unroll %s: %w", refPath, err)
		}
		slog.InfoContext(ctx, "Unrolled reference", "rows", res.Rows, "columns", strings.Join(res.Columns, ","), "stopped", res.Stopped, "multiple", res.Multiple, "cycles", res.Cycles)
		unrolled = &res
	}

	m := match.New(src.Index, ref.Index)
	columns := m.NameColumns()
	if o.column != "" {
		columns = []string{o.column}
	}
	if len(columns) == 0 {
		return fmt.Errorf("%s: no name column", o.in)
	}
	for _, c := range columns {
		s, err := m.Summarize(c)
		if err != nil {
			return err
		}
		slog.InfoContext(ctx, "Matched", "summary", s.String())
	}

	var joined []string
	for _, j := range o.joins {
		from, to, ok := strings.Cut(j, ":")
		if !ok || from == "" || to == "" {
			return fmt.Errorf("invalid -join %q, want from:against", j)
		}
		col, err := m.Join(from, to)
		if err != nil {
			return fmt.Errorf("join %s: %w", j, err)
		}
		joined = append(joined, col)
	}
	for _, c := range columns {
		if _, err := m.AddScoreColumn(c); err != nil {
			return err
		}
	}

	if o.out != "" {
		f, err := o.outputFormat()
		if err != nil {
			return err
		}
		if err := writeTo(o.out, func(w io.Writer) error { return export.Write(f, w, src.Index) }); err != nil {
			return fmt.Errorf("failed to write %s: %w", o.out, err)
		}
		slog.InfoContext(ctx, "Wrote table", "path", o.out, "format", string(f), "rows", src.Index.RowCount())
	}
	if o.report != "" {
		r, err := report.Build(src, ref, m)
		if err != nil {
			return err
		}
		r.Joined = joined
		r.Unroll = unrolled
		if err := writeTo(o.report, func(w io.Writer) error { return report.Write(w, r) }); err != nil {
			return fmt.Errorf("failed to write %s: %w", o.report, err)
		}
	}
	slog.InfoContext(ctx, "Done", "dur", time.Since(start).Round(time.Millisecond))
	return nil
}

// writeTo calls fn with the file at path, or stdout for "-".
func writeTo(path string, fn func(io.Writer) error) error {
	if path == "-" {
		// Hide Close so the Parquet writer does not close stdout.
		return fn(struct{ io.Writer }{os.Stdout})
	}
	f, err := os.Create(path) //nolint:gosec // G304: output path is provided by the user on purpose
	if err != nil {
		return err
	}
	err = fn(f)
	// The Parquet writer closes the file itself.
	if err2 := f.Close(); err == nil && !errors.Is(err2, os.ErrClosed) {
		err = err2
	}
	return err
}
