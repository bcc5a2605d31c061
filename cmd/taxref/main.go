// Package main is the entry point for taxref.
//
// taxref loads a Darwin Core style delimited file, matches every scientific
// name column against a reference checklist (a local file or the ITIS export)
// and writes the annotated table and a match report. Configuration is read
// from CLI flags and an optional YAML file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/maruel/taxref/internal/config"
	"github.com/maruel/taxref/internal/report"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "taxref: %v\n", err)
		os.Exit(1)
	}
}

// listFlag is a repeatable string flag.
type listFlag []string

func (l *listFlag) String() string {
	return strings.Join(*l, ",")
}

func (l *listFlag) Set(s string) error {
	*l = append(*l, s)
	return nil
}

func mainImpl() error {
	version := flag.Bool("version", false, "Print version and exit")
	in := flag.String("in", "", "Delimited file to check (required)")
	against := flag.String("against", "", "Reference checklist file, or \"itis\" to download the ITIS export (required)")
	column := flag.String("column", "", "Name column to match; defaults to every name column")
	unrollKey := flag.String("unroll", "", "Parent key column of the reference to unroll into rc:<rank> columns (e.g. parentNameUsageID)")
	out := flag.String("out", "", "Write the annotated table to this file, \"-\" for stdout")
	format := flag.String("format", "", "Output format (csv, tsv, json, parquet); overrides the -out extension")
	reportPath := flag.String("report", "", "Write the JSON match report to this file, \"-\" for stdout")
	schema := flag.Bool("schema", false, "Print the JSON Schema of the match report and exit")
	configPath := flag.String("config", "", "YAML configuration file")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	watch := flag.Bool("watch", false, "Run again whenever the input or reference file changes")
	var joins listFlag
	flag.Var(&joins, "join", "Copy a reference column next to a matched name column, as from:against; repeatable")
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}

	if *version {
		printVersion()
		return nil
	}
	if *schema {
		b, err := report.Schema()
		if err != nil {
			return err
		}
		_, err = fmt.Printf("%s\n", b)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	ll := &slog.LevelVar{}
	ll.Set(slog.LevelInfo)
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			val := a.Value.Any()
			skip := false
			switch t := val.(type) {
			case string:
				skip = t == ""
			case bool:
				skip = !t
			case uint64:
				skip = t == 0
			case int64:
				skip = t == 0
			case float64:
				skip = t == 0
			case time.Time:
				skip = t.IsZero()
			case time.Duration:
				skip = t == 0
			case nil:
				skip = true
			}
			if skip {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	switch *logLevel {
	case "debug":
		ll.Set(slog.LevelDebug)
	case "info":
	case "warn":
		ll.Set(slog.LevelWarn)
	case "error":
		ll.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %q", *logLevel)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	if *format != "" {
		cfg.Output.Format = *format
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	if *in == "" || *against == "" {
		return errors.New("-in and -against are required")
	}
	o := &options{
		in:         *in,
		against:    *against,
		column:     *column,
		joins:      joins,
		unrollKey:  *unrollKey,
		out:        *out,
		format:     *format,
		report:     *reportPath,
		configPath: *configPath,
		cfg:        cfg,
		client:     &http.Client{Timeout: 10 * time.Minute},
	}
	if !*watch {
		return run(ctx, o)
	}
	if err := run(ctx, o); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		slog.ErrorContext(ctx, "Run failed", "err", err)
	}
	return watchFiles(ctx, o.watched(), func(ctx context.Context) error {
		return run(ctx, o)
	})
}

func printVersion() {
	version, goVersion, revision, dirty := getBuildInfo()
	fmt.Printf("taxref %s\n", version)
	fmt.Printf("  Go version: %s\n", goVersion)
	fmt.Printf("  Revision:   %s\n", revision)
	if dirty {
		fmt.Printf("  Modified:   true\n")
	}
}

func getBuildInfo() (version, goVersion, revision string, dirty bool) {
	version = "unknown"
	goVersion = "unknown"
	revision = "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	version = info.Main.Version
	if version == "" || version == "(devel)" {
		version = "dev"
	}
	goVersion = info.GoVersion
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return
}
