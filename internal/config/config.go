// Package config loads the taxref YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/maruel/taxref/internal/darwincsv"
	"github.com/maruel/taxref/internal/export"
	"github.com/maruel/taxref/internal/refdata"
	"gopkg.in/yaml.v3"
)

// Config is the content of a configuration file. Zero fields take the value
// of Default.
type Config struct {
	// NameHeaders lists the headers typed as scientific names.
	NameHeaders []string `yaml:"name_headers,omitempty"`
	// PrimaryKeyHeaders lists the headers typed as primary key.
	PrimaryKeyHeaders []string        `yaml:"primary_key_headers,omitempty"`
	Reference         ReferenceConfig `yaml:"reference"`
	Output            OutputConfig    `yaml:"output"`
	Unroll            UnrollConfig    `yaml:"unroll"`
}

// ReferenceConfig selects the downloadable reference checklist.
type ReferenceConfig struct {
	URL      string `yaml:"url,omitempty"`
	CacheDir string `yaml:"cache_dir,omitempty"`
}

// OutputConfig selects the export.
type OutputConfig struct {
	// Format is used when the output path has no known extension.
	Format string `yaml:"format,omitempty"`
}

// UnrollConfig names the columns used to unroll a parent hierarchy.
type UnrollConfig struct {
	RankColumn  string `yaml:"rank_column,omitempty"`
	ValueColumn string `yaml:"value_column,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cache, err := os.UserCacheDir()
	if err != nil {
		cache = os.TempDir()
	}
	return &Config{
		NameHeaders:       append([]string(nil), darwincsv.DefaultNameHeaders...),
		PrimaryKeyHeaders: []string{"taxonID"},
		Reference: ReferenceConfig{
			URL:      refdata.DefaultURL,
			CacheDir: filepath.Join(cache, "taxref"),
		},
		Output: OutputConfig{Format: string(export.CSV)},
		Unroll: UnrollConfig{RankColumn: "taxonRank", ValueColumn: "scientificName"},
	}
}

// Load reads and validates a configuration file, merged over Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: user-specified config path
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates a configuration, merged over Default.
func Parse(data []byte) (*Config, error) {
	c := Default()
	var f Config
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	c.merge(&f)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

func (c *Config) merge(o *Config) {
	if o.NameHeaders != nil {
		c.NameHeaders = o.NameHeaders
	}
	if o.PrimaryKeyHeaders != nil {
		c.PrimaryKeyHeaders = o.PrimaryKeyHeaders
	}
	if o.Reference.URL != "" {
		c.Reference.URL = o.Reference.URL
	}
	if o.Reference.CacheDir != "" {
		c.Reference.CacheDir = o.Reference.CacheDir
	}
	if o.Output.Format != "" {
		c.Output.Format = o.Output.Format
	}
	if o.Unroll.RankColumn != "" {
		c.Unroll.RankColumn = o.Unroll.RankColumn
	}
	if o.Unroll.ValueColumn != "" {
		c.Unroll.ValueColumn = o.Unroll.ValueColumn
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs []error
	for i, h := range c.NameHeaders {
		if strings.TrimSpace(h) == "" {
			errs = append(errs, fmt.Errorf("name_headers[%d]: empty header", i))
		}
	}
	for i, h := range c.PrimaryKeyHeaders {
		if strings.TrimSpace(h) == "" {
			errs = append(errs, fmt.Errorf("primary_key_headers[%d]: empty header", i))
		}
	}
	if _, err := refdata.FileName(c.Reference.URL); err != nil {
		errs = append(errs, fmt.Errorf("reference.url: %w", err))
	}
	if c.Reference.CacheDir == "" {
		errs = append(errs, errors.New("reference.cache_dir: required"))
	}
	if _, err := export.ParseFormat(c.Output.Format); err != nil {
		errs = append(errs, fmt.Errorf("output.format: %w", err))
	}
	if c.Unroll.RankColumn == "" || c.Unroll.ValueColumn == "" {
		errs = append(errs, errors.New("unroll: rank_column and value_column are required"))
	}
	return errors.Join(errs...)
}

// IngestOptions returns the ingestion options for file.
func (c *Config) IngestOptions(file string) *darwincsv.Options {
	return &darwincsv.Options{
		File:              file,
		NameHeaders:       c.NameHeaders,
		PrimaryKeyHeaders: c.PrimaryKeyHeaders,
	}
}
