// Package ingest reads detector count tables from CSV, plain or compressed
// (gzip, zstd, brotli, snappy, lz4), Excel workbooks and Parquet files into
// histogram tables.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4"

	"github.com/cwbudde/algo-peaks/stats/histogram"
)

var (
	ErrUnsupportedFormat = errors.New("ingest: unsupported file format")
	ErrInvalidSkipRows   = errors.New("ingest: skip rows must be >= 0")
)

// Format is a table encoding recognized from a file name.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatCSVGzip
	FormatCSVZstd
	FormatCSVBrotli
	FormatCSVSnappy
	FormatCSVLZ4
	FormatXLSX
	FormatParquet
)

// compressed maps the suffix that follows .csv or .txt to its format.
var compressed = map[string]Format{
	".gz":  FormatCSVGzip,
	".zst": FormatCSVZstd,
	".br":  FormatCSVBrotli,
	".sz":  FormatCSVSnappy,
	".lz4": FormatCSVLZ4,
}

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatCSVGzip:
		return "csv+gzip"
	case FormatCSVZstd:
		return "csv+zstd"
	case FormatCSVBrotli:
		return "csv+brotli"
	case FormatCSVSnappy:
		return "csv+snappy"
	case FormatCSVLZ4:
		return "csv+lz4"
	case FormatXLSX:
		return "xlsx"
	case FormatParquet:
		return "parquet"
	default:
		return "unknown"
	}
}

// DetectFormat maps a file name to its Format. Legacy .xls workbooks and
// anything else unrecognized fail with ErrUnsupportedFormat.
func DetectFormat(name string) (Format, error) {
	format, _, err := splitName(name)
	return format, err
}

// Stem returns the base name of path without its table suffix, so
// "data/run.csv.gz" gives "run". Unrecognized names keep their base name.
func Stem(path string) string {
	_, stem, err := splitName(path)
	if err != nil {
		return filepath.Base(path)
	}
	return stem
}

func splitName(name string) (Format, string, error) {
	base := filepath.Base(name)
	for _, s := range []struct {
		ext    string
		format Format
	}{
		{".parquet", FormatParquet},
		{".xlsx", FormatXLSX},
	} {
		if stem, ok := trimSuffixFold(base, s.ext); ok {
			return s.format, stem, nil
		}
	}

	rest, format := base, FormatCSV
	for ext, f := range compressed {
		if stem, ok := trimSuffixFold(base, ext); ok {
			rest, format = stem, f
			break
		}
	}
	for _, plain := range []string{".csv", ".txt"} {
		if stem, ok := trimSuffixFold(rest, plain); ok {
			return format, stem, nil
		}
	}
	return FormatUnknown, "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, base)
}

func trimSuffixFold(s, suffix string) (string, bool) {
	if len(s) < len(suffix) || !strings.EqualFold(s[len(s)-len(suffix):], suffix) {
		return s, false
	}
	return s[:len(s)-len(suffix)], true
}

// Config controls how tables are located inside a file.
type Config struct {
	Schema   histogram.Schema
	SkipRows int // leading lines to drop before the header; 0 searches for it
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig uses the instrument column names and header search.
func DefaultConfig() Config {
	return Config{Schema: histogram.DefaultSchema()}
}

// WithSchema sets the required column names.
func WithSchema(s histogram.Schema) Option {
	return func(cfg *Config) {
		cfg.Schema = s
	}
}

// WithSkipRows drops n leading lines and takes the next one as the header.
func WithSkipRows(n int) Option {
	return func(cfg *Config) {
		cfg.SkipRows = n
	}
}

// ApplyOptions applies options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Load opens path and reads its table in the format implied by its name.
func Load(path string, opts ...Option) (histogram.Table, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return histogram.Table{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return histogram.Table{}, err
	}
	defer f.Close()

	if format == FormatParquet {
		st, err := f.Stat()
		if err != nil {
			return histogram.Table{}, err
		}
		t, err := ReadParquet(f, st.Size())
		if err != nil {
			return histogram.Table{}, fmt.Errorf("%s: %w", path, err)
		}
		return t, nil
	}

	t, err := read(f, format, opts...)
	if err != nil {
		return histogram.Table{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Read decodes a table from r; name selects the format as in DetectFormat.
// Parquet input is buffered in memory.
func Read(r io.Reader, name string, opts ...Option) (histogram.Table, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return histogram.Table{}, err
	}
	if format == FormatParquet {
		data, err := io.ReadAll(r)
		if err != nil {
			return histogram.Table{}, err
		}
		return ReadParquet(bytes.NewReader(data), int64(len(data)))
	}
	return read(r, format, opts...)
}

func read(r io.Reader, format Format, opts ...Option) (histogram.Table, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r, opts...)
	case FormatCSVGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return histogram.Table{}, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		return ReadCSV(zr, opts...)
	case FormatCSVZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return histogram.Table{}, fmt.Errorf("zstd: %w", err)
		}
		defer dec.Close()
		return ReadCSV(dec, opts...)
	case FormatCSVBrotli:
		return ReadCSV(brotli.NewReader(r), opts...)
	case FormatCSVSnappy:
		return ReadCSV(snappy.NewReader(r), opts...)
	case FormatCSVLZ4:
		return ReadCSV(lz4.NewReader(r), opts...)
	case FormatXLSX:
		return ReadXLSX(r, opts...)
	default:
		return histogram.Table{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
}
