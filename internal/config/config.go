// Package config holds the application configuration of the peakinfo
// command and HTTP service, loaded from an optional YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-peaks/dsp/filter/savgol"
	"github.com/cwbudde/algo-peaks/dsp/peak"
	"github.com/cwbudde/algo-peaks/internal/ingest"
	"github.com/cwbudde/algo-peaks/internal/logging"
	"github.com/cwbudde/algo-peaks/measure/peaks"
	"github.com/cwbudde/algo-peaks/stats/histogram"
)

// Defaults not owned by a library package.
const (
	DefaultAddr           = ":8080"
	DefaultMaxUploadBytes = 32 << 20
	DefaultPlotWidth      = 800
	DefaultPlotHeight     = 400
	DefaultLogLevel       = "info"
	DefaultLogFormat      = logging.FormatJSON

	// PresetOriginal reproduces the instrument workflow: the two strongest
	// peaks below sum_energy 400.
	PresetOriginal = "original"
)

var (
	ErrInvalid       = errors.New("config: invalid value")
	ErrUnknownPreset = errors.New("config: unknown preset")
)

// AnalysisConfig parameterizes the peak pipeline.
type AnalysisConfig struct {
	Window        int              `yaml:"window"`
	Order         int              `yaml:"order"`
	TopK          int              `yaml:"top_k"`
	MinProminence float64          `yaml:"min_prominence"`
	Range         *histogram.Range `yaml:"range,omitempty"`
}

// InputConfig describes how tables are read.
type InputConfig struct {
	Columns  histogram.Schema `yaml:"columns"`
	SkipRows int              `yaml:"skip_rows"` // 0 locates the header row by column names
}

// DisplayConfig controls the rendered plot.
type DisplayConfig struct {
	Range  *histogram.Range `yaml:"range,omitempty"` // nil spans [0, max energy]
	Width  int              `yaml:"width"`
	Height int              `yaml:"height"`
}

// ServerConfig holds HTTP service settings.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// LogConfig selects the logger level and encoder.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the top-level configuration.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Input    InputConfig    `yaml:"input"`
	Display  DisplayConfig  `yaml:"display"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	def := peaks.DefaultConfig()
	return &Config{
		Analysis: AnalysisConfig{
			Window: def.Window,
			Order:  def.Order,
			TopK:   def.TopK,
		},
		Input: InputConfig{Columns: histogram.DefaultSchema()},
		Display: DisplayConfig{
			Width:  DefaultPlotWidth,
			Height: DefaultPlotHeight,
		},
		Server: ServerConfig{
			Addr:           DefaultAddr,
			MaxUploadBytes: DefaultMaxUploadBytes,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyPreset overwrites the analysis section with a named preset.
func (c *Config) ApplyPreset(name string) error {
	switch name {
	case "":
		return nil
	case PresetOriginal:
		c.Analysis.TopK = peaks.DefaultTopK
		c.Analysis.Range = &histogram.Range{Min: 0, Max: 399}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
}

// Validate checks every section and reports the first problem.
func (c *Config) Validate() error {
	a := c.Analysis
	if a.Window < 1 || a.Window%2 == 0 {
		return fmt.Errorf("%w: analysis.window %d: %w", ErrInvalid, a.Window, savgol.ErrInvalidWindow)
	}
	if a.Order < 0 || a.Order >= a.Window {
		return fmt.Errorf("%w: analysis.order %d: %w", ErrInvalid, a.Order, savgol.ErrInvalidOrder)
	}
	if a.TopK < 0 {
		return fmt.Errorf("%w: analysis.top_k %d", ErrInvalid, a.TopK)
	}
	if a.MinProminence < 0 || math.IsNaN(a.MinProminence) {
		return fmt.Errorf("%w: analysis.min_prominence %v: %w", ErrInvalid, a.MinProminence, peak.ErrInvalidMinProminence)
	}
	if a.Range != nil {
		if err := a.Range.Validate(); err != nil {
			return fmt.Errorf("%w: analysis.range: %w", ErrInvalid, err)
		}
	}

	for _, name := range c.Input.Columns.Names() {
		if name == "" {
			return fmt.Errorf("%w: input.columns: empty column name", ErrInvalid)
		}
	}
	if c.Input.SkipRows < 0 {
		return fmt.Errorf("%w: input.skip_rows %d", ErrInvalid, c.Input.SkipRows)
	}

	if c.Display.Range != nil {
		if err := c.Display.Range.Validate(); err != nil {
			return fmt.Errorf("%w: display.range: %w", ErrInvalid, err)
		}
	}
	if c.Display.Width < 64 || c.Display.Height < 64 {
		return fmt.Errorf("%w: display size %dx%d", ErrInvalid, c.Display.Width, c.Display.Height)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is empty", ErrInvalid)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: server.max_upload_bytes %d", ErrInvalid, c.Server.MaxUploadBytes)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", ErrInvalid, err)
	}
	switch c.Log.Format {
	case logging.FormatJSON, logging.FormatConsole:
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format)
	}
	return nil
}

// AnalyzerOptions translates the analysis section into pipeline options.
func (c *Config) AnalyzerOptions() []peaks.Option {
	return []peaks.Option{
		peaks.WithWindow(c.Analysis.Window),
		peaks.WithOrder(c.Analysis.Order),
		peaks.WithTopK(c.Analysis.TopK),
		peaks.WithMinProminence(c.Analysis.MinProminence),
		peaks.WithRestriction(c.Analysis.Range),
	}
}

// IngestOptions translates the input section into loader options.
func (c *Config) IngestOptions() []ingest.Option {
	return []ingest.Option{
		ingest.WithSchema(c.Input.Columns),
		ingest.WithSkipRows(c.Input.SkipRows),
	}
}

// Clone returns a deep copy, so per-request overrides do not leak.
func (c *Config) Clone() *Config {
	out := *c
	out.Analysis.Range = cloneRange(c.Analysis.Range)
	out.Display.Range = cloneRange(c.Display.Range)
	return &out
}

func cloneRange(r *histogram.Range) *histogram.Range {
	if r == nil {
		return nil
	}
	rc := *r
	return &rc
}
