package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-peaks/internal/config"
	"github.com/cwbudde/algo-peaks/internal/ingest"
	"github.com/cwbudde/algo-peaks/internal/render"
	"github.com/cwbudde/algo-peaks/measure/peaks"
	"github.com/cwbudde/algo-peaks/stats/histogram"
)

const (
	formatText = "text"
	formatJSON = "json"
)

type analyzeOptions struct {
	format  string
	plot    string
	plotDir string
	jobs    int
	preset  string

	window        int
	order         int
	top           int
	minProminence float64
	skipRows      int
	min, max      int
	displayMin    int
	displayMax    int
}

// fileReport is the per-file outcome of an analyze run.
type fileReport struct {
	File       string             `json:"file"`
	Found      bool               `json:"found"`
	Peaks      []peaks.RankedPeak `json:"peaks"`
	Candidates int                `json:"candidates"`
	Histogram  histogram.Summary  `json:"histogram"`
	Range      *histogram.Range   `json:"range,omitempty"`
	Plot       string             `json:"plot,omitempty"`

	ranking peaks.Ranking
}

func newAnalyzeCommand(a *app) *cobra.Command {
	o := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze [flags] FILE...",
		Short: "Report the dominant peaks of one or more tables",
		Long: `Reads CSV (optionally .gz, .zst, .br, .sz or .lz4 compressed), Excel
.xlsx or Parquet tables with the columns CH1(ch), CH2(ch) and Counts, and
prints the ranked peaks of the combined-energy histogram. A file without
peaks is not an error.

With --plot-dir each input gets <name>_1d_histogram_with_peaks.png; inputs
sharing a name get -2, -3 and so on in argument order.`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usagef("analyze needs at least one file")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.resolve(cmd, a.cfg, len(args))
			if err != nil {
				return err
			}
			reports, err := o.run(cmd.Context(), cfg, a.log, args)
			if err != nil {
				return err
			}
			return o.print(cmd.OutOrStdout(), reports)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.format, "format", "f", formatText, "output format: text or json")
	f.StringVar(&o.plot, "plot", "", "write the plot of a single input to this PNG file")
	f.StringVar(&o.plotDir, "plot-dir", "", "write one PNG plot per input into this directory")
	f.IntVarP(&o.jobs, "jobs", "j", runtime.NumCPU(), "files analyzed in parallel")
	f.StringVar(&o.preset, "preset", "", `analysis preset ("original": top 2 below sum_energy 400)`)
	f.IntVar(&o.window, "window", 0, "smoothing window length (odd)")
	f.IntVar(&o.order, "order", 0, "smoothing polynomial order")
	f.IntVarP(&o.top, "top", "k", 0, "number of peaks to report (0 reports every candidate)")
	f.Float64Var(&o.minProminence, "min-prominence", 0, "drop candidates below this prominence")
	f.IntVar(&o.skipRows, "skip-rows", 0, "lines before the header row (0 searches for it)")
	f.IntVar(&o.min, "min", 0, "lowest sum_energy considered for ranking")
	f.IntVar(&o.max, "max", 0, "highest sum_energy considered for ranking")
	f.IntVar(&o.displayMin, "display-min", 0, "lowest sum_energy drawn in the plot")
	f.IntVar(&o.displayMax, "display-max", 0, "highest sum_energy drawn in the plot")
	return cmd
}

// resolve overlays the changed flags on a copy of the loaded configuration.
func (o *analyzeOptions) resolve(cmd *cobra.Command, base *config.Config, files int) (*config.Config, error) {
	if o.format != formatText && o.format != formatJSON {
		return nil, usagef("unsupported format %q: must be text or json", o.format)
	}
	if o.plot != "" && files != 1 {
		return nil, usagef("--plot takes a single input; use --plot-dir for %d files", files)
	}
	if o.plot != "" && o.plotDir != "" {
		return nil, usagef("--plot and --plot-dir are exclusive")
	}
	if o.jobs < 1 {
		return nil, usagef("--jobs must be >= 1")
	}

	cfg := base.Clone()
	if err := cfg.ApplyPreset(o.preset); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("window", func() { cfg.Analysis.Window = o.window })
	set("order", func() { cfg.Analysis.Order = o.order })
	set("top", func() { cfg.Analysis.TopK = o.top })
	set("min-prominence", func() { cfg.Analysis.MinProminence = o.minProminence })
	set("skip-rows", func() { cfg.Input.SkipRows = o.skipRows })

	if flags.Changed("min") || flags.Changed("max") {
		r := histogram.Range{Min: 0, Max: math.MaxInt}
		if cfg.Analysis.Range != nil {
			r = *cfg.Analysis.Range
		}
		set("min", func() { r.Min = o.min })
		set("max", func() { r.Max = o.max })
		cfg.Analysis.Range = &r
	}

	if flags.Changed("display-min") || flags.Changed("display-max") {
		if cfg.Display.Range == nil && flags.Changed("display-min") != flags.Changed("display-max") {
			return nil, usagef("--display-min and --display-max must be given together")
		}
		r := histogram.Range{}
		if cfg.Display.Range != nil {
			r = *cfg.Display.Range
		}
		set("display-min", func() { r.Min = o.displayMin })
		set("display-max", func() { r.Max = o.displayMax })
		cfg.Display.Range = &r
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run analyzes every file with at most o.jobs in flight. Reports keep the
// order of files.
func (o *analyzeOptions) run(ctx context.Context, cfg *config.Config, log *zap.Logger, files []string) ([]fileReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	analyzer, err := peaks.NewAnalyzer(cfg.AnalyzerOptions()...)
	if err != nil {
		return nil, &usageError{err: err}
	}

	plots := o.plotPaths(files)
	reports := make([]fileReport, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.jobs)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rep, err := analyzeFile(cfg, analyzer, log, path, plots[i])
			if err != nil {
				return err
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func analyzeFile(cfg *config.Config, analyzer *peaks.Analyzer, log *zap.Logger, path, plot string) (fileReport, error) {
	start := time.Now()
	table, err := ingest.Load(path, cfg.IngestOptions()...)
	if err != nil {
		return fileReport{}, err
	}
	res, err := analyzer.AnalyzeTable(table, cfg.Input.Columns)
	if err != nil {
		return fileReport{}, fmt.Errorf("%s: %w", path, err)
	}

	rep := fileReport{
		File:       path,
		Found:      !res.Ranking.Empty(),
		Peaks:      res.Ranking.Peaks,
		Candidates: len(res.Candidates),
		Histogram:  res.Summary,
		Range:      res.Ranking.Restriction,
		ranking:    res.Ranking,
	}

	if plot != "" {
		if err := writePlot(plot, res, cfg); err != nil {
			return fileReport{}, fmt.Errorf("%s: %w", path, err)
		}
		rep.Plot = plot
	}

	log.Info("analyzed",
		zap.String("file", path),
		zap.Int("bins", res.Series.Len()),
		zap.Int("candidates", len(res.Candidates)),
		zap.Bool("found", rep.Found),
		zap.Int("peaks", len(rep.Peaks)),
		zap.Duration("duration", time.Since(start)),
	)
	return rep, nil
}

// plotPaths returns the plot file of each input, or "" when no plot is
// wanted. Under --plot-dir inputs with the same stem are numbered so that no
// two workers write the same file.
func (o *analyzeOptions) plotPaths(files []string) []string {
	out := make([]string, len(files))
	switch {
	case o.plot != "":
		out[0] = o.plot
	case o.plotDir != "":
		taken := make(map[string]bool, len(files))
		for i, path := range files {
			stem := ingest.Stem(path)
			name := stem
			for n := 2; taken[strings.ToLower(name)]; n++ {
				name = fmt.Sprintf("%s-%d", stem, n)
			}
			taken[strings.ToLower(name)] = true
			out[i] = filepath.Join(o.plotDir, name+"_"+render.DefaultFileName)
		}
	}
	return out
}

func writePlot(path string, res peaks.Result, cfg *config.Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = render.WritePNG(f, res,
		render.WithSize(cfg.Display.Width, cfg.Display.Height),
		render.WithDisplay(cfg.Display.Range),
	)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func (o *analyzeOptions) print(w io.Writer, reports []fileReport) error {
	if o.format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}
	for i, rep := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := printText(w, rep, len(reports) > 1); err != nil {
			return err
		}
	}
	return nil
}
