// Package server exposes the peak analysis over HTTP: upload a table, get
// the ranked peaks as JSON or the rendered plot as PNG. Analysis counters
// are served in the Prometheus text format on /metrics.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-peaks/dsp/filter/savgol"
	"github.com/cwbudde/algo-peaks/dsp/peak"
	"github.com/cwbudde/algo-peaks/internal/config"
	"github.com/cwbudde/algo-peaks/internal/ingest"
	"github.com/cwbudde/algo-peaks/internal/render"
	"github.com/cwbudde/algo-peaks/measure/peaks"
	"github.com/cwbudde/algo-peaks/stats/histogram"
)

const shutdownTimeout = 10 * time.Second

var errBadParameter = errors.New("server: bad parameter")

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// AnalyzeResponse is the body of a successful POST /v1/analyze.
type AnalyzeResponse struct {
	File       string             `json:"file"`
	Found      bool               `json:"found"`
	Peaks      []peaks.RankedPeak `json:"peaks"`
	Candidates int                `json:"candidates"`
	Histogram  histogram.Summary  `json:"histogram"`
	Range      *histogram.Range   `json:"range,omitempty"`
	Report     string             `json:"report"`
	Series     *histogram.Series  `json:"series,omitempty"`
	Smoothed   *histogram.Series  `json:"smoothed,omitempty"`
}

// Server wires the HTTP routes to the analysis pipeline.
type Server struct {
	cfg      *config.Config
	log      *zap.Logger
	engine   *gin.Engine
	registry *prometheus.Registry
	metrics  *metrics
}

// New builds the router. cfg is not modified; requests override a copy.
// Each Server owns its metrics registry.
func New(cfg *config.Config, log *zap.Logger) *Server {
	reg := prometheus.NewRegistry()
	s := &Server{
		cfg:      cfg,
		log:      log,
		engine:   gin.New(),
		registry: reg,
		metrics:  newMetrics(reg),
	}

	s.engine.Use(
		gin.Recovery(),
		requestID(),
		s.requestLogger(),
		requestSizeLimiter(cfg.Server.MaxUploadBytes),
	)
	s.engine.GET("/healthz", s.health)
	s.engine.GET("/metrics", metricsHandler(reg))
	v1 := s.engine.Group("/v1")
	v1.POST("/analyze", s.analyze)
	v1.POST("/plot", s.plot)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errc
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) analyze(c *gin.Context) {
	name, cfg, res, ok := s.run(c)
	if !ok {
		return
	}

	resp := AnalyzeResponse{
		File:       name,
		Found:      !res.Ranking.Empty(),
		Peaks:      res.Ranking.Peaks,
		Candidates: len(res.Candidates),
		Histogram:  res.Summary,
		Range:      cfg.Analysis.Range,
		Report:     res.Ranking.Summary(),
	}
	if c.Query("series") == "true" {
		resp.Series = &res.Series
		resp.Smoothed = &res.Smoothed
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) plot(c *gin.Context) {
	_, cfg, res, ok := s.run(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	err := render.WritePNG(&buf, res,
		render.WithSize(cfg.Display.Width, cfg.Display.Height),
		render.WithDisplay(cfg.Display.Range),
	)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", render.DefaultFileName))
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// run analyzes the upload and records the outcome. On failure the error
// response has been written and ok is false.
func (s *Server) run(c *gin.Context) (name string, cfg *config.Config, res peaks.Result, ok bool) {
	route := c.FullPath()
	start := time.Now()
	name, cfg, res, err := s.analyzeUpload(c)
	elapsed := time.Since(start)
	s.metrics.duration.WithLabelValues(route).Observe(elapsed.Seconds())
	if err != nil {
		s.metrics.analyses.WithLabelValues(route, outcomeError).Inc()
		s.respondError(c, err)
		return "", nil, peaks.Result{}, false
	}

	outcome := outcomeFound
	if res.Ranking.Empty() {
		outcome = outcomeEmpty
	}
	s.metrics.analyses.WithLabelValues(route, outcome).Inc()
	s.metrics.bins.Observe(float64(res.Series.Len()))
	s.metrics.ranked.Observe(float64(len(res.Ranking.Peaks)))

	s.log.Info("analyzed",
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.String("file", name),
		zap.Int("bins", res.Series.Len()),
		zap.Int("candidates", len(res.Candidates)),
		zap.Bool("found", !res.Ranking.Empty()),
		zap.Int("peaks", len(res.Ranking.Peaks)),
		zap.Duration("duration", elapsed),
	)
	return name, cfg, res, true
}

// analyzeUpload reads the upload, applies query overrides and analyzes the
// table.
func (s *Server) analyzeUpload(c *gin.Context) (string, *config.Config, peaks.Result, error) {
	cfg, err := s.requestConfig(c)
	if err != nil {
		return "", nil, peaks.Result{}, err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return "", nil, peaks.Result{}, fmt.Errorf("%w: file: %w", errBadParameter, err)
	}
	f, err := fh.Open()
	if err != nil {
		return "", nil, peaks.Result{}, err
	}
	defer f.Close()

	table, err := ingest.Read(f, fh.Filename, cfg.IngestOptions()...)
	if err != nil {
		return "", nil, peaks.Result{}, err
	}
	a, err := peaks.NewAnalyzer(cfg.AnalyzerOptions()...)
	if err != nil {
		return "", nil, peaks.Result{}, err
	}
	res, err := a.AnalyzeTable(table, cfg.Input.Columns)
	if err != nil {
		return "", nil, peaks.Result{}, err
	}
	return fh.Filename, cfg, res, nil
}

// requestConfig overlays query parameters on a copy of the server config.
func (s *Server) requestConfig(c *gin.Context) (*config.Config, error) {
	cfg := s.cfg.Clone()
	if err := cfg.ApplyPreset(c.Query("preset")); err != nil {
		return nil, fmt.Errorf("%w: %w", errBadParameter, err)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"window", &cfg.Analysis.Window},
		{"order", &cfg.Analysis.Order},
		{"top", &cfg.Analysis.TopK},
		{"skip-rows", &cfg.Input.SkipRows},
	}
	for _, p := range ints {
		if err := queryInt(c, p.key, p.dst); err != nil {
			return nil, err
		}
	}
	if v, ok := c.GetQuery("min-prominence"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: min-prominence=%q", errBadParameter, v)
		}
		cfg.Analysis.MinProminence = f
	}

	var err error
	if cfg.Analysis.Range, err = queryRange(c, "min", "max", cfg.Analysis.Range); err != nil {
		return nil, err
	}
	_, hasMin := c.GetQuery("display-min")
	_, hasMax := c.GetQuery("display-max")
	if cfg.Display.Range == nil && hasMin != hasMax {
		return nil, fmt.Errorf("%w: display-min and display-max must be given together", errBadParameter)
	}
	if cfg.Display.Range, err = queryRange(c, "display-min", "display-max", cfg.Display.Range); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func queryInt(c *gin.Context, key string, dst *int) error {
	v, ok := c.GetQuery(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q", errBadParameter, key, v)
	}
	*dst = n
	return nil
}

// queryRange builds a range from a min/max pair. A single bound keeps the
// other from base, or opens it to the int limits when base is nil.
func queryRange(c *gin.Context, minKey, maxKey string, base *histogram.Range) (*histogram.Range, error) {
	_, hasMin := c.GetQuery(minKey)
	_, hasMax := c.GetQuery(maxKey)
	if !hasMin && !hasMax {
		return base, nil
	}

	r := histogram.Range{Min: 0, Max: math.MaxInt}
	if base != nil {
		r = *base
	}
	if err := queryInt(c, minKey, &r.Min); err != nil {
		return nil, err
	}
	if err := queryInt(c, maxKey, &r.Max); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// statusCode maps pipeline errors to HTTP status codes.
func statusCode(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, errBadParameter),
		errors.Is(err, config.ErrInvalid),
		errors.Is(err, ingest.ErrInvalidSkipRows),
		errors.Is(err, histogram.ErrSchema),
		errors.Is(err, histogram.ErrNegativeCount),
		errors.Is(err, histogram.ErrNonIntegralChannel),
		errors.Is(err, histogram.ErrNotFinite),
		errors.Is(err, histogram.ErrInvalidRange),
		errors.Is(err, savgol.ErrSeriesTooShort),
		errors.Is(err, savgol.ErrInvalidWindow),
		errors.Is(err, savgol.ErrInvalidOrder),
		errors.Is(err, peak.ErrInvalidMinProminence),
		errors.Is(err, peaks.ErrInvalidTopK),
		errors.Is(err, render.ErrEmptySeries):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondError(c *gin.Context, err error) {
	code := statusCode(err)
	s.log.Warn("request failed",
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.Error(err),
		zap.Int("status", code),
		zap.String("path", c.Request.URL.Path),
	)
	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: err.Error(),
	})
}
