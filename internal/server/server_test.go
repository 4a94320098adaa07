package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cwbudde/algo-peaks/internal/config"
	"github.com/cwbudde/algo-peaks/internal/render"
	"github.com/cwbudde/algo-peaks/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// twoLineCSV renders a two-line spectrum as detector rows with a short
// metadata preamble.
func twoLineCSV() string {
	counts := testutil.Spectrum(600, 2,
		testutil.Line{Center: 150, Amplitude: 60, Sigma: 10},
		testutil.Line{Center: 450, Amplitude: 40, Sigma: 12},
	)
	var b strings.Builder
	b.WriteString("Instrument,MCA-2\nDate,2024-01-01\n")
	b.WriteString("CH1(ch),CH2(ch),Counts\n")
	for _, r := range testutil.Rows(0, counts) {
		fmt.Fprintf(&b, "%d,%d,%v\n", r.CH1, r.CH2, r.Counts)
	}
	return b.String()
}

func upload(t *testing.T, h http.Handler, path, filename, body string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func newHandler() http.Handler {
	return New(config.Default(), zap.NewNop()).Handler()
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestAnalyze(t *testing.T) {
	rec := upload(t, newHandler(), "/v1/analyze", "run.csv", twoLineCSV())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "run.csv", resp.File)
	assert.True(t, resp.Found)
	require.Len(t, resp.Peaks, 2)
	assert.InDelta(t, 150, resp.Peaks[0].Energy, 2)
	assert.InDelta(t, 450, resp.Peaks[1].Energy, 2)
	assert.Equal(t, 1, resp.Peaks[0].Rank)
	assert.Equal(t, 600, resp.Histogram.Bins)
	assert.True(t, strings.HasPrefix(resp.Report, "Peak 1: sum_energy = "), resp.Report)
	assert.Nil(t, resp.Range)
}

func TestAnalyzeQueryOverrides(t *testing.T) {
	h := newHandler()

	rec := upload(t, h, "/v1/analyze?preset=original", "run.csv", twoLineCSV())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Peaks)
	for _, p := range resp.Peaks {
		assert.LessOrEqual(t, p.Energy, 399)
	}
	require.NotNil(t, resp.Range)
	assert.Equal(t, 399, resp.Range.Max)

	rec = upload(t, h, "/v1/analyze?top=1&series=true", "run.csv", twoLineCSV())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp = AnalyzeResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Peaks, 1)
	assert.Contains(t, rec.Body.String(), `"smoothed":[{"energy":0,`)
	require.NotNil(t, resp.Series)
	require.NotNil(t, resp.Smoothed)
	assert.Equal(t, 600, resp.Series.Len())
	assert.Equal(t, resp.Series.Energies(), resp.Smoothed.Energies())

	rec = upload(t, h, "/v1/analyze?top=0", "run.csv", twoLineCSV())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp = AnalyzeResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Found)
	assert.Len(t, resp.Peaks, resp.Candidates)
}

func TestAnalyzeNoPeaks(t *testing.T) {
	var b strings.Builder
	b.WriteString("CH1(ch),CH2(ch),Counts\n")
	for e := range 40 {
		fmt.Fprintf(&b, "%d,0,%d\n", e, e)
	}
	rec := upload(t, newHandler(), "/v1/analyze?min=0&max=400", "ramp.csv", b.String())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Found)
	assert.Empty(t, resp.Peaks)
	assert.Equal(t, "No peak found in sum_energy range [0, 400].\n", resp.Report)
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		filename string
		body     string
		status   int
	}{
		{"missing file", "/v1/analyze", "", "", http.StatusBadRequest},
		{"legacy spreadsheet", "/v1/analyze", "run.xls", "PK", http.StatusUnsupportedMediaType},
		{"missing column", "/v1/analyze", "run.csv", "CH1(ch),Counts\n1,2\n", http.StatusBadRequest},
		{"too short", "/v1/analyze", "run.csv", "CH1(ch),CH2(ch),Counts\n1,1,5\n1,2,3\n2,2,7\n", http.StatusBadRequest},
		{"negative count", "/v1/analyze", "run.csv", "CH1(ch),CH2(ch),Counts\n1,1,-5\n", http.StatusBadRequest},
		{"bad window", "/v1/analyze?window=20", "run.csv", twoLineCSV(), http.StatusBadRequest},
		{"bad number", "/v1/analyze?top=two", "run.csv", twoLineCSV(), http.StatusBadRequest},
		{"bad preset", "/v1/plot?preset=fancy", "run.csv", twoLineCSV(), http.StatusBadRequest},
		{"half display", "/v1/plot?display-min=10", "run.csv", twoLineCSV(), http.StatusBadRequest},
	}
	h := newHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := upload(t, h, tt.path, tt.filename, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, http.StatusText(tt.status), resp.Error)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestPlot(t *testing.T) {
	rec := upload(t, newHandler(), "/v1/plot?preset=original&display-min=0&display-max=599", "run.csv", twoLineCSV())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), render.DefaultFileName)

	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPlotWidth, img.Bounds().Dx())
	assert.Equal(t, config.DefaultPlotHeight, img.Bounds().Dy())
}

func TestUploadLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Server.MaxUploadBytes = 256
	h := New(cfg, zap.NewNop()).Handler()

	rec := upload(t, h, "/v1/analyze", "run.csv", twoLineCSV())
	assert.GreaterOrEqual(t, rec.Code, 400)
	assert.NotEqual(t, http.StatusOK, rec.Code)
}

func TestAnalyzeLogsRun(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := New(config.Default(), zap.New(core)).Handler()

	rec := upload(t, h, "/v1/analyze", "run.csv", twoLineCSV())
	require.Equal(t, http.StatusOK, rec.Code)

	entries := logs.FilterMessage("analyzed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "run.csv", fields["file"])
	assert.EqualValues(t, 600, fields["bins"])
	assert.Equal(t, true, fields["found"])
	assert.EqualValues(t, 2, fields["peaks"])
	assert.NotEmpty(t, fields["request_id"])

	rec = upload(t, h, "/v1/analyze", "run.xls", "PK")
	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, 1, logs.FilterMessage("request failed").Len())
}

func TestMetrics(t *testing.T) {
	h := newHandler()
	require.Equal(t, http.StatusOK, upload(t, h, "/v1/analyze", "run.csv", twoLineCSV()).Code)
	require.Equal(t, http.StatusUnsupportedMediaType, upload(t, h, "/v1/analyze", "run.xls", "PK").Code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `peakinfo_analyses_total{outcome="found",route="/v1/analyze"} 1`)
	assert.Contains(t, body, `peakinfo_analyses_total{outcome="error",route="/v1/analyze"} 1`)
	assert.Contains(t, body, `peakinfo_analysis_duration_seconds_count{route="/v1/analyze"} 2`)
	assert.Contains(t, body, "peakinfo_histogram_bins_count 1")
	assert.Contains(t, body, "peakinfo_ranked_peaks_sum 2")

	// A second server starts from zero.
	rec = httptest.NewRecorder()
	newHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.NotContains(t, rec.Body.String(), "peakinfo_analyses_total{")
}

func TestRequestID(t *testing.T) {
	h := newHandler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	_, err := uuid.Parse(rec.Header().Get(requestIDHeader))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "run-42")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "run-42", rec.Header().Get(requestIDHeader))
}
