package ingest

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/cwbudde/algo-peaks/stats/histogram"
)

const parquetBatch = 1024

// ReadParquet reads every row group of a Parquet file. Column names are the
// dotted leaf paths of the file schema; numeric leaves are widened to
// float64 and text leaves are parsed, anything else becomes NaN.
func ReadParquet(ra io.ReaderAt, size int64) (histogram.Table, error) {
	f, err := parquet.OpenFile(ra, size)
	if err != nil {
		return histogram.Table{}, fmt.Errorf("parquet: %w", err)
	}

	paths := f.Schema().Columns()
	t := histogram.Table{Columns: make([]string, len(paths))}
	for i, p := range paths {
		t.Columns[i] = strings.Join(p, ".")
	}

	buf := make([]parquet.Row, parquetBatch)
	for _, rg := range f.RowGroups() {
		if err := readRowGroup(rg, len(paths), buf, &t); err != nil {
			return histogram.Table{}, fmt.Errorf("parquet: %w", err)
		}
	}
	return t, nil
}

func readRowGroup(rg parquet.RowGroup, width int, buf []parquet.Row, t *histogram.Table) error {
	rows := rg.Rows()
	defer rows.Close()

	for {
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			values := make([]float64, width)
			for i := range values {
				values[i] = math.NaN()
			}
			for _, v := range row {
				if c := v.Column(); c >= 0 && c < width {
					values[c] = parquetValue(v)
				}
			}
			t.Values = append(t.Values, values)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func parquetValue(v parquet.Value) float64 {
	if v.IsNull() {
		return math.NaN()
	}
	switch v.Kind() {
	case parquet.Boolean:
		if v.Boolean() {
			return 1
		}
		return 0
	case parquet.Int32:
		return float64(v.Int32())
	case parquet.Int64:
		return float64(v.Int64())
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v.ByteArray())), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
