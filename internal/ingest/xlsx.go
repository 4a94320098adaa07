package ingest

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/cwbudde/algo-peaks/stats/histogram"
)

var errNoSheet = errors.New("xlsx: workbook has no sheets")

// ReadXLSX reads the first worksheet of an Excel workbook. The header is
// located as in ReadCSV, with SkipRows counting worksheet rows. Cells are
// read as stored, ignoring number formats.
func ReadXLSX(r io.Reader, opts ...Option) (histogram.Table, error) {
	cfg := ApplyOptions(opts...)
	if cfg.SkipRows < 0 {
		return histogram.Table{}, fmt.Errorf("%w: %d", ErrInvalidSkipRows, cfg.SkipRows)
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return histogram.Table{}, fmt.Errorf("xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return histogram.Table{}, errNoSheet
	}
	rows, err := f.Rows(sheets[0])
	if err != nil {
		return histogram.Table{}, fmt.Errorf("xlsx: %s: %w", sheets[0], err)
	}
	defer rows.Close()

	rr := &xlsxRecords{rows: rows}
	for i := 0; i < cfg.SkipRows; i++ {
		if _, err := rr.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return histogram.Table{}, &histogram.SchemaError{Missing: cfg.Schema.Names()}
			}
			return histogram.Table{}, err
		}
	}
	return readTable(rr, cfg)
}

type xlsxRecords struct {
	rows *excelize.Rows
}

func (x *xlsxRecords) Read() ([]string, error) {
	if !x.rows.Next() {
		if err := x.rows.Error(); err != nil {
			return nil, fmt.Errorf("xlsx: %w", err)
		}
		return nil, io.EOF
	}
	cols, err := x.rows.Columns(excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}
	return cols, nil
}
