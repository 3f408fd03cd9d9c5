// Package tabular parses raw payload bytes into domain tables. CSV is read
// with encoding/csv, spreadsheet formats with excelize. Parsing failures are
// reported as typed read errors so the pipeline can skip the file.
package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/report-etl/internal/core/domain"
)

// Reader turns (filename, bytes) payloads into raw tables.
type Reader struct{}

func New() *Reader {
	return &Reader{}
}

// Read parses a payload by extension. Unknown extensions return an
// unsupported-format error; corrupt content returns a read-failure error.
// Cell values are raw strings; empty cells become nil.
func (r *Reader) Read(filename string, data []byte) (domain.Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return r.readCSV(filename, data)
	case ".xlsx", ".xlsm", ".xls":
		return r.readExcel(filename, data)
	default:
		return domain.Table{}, domain.WrapError(
			domain.ErrUnsupportedFormat,
			"read payload",
			fmt.Errorf("extension %q of %s", filepath.Ext(filename), filename),
		)
	}
}

func (r *Reader) readCSV(filename string, data []byte) (domain.Table, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if !utf8.Valid(data) {
		return domain.Table{}, domain.WrapError(
			domain.ErrReadFailure,
			"read csv",
			fmt.Errorf("%s is not valid utf-8 text", filename),
		)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return domain.Table{}, domain.WrapError(domain.ErrReadFailure, "read csv", fmt.Errorf("%s: %w", filename, err))
	}
	return fromRecords(filename, records)
}

func (r *Reader) readExcel(filename string, data []byte) (domain.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return domain.Table{}, domain.WrapError(domain.ErrReadFailure, "open workbook", fmt.Errorf("%s: %w", filename, err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return domain.Table{}, domain.WrapError(domain.ErrReadFailure, "open workbook", fmt.Errorf("%s has no sheets", filename))
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return domain.Table{}, domain.WrapError(domain.ErrReadFailure, "read sheet", fmt.Errorf("%s: %w", filename, err))
	}
	return fromRecords(filename, records)
}

// fromRecords builds a table from header + value rows. The header row is
// required; value rows may be ragged and are padded with nil.
func fromRecords(filename string, records [][]string) (domain.Table, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return domain.Table{}, domain.WrapError(
			domain.ErrReadFailure,
			"read payload",
			fmt.Errorf("%s has no header row", filename),
		)
	}

	table := domain.Table{
		Source:  filepath.Base(filename),
		Columns: append([]string(nil), records[0]...),
	}
	for _, record := range records[1:] {
		row := make(domain.Row, len(table.Columns))
		for i, col := range table.Columns {
			if i >= len(record) || strings.TrimSpace(record[i]) == "" {
				row[col] = nil
				continue
			}
			row[col] = record[i]
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
