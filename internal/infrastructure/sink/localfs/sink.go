// Package localfs exports the run's output tables to the processed
// directory: a plain combined.csv with the clean rows, and a combined.xlsx
// workbook with raw_clean, summary and (when present) invalid sheets.
package localfs

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/report-etl/internal/core/aggregate"
	"github.com/kirillkom/report-etl/internal/core/domain"
)

const (
	csvName  = "combined.csv"
	xlsxName = "combined.xlsx"

	cleanSheet   = "raw_clean"
	summarySheet = "summary"
	invalidSheet = "invalid"
)

type Sink struct {
	dir string
}

func New(dir string) (*Sink, error) {
	if dir == "" {
		dir = "./data/processed"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create processed dir: %w", err)
	}
	return &Sink{dir: dir}, nil
}

// Export writes the three tables. Outputs are derived and recomputed on
// every run, so existing files are overwritten.
func (s *Sink) Export(ctx context.Context, clean, invalid, summary domain.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.writeCSV(clean); err != nil {
		return fmt.Errorf("export %s: %w", csvName, err)
	}
	if err := s.writeWorkbook(clean, invalid, summary); err != nil {
		return fmt.Errorf("export %s: %w", xlsxName, err)
	}
	return nil
}

func (s *Sink) writeCSV(clean domain.Table) error {
	f, err := os.Create(filepath.Join(s.dir, csvName))
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(aggregate.Records(clean)); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	w.Flush()
	return w.Error()
}

func (s *Sink) writeWorkbook(clean, invalid, summary domain.Table) error {
	wb := excelize.NewFile()
	defer wb.Close()

	if err := writeSheet(wb, cleanSheet, clean); err != nil {
		return err
	}
	if err := writeSheet(wb, summarySheet, summary); err != nil {
		return err
	}
	if !invalid.Empty() {
		if err := writeSheet(wb, invalidSheet, invalid); err != nil {
			return err
		}
	}

	// The default sheet excelize creates is replaced by raw_clean.
	defaultSheet := wb.GetSheetName(0)
	if defaultSheet != cleanSheet {
		if err := wb.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("drop default sheet: %w", err)
		}
	}

	if err := wb.SaveAs(filepath.Join(s.dir, xlsxName)); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeSheet(wb *excelize.File, name string, table domain.Table) error {
	if _, err := wb.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	for i, record := range aggregate.Records(table) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name for row %d: %w", i+1, err)
		}
		row := make([]any, len(record))
		for j, v := range record {
			row[j] = v
		}
		if err := wb.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("write sheet %s row %d: %w", name, i+1, err)
		}
	}
	return nil
}
