// Package aggregate merges per-file pipeline results into the three output
// tables handed to the export sink.
package aggregate

import (
	"sort"
	"strconv"
	"time"

	"github.com/kirillkom/report-etl/internal/core/domain"
)

// Provenance columns attached to every exported row.
const (
	ColSourceFile        = "__source_file"
	ColDatasetType       = "__dataset_type"
	ColValidationOK      = "__validation_ok"
	ColValidationSummary = "__validation_summary"
)

// Result bundles the derived output tables of one run.
type Result struct {
	Clean   domain.Table
	Invalid domain.Table
	Summary domain.Table
}

// Merge concatenates every file's valid rows into clean and every failed
// file's rows into invalid, tagging each row with its source file, detected
// shape and validation outcome, then computes the per-(file, shape) row
// count summary over clean. Must be called single-threaded over results in
// input order so row ordering stays deterministic.
func Merge(files []domain.ProcessedFile) Result {
	clean := domain.Table{Source: "clean"}
	invalid := domain.Table{Source: "invalid"}

	for _, f := range files {
		appendTagged(&clean, f.Valid, f, true)
		appendTagged(&invalid, f.Invalid, f, false)
	}
	return Result{
		Clean:   clean,
		Invalid: invalid,
		Summary: summarize(files),
	}
}

func appendTagged(dst *domain.Table, src domain.Table, f domain.ProcessedFile, valid bool) {
	if src.Empty() {
		return
	}
	for _, col := range src.Columns {
		if !dst.HasColumn(col) {
			dst.Columns = append(dst.Columns, col)
		}
	}
	for _, meta := range []string{ColSourceFile, ColDatasetType, ColValidationOK} {
		if !dst.HasColumn(meta) {
			dst.Columns = append(dst.Columns, meta)
		}
	}
	if !valid && !dst.HasColumn(ColValidationSummary) {
		dst.Columns = append(dst.Columns, ColValidationSummary)
	}

	for _, row := range src.Rows {
		tagged := make(domain.Row, len(row)+4)
		for k, v := range row {
			tagged[k] = v
		}
		tagged[ColSourceFile] = f.Source
		tagged[ColDatasetType] = string(f.Shape)
		tagged[ColValidationOK] = valid
		if !valid {
			tagged[ColValidationSummary] = f.Diagnostic
		}
		dst.Rows = append(dst.Rows, tagged)
	}
}

// summarize counts clean rows grouped by (source file, shape), sorted by
// source then shape.
func summarize(files []domain.ProcessedFile) domain.Table {
	type key struct {
		source string
		shape  string
	}
	counts := make(map[key]int)
	for _, f := range files {
		if f.Valid.Empty() {
			continue
		}
		counts[key{source: f.Source, shape: string(f.Shape)}] += len(f.Valid.Rows)
	}

	keys := make([]key, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].source != keys[j].source {
			return keys[i].source < keys[j].source
		}
		return keys[i].shape < keys[j].shape
	})

	summary := domain.Table{
		Source:  "summary",
		Columns: []string{ColSourceFile, ColDatasetType, "rows"},
	}
	for _, k := range keys {
		summary.Rows = append(summary.Rows, domain.Row{
			ColSourceFile:  k.source,
			ColDatasetType: k.shape,
			"rows":         float64(counts[k]),
		})
	}
	return summary
}

// Records renders a table as header + string rows, the layout the sink
// contract requires: first row is the column names, every cell serialized to
// text, missing cells as empty strings.
func Records(t domain.Table) [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, append([]string(nil), t.Columns...))
	for _, row := range t.Rows {
		record := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			record[i] = formatValue(row[col])
		}
		out = append(out, record)
	}
	return out
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case int:
		return strconv.Itoa(val)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}
