// Package coerce converts raw string cells into typed values ahead of
// validation. Coercion never fails: unparseable cells become nil and the
// validator decides what that means for the file.
package coerce

import (
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/report-etl/internal/core/domain"
)

// numericCandidates are the canonical columns parsed as numbers in the
// common pass.
var numericCandidates = map[string]bool{
	"cantidad":        true,
	"precio_unitario": true,
	"total":           true,
	"leads":           true,
	"conversiones":    true,
	"stock":           true,
	"monto":           true,
}

// dateLayouts are tried in order. Day-first layouts come before anything
// ambiguous, matching how the source reports are written.
var dateLayouts = []string{
	"2/1/2006",
	"02/01/2006",
	"2-1-2006",
	"02-01-2006",
	"2.1.2006",
	"02.01.2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04",
	time.RFC3339,
}

// Common applies the shape-independent pass: columns starting with "fecha"
// are parsed as day-first dates, the numeric candidate set as numbers, and
// "tipo" is trimmed and lowercased.
func Common(t domain.Table) domain.Table {
	out := t.Clone()
	for _, col := range out.Columns {
		switch {
		case strings.HasPrefix(col, "fecha"):
			for _, row := range out.Rows {
				row[col] = coerceDate(row[col])
			}
		case numericCandidates[col]:
			for _, row := range out.Rows {
				row[col] = coerceNumber(row[col])
			}
		case col == "tipo":
			for _, row := range out.Rows {
				row[col] = coerceTipo(row[col])
			}
		}
	}
	return out
}

// ByShape applies shape-specific adjustments after the common pass. For
// sales tables a missing total is derived as cantidad × precio_unitario; the
// multiplication requires the common numeric pass to have run first.
func ByShape(t domain.Table, shape domain.Shape) domain.Table {
	if shape != domain.ShapeSales {
		return t
	}
	if t.HasColumn("total") || !t.HasColumn("cantidad") || !t.HasColumn("precio_unitario") {
		return t
	}

	out := t.Clone()
	out.Columns = append(out.Columns, "total")
	for _, row := range out.Rows {
		qty, qtyOK := row["cantidad"].(float64)
		price, priceOK := row["precio_unitario"].(float64)
		if qtyOK && priceOK {
			row["total"] = qty * price
			continue
		}
		row["total"] = nil
	}
	return out
}

func coerceDate(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		return val
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed
			}
		}
		return nil
	default:
		return nil
	}
}

func coerceNumber(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil
		}
		// Accept a single decimal comma ("30,5"); anything else must
		// already be plain float syntax.
		if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
			s = strings.Replace(s, ",", ".", 1)
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return parsed
	default:
		return nil
	}
}

func coerceTipo(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return strings.ToLower(strings.TrimSpace(val))
	default:
		return v
	}
}
