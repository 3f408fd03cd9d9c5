// Package validate applies the per-shape schema to a coerced table and
// decides, for the whole file at once, whether its rows are clean.
package validate

import (
	"fmt"
	"strconv"
	"time"

	"github.com/kirillkom/report-etl/internal/core/domain"
)

// consistencyTolerance bounds the allowed drift between a reported total and
// cantidad × precio_unitario.
const consistencyTolerance = 1e-6

// Result is the whole-file validation outcome. When OK is false the Summary
// groups cell-level failures by (column, check) with up to three example
// values per group.
type Result struct {
	OK          bool
	Summary     string
	FailingRows int
}

// Validate checks a coerced table against its shape's schema. Generic tables
// auto-pass. Schemas are non-strict: extra columns are permitted and never
// inspected.
func Validate(t domain.Table, shape domain.Shape) Result {
	rules, ok := schemas[shape]
	if !ok {
		return Result{OK: true}
	}

	c := newCollector()
	for _, rule := range rules {
		applyColumnRule(t, rule, c)
	}
	if cross, ok := crossChecks[shape]; ok {
		cross(t, c)
	}
	if c.empty() {
		return Result{OK: true}
	}
	return Result{Summary: c.summary(), FailingRows: c.failingRows()}
}

// columnRule describes the constraints on one canonical column. A required
// column must be present in the table and non-null in every row; optional
// columns are only checked where present.
type columnRule struct {
	column      string
	required    bool
	date        bool
	number      bool
	nonNegative bool
	enum        []string
}

var schemas = map[domain.Shape][]columnRule{
	domain.ShapeSales: {
		{column: "fecha", required: true, date: true},
		{column: "producto", required: true},
		{column: "cantidad", number: true, nonNegative: true},
		{column: "precio_unitario", number: true, nonNegative: true},
		{column: "total", number: true, nonNegative: true},
	},
	domain.ShapeLeads: {
		{column: "fecha", required: true, date: true},
		{column: "campana", required: true},
		{column: "leads", number: true, nonNegative: true},
		{column: "conversiones", number: true, nonNegative: true},
	},
	domain.ShapeInventory: {
		{column: "producto", required: true},
		{column: "stock", required: true, number: true, nonNegative: true},
	},
	domain.ShapeFinance: {
		{column: "fecha", required: true, date: true},
		{column: "categoria", required: true},
		{column: "tipo", required: true, enum: []string{"ingreso", "gasto"}},
		{column: "monto", required: true, number: true, nonNegative: true},
	},
}

var crossChecks = map[domain.Shape]func(domain.Table, *collector){
	domain.ShapeSales: checkSalesTotalConsistency,
}

func applyColumnRule(t domain.Table, rule columnRule, c *collector) {
	if !t.HasColumn(rule.column) {
		if rule.required {
			c.add(rule.column, "required_column_missing", "-", -1)
		}
		return
	}

	for i, row := range t.Rows {
		v := row[rule.column]
		if v == nil {
			if rule.required {
				c.add(rule.column, "not_null", "null", i)
			}
			continue
		}
		if rule.date {
			if _, ok := v.(time.Time); !ok {
				c.add(rule.column, "valid_date", formatCell(v), i)
			}
			continue
		}
		if len(rule.enum) > 0 {
			s, ok := v.(string)
			if !ok || !contains(rule.enum, s) {
				c.add(rule.column, "isin(ingreso, gasto)", formatCell(v), i)
			}
			continue
		}
		if rule.number {
			f, ok := v.(float64)
			if !ok {
				c.add(rule.column, "numeric", formatCell(v), i)
				continue
			}
			if rule.nonNegative && f < 0 {
				c.add(rule.column, ">= 0", formatCell(v), i)
			}
		}
	}
}

// checkSalesTotalConsistency enforces total ≈ cantidad × precio_unitario on
// rows where all three values are present. Rows with any of the three null
// are exempt.
func checkSalesTotalConsistency(t domain.Table, c *collector) {
	if !t.HasColumn("cantidad") || !t.HasColumn("precio_unitario") || !t.HasColumn("total") {
		return
	}
	for i, row := range t.Rows {
		qty, qtyOK := row["cantidad"].(float64)
		price, priceOK := row["precio_unitario"].(float64)
		total, totalOK := row["total"].(float64)
		if !qtyOK || !priceOK || !totalOK {
			continue
		}
		diff := qty*price - total
		if diff < 0 {
			diff = -diff
		}
		if diff >= consistencyTolerance {
			c.add("total", "total == cantidad * precio_unitario", formatCell(total), i)
		}
	}
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case time.Time:
		return val.Format("2006-01-02")
	default:
		return fmt.Sprint(val)
	}
}
