// Package classify assigns a dataset shape to a table from its canonical
// column set.
package classify

import "github.com/kirillkom/report-etl/internal/core/domain"

// Detect applies the shape heuristics in fixed priority order and returns
// the first match. A table matching several rules is classified by the
// earliest one; nothing here mutates the table.
func Detect(t domain.Table) domain.Shape {
	has := func(names ...string) bool {
		for _, n := range names {
			if !t.HasColumn(n) {
				return false
			}
		}
		return true
	}

	switch {
	case has("fecha", "producto") && (has("cantidad") || has("total")):
		return domain.ShapeSales
	case has("fecha", "campana") && (has("leads") || has("conversiones")):
		return domain.ShapeLeads
	case has("producto", "stock") || has("stock", "almacen"):
		return domain.ShapeInventory
	case has("fecha", "monto"):
		return domain.ShapeFinance
	default:
		return domain.ShapeGeneric
	}
}
