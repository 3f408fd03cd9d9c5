package validate

import (
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/report-etl/internal/core/domain"
)

var someDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func salesTable(rows ...domain.Row) domain.Table {
	return domain.Table{
		Source:  "ventas.csv",
		Columns: []string{"fecha", "producto", "cantidad", "precio_unitario", "total"},
		Rows:    rows,
	}
}

func TestValidateSalesPasses(t *testing.T) {
	table := salesTable(
		domain.Row{"fecha": someDate, "producto": "X", "cantidad": 2.0, "precio_unitario": 5.0, "total": 10.0},
		domain.Row{"fecha": someDate, "producto": "Y", "cantidad": nil, "precio_unitario": 5.0, "total": 20.0},
	)
	res := Validate(table, domain.ShapeSales)
	if !res.OK {
		t.Fatalf("expected valid, got summary %q", res.Summary)
	}
}

func TestValidateSalesConsistencyCheck(t *testing.T) {
	bad := salesTable(
		domain.Row{"fecha": someDate, "producto": "X", "cantidad": 2.0, "precio_unitario": 5.0, "total": 11.0},
	)
	res := Validate(bad, domain.ShapeSales)
	if res.OK {
		t.Fatal("expected consistency failure for 2*5 != 11")
	}
	if !strings.Contains(res.Summary, "total == cantidad * precio_unitario") {
		t.Fatalf("summary missing consistency check: %q", res.Summary)
	}
	if res.FailingRows != 1 {
		t.Fatalf("expected 1 failing row, got %d", res.FailingRows)
	}

	// Rows with any of the three null are exempt from the check.
	exempt := salesTable(
		domain.Row{"fecha": someDate, "producto": "X", "cantidad": 2.0, "precio_unitario": nil, "total": 11.0},
	)
	if res := Validate(exempt, domain.ShapeSales); !res.OK {
		t.Fatalf("null operand should be exempt, got %q", res.Summary)
	}
}

func TestValidateSalesNegativeAndNullFailures(t *testing.T) {
	table := salesTable(
		domain.Row{"fecha": nil, "producto": "X", "cantidad": -1.0, "precio_unitario": 5.0, "total": nil},
		domain.Row{"fecha": someDate, "producto": nil, "cantidad": -2.0, "precio_unitario": 5.0, "total": nil},
	)
	res := Validate(table, domain.ShapeSales)
	if res.OK {
		t.Fatal("expected failures")
	}
	for _, want := range []string{"fecha: not_null", "producto: not_null", "cantidad: >= 0"} {
		if !strings.Contains(res.Summary, want) {
			t.Fatalf("summary %q missing %q", res.Summary, want)
		}
	}
	if res.FailingRows != 2 {
		t.Fatalf("expected 2 failing rows, got %d", res.FailingRows)
	}
}

func TestValidateFinanceTipoEnum(t *testing.T) {
	table := domain.Table{
		Columns: []string{"fecha", "categoria", "tipo", "monto"},
		Rows: []domain.Row{
			{"fecha": someDate, "categoria": "ventas", "tipo": "ingreso", "monto": 10.0},
			{"fecha": someDate, "categoria": "oficina", "tipo": "gasto", "monto": 5.0},
		},
	}
	if res := Validate(table, domain.ShapeFinance); !res.OK {
		t.Fatalf("expected valid finance table, got %q", res.Summary)
	}

	table.Rows = append(table.Rows, domain.Row{
		"fecha": someDate, "categoria": "otros", "tipo": "transferencia", "monto": 1.0,
	})
	res := Validate(table, domain.ShapeFinance)
	if res.OK {
		t.Fatal("expected enum failure for tipo=transferencia")
	}
	if !strings.Contains(res.Summary, "tipo: isin(ingreso, gasto)") {
		t.Fatalf("summary missing enum check: %q", res.Summary)
	}
	if !strings.Contains(res.Summary, "transferencia") {
		t.Fatalf("summary missing failing value: %q", res.Summary)
	}
}

func TestValidateInventoryRequiresStock(t *testing.T) {
	table := domain.Table{
		Columns: []string{"producto", "stock", "almacen"},
		Rows: []domain.Row{
			{"producto": "A", "stock": 4.0, "almacen": "norte"},
			{"producto": "B", "stock": nil, "almacen": "sur"},
		},
	}
	res := Validate(table, domain.ShapeInventory)
	if res.OK {
		t.Fatal("expected not_null failure for stock")
	}
	if !strings.Contains(res.Summary, "stock: not_null") {
		t.Fatalf("summary: %q", res.Summary)
	}
}

// The inventory rule can classify on stock+almacen alone; a missing producto
// column must then fail validation as a whole.
func TestValidateMissingRequiredColumn(t *testing.T) {
	table := domain.Table{
		Columns: []string{"stock", "almacen"},
		Rows:    []domain.Row{{"stock": 4.0, "almacen": "norte"}},
	}
	res := Validate(table, domain.ShapeInventory)
	if res.OK {
		t.Fatal("expected failure for missing producto column")
	}
	if !strings.Contains(res.Summary, "producto: required_column_missing") {
		t.Fatalf("summary: %q", res.Summary)
	}
}

func TestValidateGenericAlwaysPasses(t *testing.T) {
	table := domain.Table{
		Columns: []string{"whatever", "bytes"},
		Rows:    []domain.Row{{"whatever": nil, "bytes": "-5"}},
	}
	if res := Validate(table, domain.ShapeGeneric); !res.OK {
		t.Fatalf("generic tables must auto-pass, got %q", res.Summary)
	}
}

func TestValidateExtraColumnsIgnored(t *testing.T) {
	table := domain.Table{
		Columns: []string{"fecha", "campana", "leads", "nota_interna"},
		Rows: []domain.Row{
			{"fecha": someDate, "campana": "verano", "leads": 10.0, "nota_interna": nil},
		},
	}
	if res := Validate(table, domain.ShapeLeads); !res.OK {
		t.Fatalf("extra columns must be permitted, got %q", res.Summary)
	}
}

func TestSummaryCapsExamplesAtThree(t *testing.T) {
	rows := make([]domain.Row, 5)
	for i := range rows {
		rows[i] = domain.Row{"fecha": someDate, "campana": "c", "leads": float64(-1 - i)}
	}
	table := domain.Table{Columns: []string{"fecha", "campana", "leads"}, Rows: rows}
	res := Validate(table, domain.ShapeLeads)
	if res.OK {
		t.Fatal("expected failures")
	}
	if !strings.Contains(res.Summary, "examples: -1, -2, -3") {
		t.Fatalf("expected first three examples, got %q", res.Summary)
	}
	if !strings.Contains(res.Summary, "[5 total]") {
		t.Fatalf("expected total count marker, got %q", res.Summary)
	}
	if res.FailingRows != 5 {
		t.Fatalf("expected 5 failing rows, got %d", res.FailingRows)
	}
}
