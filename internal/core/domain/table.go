package domain

// Shape tags a file with the fixed schema that applies to its rows.
type Shape string

const (
	ShapeSales     Shape = "sales"
	ShapeLeads     Shape = "leads"
	ShapeInventory Shape = "inventory"
	ShapeFinance   Shape = "finance"
	ShapeGeneric   Shape = "generic"
)

// Row maps a column name to a cell value. After coercion a cell holds one of
// string, float64, time.Time or nil (missing/unparseable).
type Row map[string]any

// Table is one file's worth of rows plus an ordered column list. Column order
// is preserved through every pipeline stage so exports stay deterministic.
type Table struct {
	Source  string
	Columns []string
	Rows    []Row
}

// Empty reports whether the table carries no rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// HasColumn reports whether name is in the column list.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy; pipeline stages never mutate their input.
func (t Table) Clone() Table {
	out := Table{
		Source:  t.Source,
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, row := range t.Rows {
		copied := make(Row, len(row))
		for k, v := range row {
			copied[k] = v
		}
		out.Rows[i] = copied
	}
	return out
}

// ProcessedFile is the outcome of running one source file through the
// pipeline. Validation is all-or-nothing per file: either Valid carries every
// row, or Invalid does together with a diagnostic summary.
type ProcessedFile struct {
	Source     string
	Shape      Shape
	Valid      Table
	Invalid    Table
	Diagnostic string
}

// Payload is one fetched input file, already filtered to supported
// extensions by the payload source.
type Payload struct {
	Filename string
	Data     []byte
}
