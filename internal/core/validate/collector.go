package validate

import (
	"fmt"
	"strings"
)

// maxExamplesPerGroup caps how many failing values a diagnostic group keeps.
const maxExamplesPerGroup = 3

// collector groups cell-level failures by (column, check), preserving the
// order groups first appear, and tracks which rows failed.
type collector struct {
	order  []groupKey
	groups map[groupKey]*group
	rows   map[int]bool
}

type groupKey struct {
	column string
	check  string
}

type group struct {
	examples []string
	count    int
}

func newCollector() *collector {
	return &collector{
		groups: make(map[groupKey]*group),
		rows:   make(map[int]bool),
	}
}

// add records one failing cell. row is -1 for table-level failures such as a
// missing required column.
func (c *collector) add(column, check, value string, row int) {
	key := groupKey{column: column, check: check}
	g, ok := c.groups[key]
	if !ok {
		g = &group{}
		c.groups[key] = g
		c.order = append(c.order, key)
	}
	g.count++
	if len(g.examples) < maxExamplesPerGroup {
		g.examples = append(g.examples, value)
	}
	if row >= 0 {
		c.rows[row] = true
	}
}

func (c *collector) empty() bool {
	return len(c.order) == 0
}

func (c *collector) failingRows() int {
	return len(c.rows)
}

// summary renders one human-readable line for the whole file, e.g.
// "total: >= 0 (examples: -5, -1); tipo: isin(ingreso, gasto) (examples: transferencia)".
func (c *collector) summary() string {
	parts := make([]string, 0, len(c.order))
	for _, key := range c.order {
		g := c.groups[key]
		part := fmt.Sprintf("%s: %s (examples: %s)", key.column, key.check, strings.Join(g.examples, ", "))
		if g.count > maxExamplesPerGroup {
			part = fmt.Sprintf("%s [%d total]", part, g.count)
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "; ")
}
