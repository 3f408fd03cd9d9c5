// Package normalize rewrites raw column labels into the canonical lexical
// form the rest of the pipeline operates on, and resolves known synonym
// spellings to the canonical vocabulary.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/kirillkom/report-etl/internal/core/domain"
)

// Label canonicalizes a single column label: trim, lowercase, strip
// diacritics, spaces/hyphens to underscores, collapse doubled underscores.
// Idempotent; unrecognized characters pass through unchanged.
func Label(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = stripAccents(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}

var accentStripper = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func stripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

// Columns returns a copy of the table with every column label normalized via
// Label. If two labels normalize to the same name the later column wins and
// the column list keeps a single entry.
func Columns(t domain.Table) domain.Table {
	out := domain.Table{Source: t.Source}
	renames := make(map[string]string, len(t.Columns))
	seen := make(map[string]bool, len(t.Columns))
	for _, col := range t.Columns {
		name := Label(col)
		renames[col] = name
		if !seen[name] {
			seen[name] = true
			out.Columns = append(out.Columns, name)
		}
	}
	out.Rows = renameRows(t, renames)
	return out
}

// ResolveSynonyms renames columns whose label is a known variant spelling to
// the canonical name. The synonym table is walked in declaration order and
// each canonical name is claimed at most once (first-declared-wins), so the
// result is deterministic and no input column is ever dropped: variants that
// lose the claim keep their normalized name.
func ResolveSynonyms(t domain.Table) domain.Table {
	renames := make(map[string]string, len(t.Columns))
	claimed := make(map[string]bool)
	for _, entry := range synonymTable {
		if claimed[entry.Canonical] {
			continue
		}
		for _, variant := range entry.Variants {
			if _, taken := renames[variant]; taken {
				continue
			}
			if t.HasColumn(variant) {
				renames[variant] = entry.Canonical
				claimed[entry.Canonical] = true
				break
			}
		}
	}
	if len(renames) == 0 {
		return t.Clone()
	}

	out := domain.Table{Source: t.Source, Columns: make([]string, len(t.Columns))}
	for i, col := range t.Columns {
		if canonical, ok := renames[col]; ok {
			out.Columns[i] = canonical
			continue
		}
		out.Columns[i] = col
	}
	out.Rows = renameRows(t, renames)
	return out
}

func renameRows(t domain.Table, renames map[string]string) []domain.Row {
	rows := make([]domain.Row, len(t.Rows))
	for i, row := range t.Rows {
		renamed := make(domain.Row, len(row))
		for _, col := range t.Columns {
			value, ok := row[col]
			if !ok {
				continue
			}
			name := col
			if target, renameIt := renames[col]; renameIt {
				name = target
			}
			renamed[name] = value
		}
		rows[i] = renamed
	}
	return rows
}
