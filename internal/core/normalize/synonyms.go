package normalize

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// synonymEntry maps one canonical column name to its known variant
// spellings. Entries are an ordered list, not a map: resolution order is
// part of the contract.
type synonymEntry struct {
	Canonical string   `yaml:"canonical"`
	Variants  []string `yaml:"variants"`
}

//go:embed synonyms.yaml
var synonymsYAML []byte

// synonymTable is loaded once at init and never mutated afterwards.
var synonymTable = mustLoadSynonyms(synonymsYAML)

func mustLoadSynonyms(raw []byte) []synonymEntry {
	var entries []synonymEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		panic(fmt.Sprintf("normalize: parse synonyms.yaml: %v", err))
	}
	if len(entries) == 0 {
		panic("normalize: synonyms.yaml is empty")
	}
	for _, e := range entries {
		if e.Canonical == "" || len(e.Variants) == 0 {
			panic(fmt.Sprintf("normalize: malformed synonym entry %+v", e))
		}
	}
	return entries
}

// CanonicalNames returns the canonical vocabulary in declaration order.
func CanonicalNames() []string {
	names := make([]string, len(synonymTable))
	for i, e := range synonymTable {
		names[i] = e.Canonical
	}
	return names
}
