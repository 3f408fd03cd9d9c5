// Package localdir yields payloads from a local inbox directory, the drop
// point an external mail fetcher (or any other collaborator) writes report
// files into.
package localdir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kirillkom/report-etl/internal/core/domain"
)

// supportedExtensions filters the inbox to tabular formats before anything
// reaches the pipeline.
var supportedExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
	".xlsm": true,
	".xls":  true,
}

type Source struct {
	dir string
}

func New(dir string) (*Source, error) {
	if dir == "" {
		dir = "./data/inbox"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create inbox dir: %w", err)
	}
	return &Source{dir: dir}, nil
}

// Fetch lists the inbox, filters to supported extensions and the optional
// glob query (matched against base names, empty means everything), and
// returns filename/content pairs in lexical order so runs are
// deterministic.
func (s *Source) Fetch(ctx context.Context, query string) ([]domain.Payload, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list inbox: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !supportedExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		if query != "" {
			matched, err := filepath.Match(query, name)
			if err != nil {
				return nil, fmt.Errorf("bad selection query %q: %w", query, err)
			}
			if !matched {
				continue
			}
		}
		names = append(names, name)
	}
	sort.Strings(names)

	payloads := make([]domain.Payload, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		payloads = append(payloads, domain.Payload{Filename: name, Data: data})
	}
	return payloads, nil
}
