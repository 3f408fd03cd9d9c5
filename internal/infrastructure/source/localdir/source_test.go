package localdir

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestFetchFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_ventas.csv", "a,b\n1,2\n")
	writeFile(t, dir, "a_stock.xlsx", "binary")
	writeFile(t, dir, "notas.txt", "skip me")
	writeFile(t, dir, "imagen.png", "skip me too")

	src, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	payloads, err := src.Fetch(context.Background(), "")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(payloads) != 2 {
		t.Fatalf("expected 2 payloads, got %d", len(payloads))
	}
	if payloads[0].Filename != "a_stock.xlsx" || payloads[1].Filename != "b_ventas.csv" {
		t.Fatalf("unexpected order: %s, %s", payloads[0].Filename, payloads[1].Filename)
	}
	if string(payloads[1].Data) != "a,b\n1,2\n" {
		t.Fatalf("unexpected content: %q", payloads[1].Data)
	}
}

func TestFetchAppliesGlobQuery(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ventas_enero.csv", "a\n1\n")
	writeFile(t, dir, "stock_enero.csv", "a\n1\n")

	src, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	payloads, err := src.Fetch(context.Background(), "ventas_*.csv")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(payloads) != 1 || payloads[0].Filename != "ventas_enero.csv" {
		t.Fatalf("unexpected payloads: %v", payloads)
	}
}

func TestFetchEmptyInbox(t *testing.T) {
	src, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	payloads, err := src.Fetch(context.Background(), "")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(payloads) != 0 {
		t.Fatalf("expected no payloads, got %d", len(payloads))
	}
}

func TestFetchRejectsMalformedQuery(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ventas.csv", "a\n1\n")

	src, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := src.Fetch(context.Background(), "[unclosed"); err == nil {
		t.Fatal("expected error for malformed glob")
	}
}
