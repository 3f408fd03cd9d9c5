package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/report-etl/internal/core/aggregate"
	"github.com/kirillkom/report-etl/internal/core/domain"
	"github.com/kirillkom/report-etl/internal/core/ports"
)

// RunPipelineUseCase orchestrates one full run: fetch payloads, gate them
// through the ingest ledger, parse, process per file on a bounded worker
// pool, aggregate single-threaded and hand the output tables to the sink.
type RunPipelineUseCase struct {
	source   ports.PayloadSource
	ledger   ports.IngestLedger
	storage  ports.ObjectStorage
	reader   ports.TableReader
	sink     ports.ExportSink
	notifier ports.Notifier
	workers  int
}

func NewRunPipelineUseCase(
	source ports.PayloadSource,
	ledger ports.IngestLedger,
	storage ports.ObjectStorage,
	reader ports.TableReader,
	sink ports.ExportSink,
	notifier ports.Notifier,
	workers int,
) *RunPipelineUseCase {
	if workers <= 0 {
		workers = 1
	}
	return &RunPipelineUseCase{
		source:   source,
		ledger:   ledger,
		storage:  storage,
		reader:   reader,
		sink:     sink,
		notifier: notifier,
		workers:  workers,
	}
}

// Run executes the pipeline. Per-file errors are logged and isolated; only
// aggregate-level conditions produce a non-zero status. The returned error
// is non-nil only for uncategorized failures (status 99).
func (uc *RunPipelineUseCase) Run(ctx context.Context, query string) (domain.RunReport, error) {
	report := domain.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	defer func() {
		report.Duration = time.Since(report.StartedAt).Seconds()
	}()
	slog.Info("pipeline_run_start", "run_id", report.RunID, "query", query)

	payloads, err := uc.source.Fetch(ctx, query)
	if err != nil {
		return uc.fail(ctx, &report, fmt.Errorf("fetch payloads: %w", err))
	}
	report.FilesFetched = len(payloads)
	if len(payloads) == 0 {
		report.Status = domain.StatusNoData
		uc.notifier.Warn(ctx, "No payloads matched the selection query.")
		slog.Warn("pipeline_no_payloads", "run_id", report.RunID)
		return report, nil
	}

	fresh, err := uc.admit(ctx, payloads, &report)
	if err != nil {
		return uc.fail(ctx, &report, err)
	}
	if len(fresh) == 0 {
		report.Status = domain.StatusNoData
		uc.notifier.Warn(ctx, fmt.Sprintf("All %d payload(s) were already ingested; nothing to do.", len(payloads)))
		slog.Warn("pipeline_all_duplicates", "run_id", report.RunID, "skipped", report.FilesSkipped)
		return report, nil
	}

	tables := uc.readTables(fresh, &report)
	if len(tables) == 0 {
		report.Status = domain.StatusReadFailure
		uc.notifier.Error(ctx, fmt.Sprintf("None of the %d payload(s) could be read as tables.", len(fresh)))
		slog.Error("pipeline_read_failure", "run_id", report.RunID, "failed", report.FilesFailed)
		return report, nil
	}
	report.FilesRead = len(tables)

	results := uc.processAll(ctx, tables)
	merged := aggregate.Merge(results)
	report.CleanRows = len(merged.Clean.Rows)
	report.InvalidRows = len(merged.Invalid.Rows)

	if merged.Clean.Empty() && !merged.Invalid.Empty() {
		report.Status = domain.StatusAllInvalid
		uc.notifier.Error(ctx, "Every file failed validation; nothing was exported.")
		slog.Error("pipeline_all_invalid", "run_id", report.RunID, "invalid_rows", report.InvalidRows)
		return report, nil
	}

	if err := uc.sink.Export(ctx, merged.Clean, merged.Invalid, merged.Summary); err != nil {
		return uc.fail(ctx, &report, fmt.Errorf("export output tables: %w", err))
	}

	if !merged.Invalid.Empty() {
		uc.notifier.Warn(ctx, fmt.Sprintf(
			"Exported with warnings: %d invalid row(s) routed to the invalid table for review.",
			report.InvalidRows,
		))
	}
	uc.notifier.Info(ctx, fmt.Sprintf(
		"Pipeline OK. Files processed: %d. Valid rows: %d.",
		report.FilesRead, report.CleanRows,
	))
	slog.Info("pipeline_run_done",
		"run_id", report.RunID,
		"files_read", report.FilesRead,
		"clean_rows", report.CleanRows,
		"invalid_rows", report.InvalidRows,
	)
	report.Status = domain.StatusOK
	return report, nil
}

// admit gates payloads through the ingest ledger: duplicates are skipped,
// new payloads are stored durably and recorded before processing.
func (uc *RunPipelineUseCase) admit(ctx context.Context, payloads []domain.Payload, report *domain.RunReport) ([]domain.Payload, error) {
	fresh := make([]domain.Payload, 0, len(payloads))
	for _, p := range payloads {
		fingerprint := domain.Fingerprint(p.Data)

		seen, err := uc.ledger.Seen(ctx, fingerprint)
		if err != nil {
			return nil, fmt.Errorf("ledger lookup for %s: %w", p.Filename, err)
		}
		if seen {
			report.FilesSkipped++
			slog.Info("payload_skipped_duplicate", "filename", p.Filename, "fingerprint", fingerprint)
			continue
		}

		key := fmt.Sprintf("%s_%s", fingerprint[:12], sanitizeFilename(p.Filename))
		if err := uc.storage.Save(ctx, key, bytes.NewReader(p.Data)); err != nil {
			return nil, fmt.Errorf("store payload %s: %w", p.Filename, err)
		}
		if err := uc.ledger.Record(ctx, domain.LedgerEntry{
			Fingerprint: fingerprint,
			Filename:    p.Filename,
			StoredPath:  key,
			ReceivedAt:  time.Now().UTC(),
		}); err != nil {
			return nil, fmt.Errorf("record payload %s: %w", p.Filename, err)
		}
		fresh = append(fresh, p)
	}
	return fresh, nil
}

// readTables parses each admitted payload. Unsupported or unreadable files
// are logged and skipped without aborting the run.
func (uc *RunPipelineUseCase) readTables(payloads []domain.Payload, report *domain.RunReport) []domain.Table {
	tables := make([]domain.Table, 0, len(payloads))
	for _, p := range payloads {
		table, err := uc.reader.Read(p.Filename, p.Data)
		if err != nil {
			report.FilesFailed++
			slog.Error("payload_read_error", "filename", p.Filename, "error", err)
			continue
		}
		if table.Empty() {
			slog.Warn("payload_empty_table", "filename", p.Filename)
			continue
		}
		tables = append(tables, table)
	}
	return tables
}

// processAll runs the per-file pipeline on a bounded worker pool. Results
// land in input order; cancellation stops scheduling new files while
// in-flight files run to completion.
func (uc *RunPipelineUseCase) processAll(ctx context.Context, tables []domain.Table) []domain.ProcessedFile {
	results := make([]domain.ProcessedFile, len(tables))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < uc.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = ProcessTable(tables[i])
			}
		}()
	}

schedule:
	for i := range tables {
		select {
		case <-ctx.Done():
			break schedule
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

func (uc *RunPipelineUseCase) fail(ctx context.Context, report *domain.RunReport, err error) (domain.RunReport, error) {
	report.Status = domain.StatusUnexpected
	uc.notifier.Error(ctx, fmt.Sprintf("Pipeline failed unexpectedly: %v", err))
	slog.Error("pipeline_run_failed", "run_id", report.RunID, "error", err)
	return *report, err
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "payload.bin"
	}
	return base
}
