package ports

import (
	"context"
	"io"

	"github.com/kirillkom/report-etl/internal/core/domain"
)

// PayloadSource yields input files already filtered to supported tabular
// extensions. The query narrows the selection and may be empty.
type PayloadSource interface {
	Fetch(ctx context.Context, query string) ([]domain.Payload, error)
}

// IngestLedger answers whether a payload's content was processed before and
// durably records new fingerprints. Record must treat a duplicate
// fingerprint as a no-op, atomically with respect to concurrent callers.
type IngestLedger interface {
	Seen(ctx context.Context, fingerprint string) (bool, error)
	Record(ctx context.Context, entry domain.LedgerEntry) error
}

// ObjectStorage keeps a durable copy of every newly-seen payload.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// TableReader parses a payload into a raw table.
type TableReader interface {
	Read(filename string, data []byte) (domain.Table, error)
}

// ExportSink receives the three output tables. The first row of each table
// handed over is the header; cells are already string-safe.
type ExportSink interface {
	Export(ctx context.Context, clean, invalid, summary domain.Table) error
}

// Notifier delivers human-readable run updates. Fire-and-forget: failures
// must never propagate into the pipeline.
type Notifier interface {
	Info(ctx context.Context, message string)
	Warn(ctx context.Context, message string)
	Error(ctx context.Context, message string)
}

// RunQueue publishes and consumes asynchronous run requests.
type RunQueue interface {
	PublishRunRequested(ctx context.Context, query string) error
	SubscribeRunRequested(ctx context.Context, handler func(context.Context, string) error) error
}
